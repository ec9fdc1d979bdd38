package account

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/storyshare/service-api/internal/apperr"
	"github.com/storyshare/service-api/internal/httpx"
)

// Handler exposes HTTP endpoints for account operations.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteError(w, apperr.Validation("invalid payload"))
		return
	}
	msg, err := h.svc.Register(r.Context(), in)
	if err != nil {
		h.logger.Warnw("register failed", "email", in.Email, "err", err)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]string{"message": msg})
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.svc.VerifyEmail(r.Context(), r.PathValue("verify_token"))
	if err != nil {
		h.logger.Debugw("email verification failed", "err", err)
		httpx.WriteError(w, err)
		return
	}
	if outcome == AlreadyVerified {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{
			"status":  "success",
			"message": "Email already verified. Please login.",
		})
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]string{
		"status":  "success",
		"message": "Email verified successfully. Please login.",
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperr.Validation("invalid payload"))
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Debugw("login failed", "email", req.Email, "err", err)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Warnw("account listing failed", "err", err)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, accounts)
}

func (h *Handler) GetWithStories(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetWithStories(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
