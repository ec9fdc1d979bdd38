package story

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/storyshare/service-api/internal/apperr"
	"github.com/storyshare/service-api/internal/httpx"
	"github.com/storyshare/service-api/internal/token"
)

// Handler exposes HTTP endpoints for story lifecycle and engagement.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// callerID returns the verified identity set by the auth middleware.
func callerID(r *http.Request) (string, bool) {
	id, ok := token.IdentityFromContext(r.Context())
	if !ok {
		return "", false
	}
	return id.ID, true
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		httpx.WriteError(w, apperr.Unauthorized("missing credential"))
		return
	}
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteError(w, apperr.Validation("invalid payload"))
		return
	}
	st, err := h.svc.Create(r.Context(), in, caller)
	if err != nil {
		h.logger.Debugw("story create failed", "caller", caller, "err", err)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, st)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	stories, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Warnw("story listing failed", "err", err)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, stories)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Get(r.Context(), r.PathValue("storyId"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) ListByAuthor(w http.ResponseWriter, r *http.Request) {
	stories, err := h.svc.ListByAuthor(r.Context(), r.PathValue("authorId"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, stories)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		httpx.WriteError(w, apperr.Unauthorized("missing credential"))
		return
	}
	var patch UpdatePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpx.WriteError(w, apperr.Validation("invalid payload"))
		return
	}
	st, err := h.svc.Update(r.Context(), r.PathValue("storyId"), patch, caller)
	if err != nil {
		h.logger.Debugw("story update failed", "caller", caller, "err", err)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		httpx.WriteError(w, apperr.Unauthorized("missing credential"))
		return
	}
	if err := h.svc.Delete(r.Context(), r.PathValue("storyId"), caller); err != nil {
		h.logger.Debugw("story delete failed", "caller", caller, "err", err)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Story deleted successfully"})
}

func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Publish(r.Context(), r.PathValue("storyId"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, st)
}

type likeRequest struct {
	UserID string `json:"userId"`
}

func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	var req likeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperr.Validation("invalid payload"))
		return
	}
	st, err := h.svc.ToggleLike(r.Context(), r.PathValue("id"), req.UserID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message":      "Like status updated successfully",
		"likes":        st.LikeCount,
		"likesSummary": st.LikedBy,
	})
}

type commentRequest struct {
	Comment   string `json:"comment"`
	UserID    string `json:"userId"`
	FirstName string `json:"first_name"`
}

func (h *Handler) Comment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, apperr.Validation("invalid payload"))
		return
	}
	st, err := h.svc.AddComment(r.Context(), r.PathValue("id"), req.Comment, req.UserID, req.FirstName)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, st)
}
