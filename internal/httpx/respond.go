// Package httpx holds the shared JSON response helpers used by all handlers.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/storyshare/service-api/internal/apperr"
)

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError is the single error boundary: it maps a classified error to its
// status and a {"message": ...} body. Unclassified errors become a 500.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, apperr.StatusOf(err), map[string]string{"message": apperr.MessageOf(err)})
}

// NotFoundHandler serves the uniform JSON 404 for unknown routes.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, apperr.NotFound("route not found"))
	}
}
