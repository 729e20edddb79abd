package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/blog-platform/internal/engagement"
	"github.com/example/blog-platform/internal/platform/api"
	"github.com/example/blog-platform/internal/platform/auth"
)

// ToggleLike handles POST /v1/blogs/{blog_id}/like
func ToggleLike(es *engagement.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}
		blogID := strings.TrimSpace(chi.URLParam(r, "blog_id"))
		if blogID == "" {
			api.BadRequest(w, "MISSING_ID", "blog_id is required", "", nil)
			return
		}

		result, err := es.ToggleLike(r.Context(), blogID, userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, result)
	}
}
