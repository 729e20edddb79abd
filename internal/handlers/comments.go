package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/blog-platform/internal/comments"
	"github.com/example/blog-platform/internal/platform/api"
	"github.com/example/blog-platform/internal/platform/auth"
)

type createCommentRequest struct {
	BlogID   string  `json:"blog_id"`
	Content  string  `json:"content"`
	ParentID *string `json:"parent_id,omitempty"`
}

// CreateComment handles POST /v1/comments
func CreateComment(cs *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}

		var req createCommentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}
		if strings.TrimSpace(req.BlogID) == "" {
			api.BadRequest(w, "MISSING_ID", "blog_id is required", "", nil)
			return
		}

		created, err := cs.Create(r.Context(), req.BlogID, userID, req.Content, req.ParentID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// DeleteComment handles DELETE /v1/comments/{comment_id}?blog_id=
func DeleteComment(cs *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}
		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", "", nil)
			return
		}
		blogID := strings.TrimSpace(r.URL.Query().Get("blog_id"))
		if blogID == "" {
			api.BadRequest(w, "MISSING_ID", "blog_id is required", "", nil)
			return
		}

		if err := cs.Delete(r.Context(), commentID, blogID, userID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListComments handles GET /v1/blogs/{blog_id}/comments
func ListComments(cs *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogID := strings.TrimSpace(chi.URLParam(r, "blog_id"))
		if blogID == "" {
			api.BadRequest(w, "MISSING_ID", "blog_id is required", "", nil)
			return
		}
		page, size := pageParams(r)
		repliesPage := queryInt(r, "replies_page", 1)
		repliesSize := queryInt(r, "replies_size", 3)

		result, err := cs.ListRoots(r.Context(), blogID, page, size, repliesPage, repliesSize)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, result)
	}
}

// ListReplies handles GET /v1/comments/{root_id}/replies
func ListReplies(cs *comments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rootID := strings.TrimSpace(chi.URLParam(r, "root_id"))
		if rootID == "" {
			api.BadRequest(w, "MISSING_ID", "root_id is required", "", nil)
			return
		}
		page, size := pageParams(r)

		result, err := cs.ListReplies(r.Context(), rootID, page, size)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, result)
	}
}
