package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/blog-platform/internal/blogs"
	"github.com/example/blog-platform/internal/engagement"
	"github.com/example/blog-platform/internal/platform/api"
	"github.com/example/blog-platform/internal/platform/auth"
	"github.com/example/blog-platform/internal/store"
)

type createBlogRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

type patchBlogRequest struct {
	Title   *string  `json:"title,omitempty"`
	Content *string  `json:"content,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// CreateBlog handles POST /v1/blogs
func CreateBlog(bs *blogs.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}

		var req createBlogRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}

		created, err := bs.Create(r.Context(), userID, req.Title, req.Content, req.Tags)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// PatchBlog handles PATCH /v1/blogs/{blog_id}
func PatchBlog(bs *blogs.Service) http.HandlerFunc {
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

		var req patchBlogRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}

		updated, err := bs.Edit(r.Context(), blogID, userID, store.BlogPatch{
			Title:   req.Title,
			Content: req.Content,
			Tags:    req.Tags,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, updated)
	}
}

// DeleteBlog handles DELETE /v1/blogs/{blog_id}
func DeleteBlog(bs *blogs.Service) http.HandlerFunc {
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

		if err := bs.Remove(r.Context(), blogID, userID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetBlog handles GET /v1/blogs/{blog_id}. Reading the full blog counts
// as a view; the optional viewer identity annotates is_liked.
func GetBlog(es *engagement.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogID := strings.TrimSpace(chi.URLParam(r, "blog_id"))
		if blogID == "" {
			api.BadRequest(w, "MISSING_ID", "blog_id is required", "", nil)
			return
		}
		viewerID, _ := auth.UserIDFromContext(r.Context())

		view, err := es.IncrementView(r.Context(), blogID, viewerID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, view)
	}
}

// GetBlogPreview handles GET /v1/blogs/{blog_id}/preview
func GetBlogPreview(bs *blogs.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogID := strings.TrimSpace(chi.URLParam(r, "blog_id"))
		if blogID == "" {
			api.BadRequest(w, "MISSING_ID", "blog_id is required", "", nil)
			return
		}

		preview, err := bs.Preview(r.Context(), blogID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, preview)
	}
}

// ListMyBlogs handles GET /v1/blogs/author/me
func ListMyBlogs(bs *blogs.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}
		listAuthorBlogs(bs, userID, w, r)
	}
}

// ListAuthorBlogs handles GET /v1/blogs/author/{author_id}
func ListAuthorBlogs(bs *blogs.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorID := strings.TrimSpace(chi.URLParam(r, "author_id"))
		if authorID == "" {
			api.BadRequest(w, "MISSING_ID", "author_id is required", "", nil)
			return
		}
		listAuthorBlogs(bs, authorID, w, r)
	}
}

func listAuthorBlogs(bs *blogs.Service, authorID string, w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	exclude := strings.TrimSpace(r.URL.Query().Get("exclude"))

	result, err := bs.ListByAuthor(r.Context(), authorID, page, size, exclude)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, result)
}

// SearchBlogs handles GET /v1/blogs/search?q=
func SearchBlogs(bs *blogs.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keyword := r.URL.Query().Get("q")
		page, size := pageParams(r)

		result, err := bs.Search(r.Context(), keyword, page, size)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, result)
	}
}

// HottestByViews handles GET /v1/blogs/views/hottest?limit=
func HottestByViews(bs *blogs.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryInt(r, "limit", 10)

		top, err := bs.TopByViews(r.Context(), limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"items": top})
	}
}
