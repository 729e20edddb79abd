package handlers

import (
	"net/http"

	"github.com/example/blog-platform/internal/platform/api"
	"github.com/example/blog-platform/internal/platform/auth"
	"github.com/example/blog-platform/internal/trending"
)

// TrendingBlogs handles GET /v1/blogs/trending
func TrendingBlogs(ts *trending.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewerID, _ := auth.UserIDFromContext(r.Context())
		page, size := pageParams(r)

		result, err := ts.RankBlogs(r.Context(), viewerID, page, size)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, result)
	}
}

// HottestTags handles GET /v1/blogs/tags/hottest. Serves the cached
// snapshot only; a cold cache is an empty list, not an error.
func HottestTags(ts *trending.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := ts.HotTags(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, result)
	}
}
