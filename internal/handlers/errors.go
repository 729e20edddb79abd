package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/example/blog-platform/internal/platform/api"
	"github.com/example/blog-platform/internal/store"
)

// writeServiceError maps the store sentinels onto HTTP statuses. Deadline
// overruns surface as 503 so clients know to retry; anything unrecognized
// is a plain 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		api.NotFound(w, "NOT_FOUND", err.Error(), "")
	case errors.Is(err, store.ErrInvalidArgument):
		api.BadRequest(w, "INVALID_ARGUMENT", err.Error(), "", nil)
	case errors.Is(err, store.ErrForbidden):
		api.Forbidden(w, "FORBIDDEN", "not allowed", "")
	case errors.Is(err, store.ErrConflict):
		api.Conflict(w, "CONFLICT", err.Error(), "", nil)
	case errors.Is(err, store.ErrDuplicate):
		api.Conflict(w, "DUPLICATE", err.Error(), "", nil)
	case errors.Is(err, context.DeadlineExceeded):
		api.Unavailable(w, "STORE_TIMEOUT", "storage temporarily unavailable", "")
	default:
		api.Internal(w, "")
	}
}
