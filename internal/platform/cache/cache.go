// Package cache provides the get/set-with-expiry contract the engagement
// backend expects from its cache collaborator, with a Redis implementation
// for production and an in-memory one for development and tests.
package cache

import (
	"context"
	"time"
)

// Cache is a simple byte-value cache with per-entry expiry.
// Implementations must be safe for concurrent use. Values pass through
// JSON so repeated reads of the same entry are byte-identical.
type Cache interface {
	// Get unmarshals the cached value for key into dest and reports
	// whether the entry existed and was still live.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set stores v under key for ttl. Overwriting is idempotent.
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	// SetNX stores v only when key has no live entry and reports whether
	// the write happened. Used as a lease for cross-replica coordination.
	SetNX(ctx context.Context, key string, v any, ttl time.Duration) (bool, error)
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
