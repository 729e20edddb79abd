package store

import (
	"context"
	"time"
)

// User is an account record. The password hash never leaves the store
// layer except for credential checks.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserStore defines the identity collaborator's persistence contract.
// The engagement core only depends on DisplayNames; the rest backs the
// minimal registration surface.
type UserStore interface {
	// Create fails with ErrDuplicate when the username or email is taken.
	Create(ctx context.Context, username, email, passwordHash string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	// DisplayNames resolves many user ids to usernames in one batched
	// lookup. Unknown ids are absent from the result.
	DisplayNames(ctx context.Context, ids []string) (map[string]string, error)
}
