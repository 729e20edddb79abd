// Package users holds the minimal identity surface this service owns:
// registration and public profile lookup. Authentication tokens are
// issued elsewhere; this service only stores accounts and resolves
// display names.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/blog-platform/internal/store"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 20
	minPasswordLength = 6
)

// PublicProfile is the externally visible slice of an account.
type PublicProfile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Service owns account registration and profile lookups.
type Service struct {
	Users   store.UserStore
	Timeout time.Duration
	Log     *zap.Logger
}

func (s *Service) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// Register creates a new account. The password is bcrypt-hashed before it
// ever reaches the store; duplicate usernames or emails surface as
// ErrDuplicate.
func (s *Service) Register(ctx context.Context, username, email, password string) (PublicProfile, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if n := len(username); n < minUsernameLength || n > maxUsernameLength {
		return PublicProfile{}, fmt.Errorf("%w: username must be %d-%d characters",
			store.ErrInvalidArgument, minUsernameLength, maxUsernameLength)
	}
	if !strings.Contains(email, "@") {
		return PublicProfile{}, fmt.Errorf("%w: invalid email", store.ErrInvalidArgument)
	}
	if len(password) < minPasswordLength {
		return PublicProfile{}, fmt.Errorf("%w: password must be at least %d characters",
			store.ErrInvalidArgument, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return PublicProfile{}, fmt.Errorf("hash password: %w", err)
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	u, err := s.Users.Create(ctx, username, email, string(hash))
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return PublicProfile{}, fmt.Errorf("%w: username or email already taken", store.ErrDuplicate)
		}
		return PublicProfile{}, fmt.Errorf("create user: %w", err)
	}
	s.Log.Info("user registered", zap.String("user_id", u.ID))
	return PublicProfile{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}, nil
}

// GetPublic returns the public profile of an account.
func (s *Service) GetPublic(ctx context.Context, userID string) (PublicProfile, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	u, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return PublicProfile{}, fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
		}
		return PublicProfile{}, fmt.Errorf("find user: %w", err)
	}
	return PublicProfile{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}, nil
}
