package usecase

import (
	"context"
	"time"

	"auth_backend/internal/feature/auth/domain/entity"
)

// UserRepository abstracts the persistence layer for user entities.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type UserRepository interface {
	// Create persists a new user. It returns ErrUserAlreadyExists when the
	// username or email is taken.
	Create(ctx context.Context, user *entity.User) error

	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// FindActiveByUsernameOrEmail returns the active user whose username or email
	// equals identifier. Locked users are returned so the caller can report the lock.
	FindActiveByUsernameOrEmail(ctx context.Context, identifier string) (*entity.User, error)

	// FindByID returns ErrUserNotFound when no row matches.
	FindByID(ctx context.Context, id uint) (*entity.User, error)

	// UpdateLoginState persists the failure counter, lock flag and last login time.
	UpdateLoginState(ctx context.Context, user *entity.User) error
}

// RefreshTokenRepository abstracts the persistence layer for refresh tokens.
type RefreshTokenRepository interface {
	// Create persists a new refresh token record.
	Create(ctx context.Context, token *entity.RefreshToken) error

	// FindByToken returns ErrRefreshTokenNotFound when the token was never stored
	// or has already been purged.
	FindByToken(ctx context.Context, token string) (*entity.RefreshToken, error)

	// RevokeAllByUserID marks every non-revoked token of the user as revoked in
	// one statement and returns the number of rows changed.
	RevokeAllByUserID(ctx context.Context, userID uint) (int64, error)

	// DeleteExpired removes every token whose expiry is before the given time.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
