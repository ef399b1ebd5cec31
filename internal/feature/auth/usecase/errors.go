// Package usecase implements the business logic for the auth feature.
package usecase

import "errors"

var (
	// ErrUserNotFound is returned when a user cannot be found by identifier or ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists is returned when a unique username or email constraint is violated on insert.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrRefreshTokenNotFound is returned when a refresh token has no persisted record.
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
)
