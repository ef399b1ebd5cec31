// Package entity defines the domain entities for the auth feature.
package entity

import "time"

// RoleUser is granted to every self-registered account.
const RoleUser = "USER"

// User represents a registered user in the system.
type User struct {
	ID       uint
	Username string
	Email    string

	// PasswordHash is the one-way hash of the user's password. It never leaves the service.
	PasswordHash string

	FirstName string
	LastName  string
	Phone     string

	// Roles are flat strings copied into every token issued for the user.
	Roles []string

	Active              bool
	Locked              bool
	FailedLoginAttempts int

	LastLoginAt       *time.Time
	PasswordChangedAt time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CanAuthenticate reports whether the user may obtain new tokens.
func (u *User) CanAuthenticate() bool {
	return u.Active && !u.Locked
}

// RecordFailedLogin increments the failure counter and locks the account once
// threshold is reached. It reports whether the account is locked afterwards.
func (u *User) RecordFailedLogin(threshold int) bool {
	u.FailedLoginAttempts++
	if threshold > 0 && u.FailedLoginAttempts >= threshold {
		u.Locked = true
	}
	return u.Locked
}

// RecordSuccessfulLogin clears the failure counter and stamps the login time.
func (u *User) RecordSuccessfulLogin(now time.Time) {
	u.FailedLoginAttempts = 0
	u.LastLoginAt = &now
}

// Subject returns the claim projection used when issuing tokens.
func (u *User) Subject() TokenSubject {
	roles := make([]string, len(u.Roles))
	copy(roles, u.Roles)
	return TokenSubject{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		Roles:    roles,
	}
}
