package entity

import (
	"slices"
	"time"
)

// Principal is the authenticated caller of a request. It is produced by
// validation and passed explicitly through the request context.
type Principal struct {
	UserID    uint
	Username  string
	Email     string
	Roles     []string
	ExpiresAt time.Time
}

// HasRole reports whether the principal carries role.
func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}
