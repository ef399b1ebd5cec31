package entity

import "time"

// TokenType distinguishes the two token kinds carried in the "type" claim.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Valid reports whether t is one of the known kinds.
func (t TokenType) Valid() bool {
	return t == TokenTypeAccess || t == TokenTypeRefresh
}

// TokenSubject is the identity data embedded into a token at issuance.
type TokenSubject struct {
	UserID   uint
	Username string
	Email    string
	Roles    []string
}

// TokenClaims is the verified content of a parsed token.
type TokenClaims struct {
	ID        string
	Subject   TokenSubject
	Type      TokenType
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IssuedToken is a freshly signed token together with its expiry.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}
