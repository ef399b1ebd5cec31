// Package jwtmw signs and verifies the service's bearer tokens and provides
// the gin middleware that guards authenticated routes.
package jwtmw

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"auth_backend/internal/feature/auth/domain"
	"auth_backend/internal/feature/auth/domain/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// signingMethod is the only algorithm issued and accepted.
var signingMethod = jwt.SigningMethodHS512

// Claims is the wire shape of both token kinds.
type Claims struct {
	Username string           `json:"username"`
	Email    string           `json:"email"`
	Roles    []string         `json:"roles"`
	Type     entity.TokenType `json:"type"`
	jwt.RegisteredClaims
}

// Codec issues and parses HMAC-signed tokens with a single shared secret.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewCodec creates a Codec. accessTTL and refreshTTL are the lifetimes used by
// IssueAccess and IssueRefresh.
func NewCodec(secret string, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// AccessTTL returns the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess signs a short-lived access token for sub.
func (c *Codec) IssueAccess(sub entity.TokenSubject) (entity.IssuedToken, error) {
	return c.Issue(entity.TokenTypeAccess, sub, c.accessTTL)
}

// IssueRefresh signs a long-lived refresh token for sub.
func (c *Codec) IssueRefresh(sub entity.TokenSubject) (entity.IssuedToken, error) {
	return c.Issue(entity.TokenTypeRefresh, sub, c.refreshTTL)
}

// Issue signs a token of the given kind. Every token carries a random jti, so
// two issuances for the same user within one second still differ.
func (c *Codec) Issue(kind entity.TokenType, sub entity.TokenSubject, lifetime time.Duration) (entity.IssuedToken, error) {
	if !kind.Valid() {
		return entity.IssuedToken{}, fmt.Errorf("unknown token type %q", kind)
	}
	if lifetime <= 0 {
		return entity.IssuedToken{}, fmt.Errorf("token lifetime must be positive, got %v", lifetime)
	}

	now := c.now()
	expiresAt := now.Add(lifetime)
	claims := Claims{
		Username: sub.Username,
		Email:    sub.Email,
		Roles:    sub.Roles,
		Type:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(sub.UserID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(c.secret)
	if err != nil {
		return entity.IssuedToken{}, fmt.Errorf("failed to sign token: %w", err)
	}
	// exp has second precision on the wire; report what a parser will see.
	return entity.IssuedToken{Token: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Parse verifies the signature and expiry of token and returns its claims.
// The returned error is one of the domain token errors.
func (c *Codec) Parse(token string) (*entity.TokenClaims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, classify(err)
	}

	if !claims.Type.Valid() {
		return nil, fmt.Errorf("%w: type claim %q", domain.ErrTokenUnsupported, claims.Type)
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: subject %q", domain.ErrTokenMalformed, claims.Subject)
	}

	out := &entity.TokenClaims{
		ID: claims.ID,
		Subject: entity.TokenSubject{
			UserID:   uint(userID),
			Username: claims.Username,
			Email:    claims.Email,
			Roles:    claims.Roles,
		},
		Type:      claims.Type,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

// ParseAs is Parse plus a check that the token is of the expected kind.
func (c *Codec) ParseAs(token string, kind entity.TokenType) (*entity.TokenClaims, error) {
	claims, err := c.Parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Type != kind {
		return nil, fmt.Errorf("%w: expected %s, got %s", domain.ErrWrongTokenType, kind, claims.Type)
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return domain.ErrTokenSignatureInvalid
	case errors.Is(err, jwt.ErrTokenMalformed):
		return domain.ErrTokenMalformed
	default:
		return fmt.Errorf("%w: %v", domain.ErrTokenUnsupported, err)
	}
}
