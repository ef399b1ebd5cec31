package jwtmw

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/shared/apperror"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// Authenticator turns a bearer token into a principal. It is satisfied both by
// the local session manager and by the remote validation client.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (entity.Principal, error)
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p entity.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by AuthRequired.
func PrincipalFromContext(ctx context.Context) (entity.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(entity.Principal)
	return p, ok
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	return token, token != ""
}

// AuthRequired returns a Gin middleware function that authenticates the bearer
// token and stores the resulting principal in the request context.
func AuthRequired(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		principal, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if apperror.KindOf(err) == apperror.DownstreamUnavailable {
				slog.Error("authentication backend unavailable", "error", err, "remote_addr", c.ClientIP())
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": apperror.MessageOf(err)})
				return
			}
			slog.Debug("authentication failed", "error", err, "remote_addr", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed"})
			return
		}

		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}
