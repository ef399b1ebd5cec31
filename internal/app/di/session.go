// Package di provides dependency injection factories for creating application components.
package di

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authadapters "auth_backend/internal/feature/auth/adapters"
	"auth_backend/internal/feature/auth/audit"
	"auth_backend/internal/feature/auth/usecase"
	"auth_backend/internal/platform/config"
	jwtmw "auth_backend/internal/platform/jwt"
	"auth_backend/internal/platform/metrics"
	"auth_backend/internal/platform/password"
	"auth_backend/internal/platform/schedule"
	"auth_backend/internal/platform/session"
)

// NewSessionCache creates a SessionCache implementation.
// If Redis is unavailable (rdb == nil), every lookup reports CacheUnavailable
// and validation falls back to token claims.
func NewSessionCache(rdb *redis.Client, prefix string) usecase.SessionCache {
	return session.NewRedisCache(rdb, prefix)
}

// NewCodec creates the token codec from the JWT settings.
func NewCodec(cfg *config.Config) *jwtmw.Codec {
	return jwtmw.NewCodec(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
}

// NewAuditRecorder starts the audit worker pool writing to the audit_logs table.
func NewAuditRecorder(cfg *config.Config, db *gorm.DB, m *metrics.Metrics) *audit.Recorder {
	return audit.NewRecorder(authadapters.NewAuditLogRepository(db), audit.Config{
		Workers:      cfg.AuditWorkers,
		BufferSize:   cfg.AuditBuffer,
		WriteTimeout: cfg.AuditWriteTimeout,
	}, m)
}

// NewSessionManager wires the session lifecycle use case.
func NewSessionManager(cfg *config.Config, db *gorm.DB, cache usecase.SessionCache,
	recorder usecase.AuditRecorder, m *metrics.Metrics) *usecase.SessionManager {
	return usecase.NewSessionManager(usecase.Dependencies{
		Users:         authadapters.NewUserRepository(db),
		RefreshTokens: authadapters.NewRefreshTokenRepository(db),
		Cache:         cache,
		Codec:         NewCodec(cfg),
		Passwords:     password.NewBcryptHasher(cfg.BcryptCost),
		Audit:         recorder,
		Observer:      m,
	}, usecase.Config{
		LockoutThreshold: cfg.LockoutThreshold,
		AuditValidations: cfg.AuditValidations,
	})
}

// NewTokenReaper creates the expired refresh token purge job.
func NewTokenReaper(cfg *config.Config, db *gorm.DB, m *metrics.Metrics) *usecase.TokenReaper {
	return usecase.NewTokenReaper(authadapters.NewRefreshTokenRepository(db), usecase.ReaperConfig{
		Interval: cfg.ReaperInterval,
		Hour:     cfg.ReaperHour,
		Location: schedule.LoadLocation(cfg.ReaperTimezone),
	}, m)
}
