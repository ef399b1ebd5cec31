package di

import (
	"log/slog"

	"auth_backend/internal/feature/auth/transport/client"
	"auth_backend/internal/platform/config"
	infrahttp "auth_backend/internal/platform/http"
	jwtmw "auth_backend/internal/platform/jwt"
	"auth_backend/internal/platform/metrics"
	"auth_backend/internal/platform/resilience"
)

// NewRemoteValidator creates a fully configured RemoteValidator with HTTP client and retry policy.
func NewRemoteValidator(cfg *config.Config, m *metrics.Metrics) *client.RemoteValidator {
	httpClient := infrahttp.NewHTTPClient(infrahttp.ClientConfig{Timeout: cfg.RemoteAttemptTimeout})
	caller := resilience.NewCaller(resilience.Policy{
		MaxAttempts:    cfg.RemoteMaxAttempts,
		BaseInterval:   cfg.RemoteBackoffBase,
		MaxInterval:    cfg.RemoteBackoffMax,
		Multiplier:     1.5,
		AttemptTimeout: cfg.RemoteAttemptTimeout,
	}, m)
	return client.NewRemoteValidator(cfg.AuthServiceURL, httpClient, caller)
}

// NewAuthenticator picks how bearer tokens are checked: remotely when
// AUTH_SERVICE_URL is set, otherwise by the local session manager.
func NewAuthenticator(cfg *config.Config, local jwtmw.Authenticator, m *metrics.Metrics) jwtmw.Authenticator {
	if cfg.AuthServiceURL != "" {
		slog.Info("bearer authentication delegated", "auth_service_url", cfg.AuthServiceURL)
		return NewRemoteValidator(cfg, m)
	}
	return local
}
