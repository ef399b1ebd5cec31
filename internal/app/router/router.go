package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	authhandler "auth_backend/internal/feature/auth/transport/handler"
	platformhandler "auth_backend/internal/platform/http/handler"
	jwtmw "auth_backend/internal/platform/jwt"
	"auth_backend/internal/platform/metrics"
	"auth_backend/internal/shared/ratelimiter"
)

// Deps are the components the HTTP surface is built from.
type Deps struct {
	Auth          *authhandler.AuthHandler
	Authenticator jwtmw.Authenticator
	// LoginLimiter throttles login and register per client IP. Nil disables it.
	LoginLimiter ratelimiter.RateLimiterInterface
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	HealthChecks []platformhandler.Check
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.Default()
	r.Use(d.Metrics.Instrument())

	// 導通確認用
	health := platformhandler.NewHealth(d.HealthChecks...)
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(d.Gatherer)))
	}

	limited := func(c *gin.Context) { c.Next() }
	if d.LoginLimiter != nil {
		limited = ratelimiter.Middleware(d.LoginLimiter, authhandler.ClientIP)
	}

	// 認証不要
	auth := r.Group("/auth")
	{
		// 新規ユーザー登録
		auth.POST("/register", limited, d.Auth.Register)
		// ログイン（トークンペア発行）
		auth.POST("/login", limited, d.Auth.Login)
		auth.POST("/refresh", d.Auth.Refresh)
		auth.GET("/validate", d.Auth.Validate)
		auth.POST("/logout", d.Auth.Logout)
		auth.GET("/health", d.Auth.Health)
	}

	// 認証必須のルート
	// jwtmw.AuthRequired() ミドルウェアを適用
	// → Authorization ヘッダーに Bearer トークンが必要になる
	protected := auth.Group("")
	protected.Use(jwtmw.AuthRequired(d.Authenticator))
	{
		protected.POST("/logout-all", d.Auth.LogoutAll)
	}

	return r
}
