// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// checkTimeout bounds each dependency probe.
const checkTimeout = 2 * time.Second

// Check は依存先の疎通確認です。Required が false の場合、失敗しても degraded として 200 を返します。
type Check struct {
	Name     string
	Required bool
	Ping     func(ctx context.Context) error
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewHealth は /healthz 用のハンドラーを生成します。
// 必須の依存先が落ちている場合は 503、任意の依存先のみ落ちている場合は "degraded" で 200 を返します。
func NewHealth(checks ...Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 明示的にキャッシュを防止
		c.Header("Cache-Control", "no-store")

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		resp, code := probe(c.Request.Context(), checks)
		if c.Request.Method == http.MethodHead {
			c.Status(code)
			return
		}
		c.JSON(code, resp)
	}
}

func probe(ctx context.Context, checks []Check) (HealthResponse, int) {
	resp := HealthResponse{Status: "ok"}
	code := http.StatusOK
	if len(checks) == 0 {
		return resp, code
	}

	resp.Checks = make(map[string]string, len(checks))
	for _, chk := range checks {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := chk.Ping(cctx)
		cancel()

		if err == nil {
			resp.Checks[chk.Name] = "ok"
			continue
		}
		resp.Checks[chk.Name] = "down"
		if chk.Required {
			resp.Status = "unavailable"
			code = http.StatusServiceUnavailable
		} else if resp.Status == "ok" {
			resp.Status = "degraded"
		}
	}
	return resp, code
}
