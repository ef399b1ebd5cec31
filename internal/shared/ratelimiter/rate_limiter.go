// Package ratelimiter はクライアントごとのリクエスト頻度を制限します。
package ratelimiter

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// idleTTL is how long an unused key is kept before it is evicted.
const idleTTL = 10 * time.Minute

// RateLimiterInterface は、キーごとに操作を許可するかを判定するインターフェースです。
type RateLimiterInterface interface {
	Allow(key string) bool
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter は、キー（通常はクライアントIP）ごとにトークンバケットを持ちます。
type RateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*entry
	now      func() time.Time
}

// NewRateLimiter は interval あたり limit 回まで許可するRateLimiterを生成します。
// バースト幅は limit と同じです。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	if limit < 1 {
		limit = 1
	}
	return &RateLimiter{
		limit:    rate.Every(interval / time.Duration(limit)),
		burst:    limit,
		limiters: map[string]*entry{},
		now:      time.Now,
	}
}

// Allow はkeyのリクエストを1件消費できればtrueを返します。
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	e, ok := rl.limiters[key]
	if !ok {
		rl.evictIdle(now)
		e = &entry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// evictIdle はしばらく使われていないキーを削除します。呼び出し側でロックを保持していること。
func (rl *RateLimiter) evictIdle(now time.Time) {
	for k, e := range rl.limiters {
		if now.Sub(e.lastSeen) > idleTTL {
			delete(rl.limiters, k)
		}
	}
}

// Middleware は keyFn が返すキーごとに制限をかけるGinミドルウェアを返します。
// 上限を超えたリクエストには429を返却します。
func Middleware(rl RateLimiterInterface, keyFn func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(keyFn(c)) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
