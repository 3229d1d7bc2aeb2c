package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
)

// 一定時間リクエストのないユーザーのリミッターは破棄する
const limiterIdleTTL = 10 * time.Minute

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type userLimiters struct {
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
	limiters map[string]*userLimiter
	lastGC   time.Time
}

func (l *userLimiters) get(userID string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastGC) > limiterIdleTTL {
		for id, ul := range l.limiters {
			if now.Sub(ul.lastSeen) > limiterIdleTTL {
				delete(l.limiters, id)
			}
		}
		l.lastGC = now
	}

	ul, ok := l.limiters[userID]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[userID] = ul
	}
	ul.lastSeen = now
	return ul.limiter
}

// UserRateLimit は X-User-ID ごとのレート制限を行う
// rps が 0 以下なら何もしない。ユーザーIDのないリクエストはハンドラーの認証に任せる
func UserRateLimit(rps float64, burst int) echo.MiddlewareFunc {
	if rps <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}
	if burst <= 0 {
		burst = 1
	}
	limiters := &userLimiters{
		rps:      rate.Limit(rps),
		burst:    burst,
		limiters: make(map[string]*userLimiter),
		lastGC:   time.Now(),
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := c.Request().Header.Get("X-User-ID")
			if userID == "" {
				return next(c)
			}
			if !limiters.get(userID, time.Now()).Allow() {
				logger.FromContext(c.Request().Context()).Warn("レート制限を超過しました",
					zap.String("user_id", userID),
					zap.String("path", c.Path()),
				)
				c.Response().Header().Set("Retry-After", "1")
				return echo.NewHTTPError(http.StatusTooManyRequests, "リクエストが多すぎます")
			}
			return next(c)
		}
	}
}
