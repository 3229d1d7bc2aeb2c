package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
)

// RequestLogger はリクエストの構造化ログを出力するミドルウェア
// リクエストIDを付けたロガーをコンテキストに格納し、以降の処理で使えるようにする
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			req := c.Request()
			res := c.Response()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = res.Header().Get(echo.HeaderXRequestID)
			}

			reqLog := logger.Get().With(zap.String("request_id", requestID))
			if userID := req.Header.Get("X-User-ID"); userID != "" {
				reqLog = reqLog.With(zap.String("user_id", userID))
			}
			c.SetRequest(req.WithContext(logger.WithContext(req.Context(), reqLog)))

			err := next(c)
			if err != nil {
				// ステータスを確定させてからログに残す
				c.Error(err)
			}

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.String("query", req.URL.RawQuery),
				zap.Int("status", res.Status),
				zap.Int64("size", res.Size),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
				zap.String("user_agent", req.UserAgent()),
			}

			switch {
			case err != nil && res.Status >= 500:
				reqLog.Error("request failed", append(fields, zap.Error(err))...)
			case res.Status >= 500:
				reqLog.Error("server error", fields...)
			case res.Status >= 400:
				reqLog.Warn("client error", fields...)
			default:
				reqLog.Info("request completed", fields...)
			}

			return nil
		}
	}
}
