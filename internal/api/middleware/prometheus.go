package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
)

// unmatchedRoute はルート未定義のリクエストをまとめるラベル
const unmatchedRoute = "unmatched"

// PrometheusMiddleware はルート定義単位で HTTP リクエスト数と処理時間を記録する
// /metrics 自身は記録しない
func PrometheusMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/metrics" {
				return next(c)
			}
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			}

			method := c.Request().Method
			route := routeLabel(c)
			m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// routeLabel は :id などのパラメータを含むルート定義を返す（未定義ルートは unmatched）
func routeLabel(c echo.Context) string {
	switch p := c.Path(); p {
	case "", "/*":
		return unmatchedRoute
	default:
		return p
	}
}
