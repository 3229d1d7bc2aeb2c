package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanosuguru/go-seat-booking/internal/api"
	"github.com/sanosuguru/go-seat-booking/internal/api/handler"
	"github.com/sanosuguru/go-seat-booking/internal/api/middleware"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
)

// Handlers はルーティング対象のハンドラー
type Handlers struct {
	Booking *handler.BookingHandler
	Seat    *handler.SeatHandler
	Health  *handler.HealthHandler
}

// Options はルーターの任意設定
type Options struct {
	// Metrics が nil なら HTTP メトリクスと /metrics を登録しない
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	MetricsUser     string
	MetricsPassword string

	RateLimitRPS   float64
	RateLimitBurst int
}

// New はミドルウェアとルートを設定した Echo を返す
func New(h Handlers, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	middleware.SetupMiddleware(e)
	if opts.Metrics != nil {
		e.Use(middleware.PrometheusMiddleware(opts.Metrics))

		gatherer := opts.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		e.GET("/metrics",
			echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})),
			middleware.MetricsBasicAuth(opts.MetricsUser, opts.MetricsPassword),
		)
	}

	e.GET("/health", h.Health.Check)
	e.GET("/health/ready", h.Health.Ready)

	v1 := e.Group("/api/v1")
	v1.GET("/health", h.Health.Check)

	v1.GET("/seats", h.Seat.ListAvailable)
	v1.GET("/seats/:id", h.Seat.GetByID)

	limit := middleware.UserRateLimit(opts.RateLimitRPS, opts.RateLimitBurst)
	v1.POST("/bookings", h.Booking.Create, limit)
	v1.GET("/bookings", h.Booking.List)
	v1.GET("/bookings/:id", h.Booking.GetByID)
	v1.DELETE("/bookings/:id", h.Booking.Cancel, limit)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "ルートが見つかりません")
	})

	return e
}
