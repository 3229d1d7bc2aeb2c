package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/api/handler"
	"github.com/sanosuguru/go-seat-booking/internal/api/router"
	"github.com/sanosuguru/go-seat-booking/internal/application"
	"github.com/sanosuguru/go-seat-booking/internal/config"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-seat-booking/internal/infrastructure/messaging/kafka"
	"github.com/sanosuguru/go-seat-booking/internal/infrastructure/messaging/rabbitmq"
	"github.com/sanosuguru/go-seat-booking/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-seat-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-seat-booking/internal/lock"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
	"github.com/sanosuguru/go-seat-booking/internal/worker"
)

const shutdownTimeout = 10 * time.Second

type publisher interface {
	application.EventPublisher
	Close() error
}

func main() {
	cfg := config.Load()
	logger.Set(logger.NewLogger(cfg.Env))
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal("サーバーが異常終了しました", zap.Error(err))
	}
	logger.Info("サーバーが正常にシャットダウンしました")
}

func run(ctx context.Context, cfg *config.Config) error {
	loc, err := cfg.Booking.Location()
	if err != nil {
		return err
	}

	// DB接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
		return err
	}

	// Redis接続（ロックとキャッシュで共有）
	rc := redisinfra.NewClient(&cfg.Redis)
	defer rc.Close()
	if err := redisinfra.Ping(ctx, rc); err != nil {
		return err
	}

	m := metrics.Init()
	clock := clockwork.NewRealClock()

	coordinator := lock.NewCoordinator(redisinfra.NewLeaseStore(rc), lock.WithClock(clock), lock.WithMetrics(m))

	seatRepo := postgres.NewSeatRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	txManager := postgres.NewTxManager(db)

	seatService := application.NewSeatService(seatRepo, redisinfra.NewSeatCache(rc), application.SeatServiceConfig{
		CacheTTL: cfg.Booking.CacheTTL,
		Location: loc,
		Clock:    clock,
		Metrics:  m,
	})
	if _, err := seatService.SeedSeats(ctx, seat.Layout{
		Sections:        cfg.Seats.Sections,
		SeatsPerSection: cfg.Seats.SeatsPerSection,
	}); err != nil {
		return fmt.Errorf("座席の登録に失敗: %w", err)
	}

	opts := []application.BookingOption{application.WithMetrics(m), application.WithClock(clock)}
	pub, err := newPublisher(cfg.Events)
	if err != nil {
		return err
	}
	if pub != nil {
		defer pub.Close()
		opts = append(opts, application.WithPublisher(pub))
	}

	bookingService := application.NewBookingService(txManager, bookingRepo, seatRepo, coordinator, seatService,
		application.BookingPolicy{
			LockTTL:        cfg.Booking.LockTTL,
			MaxAdvanceDays: cfg.Booking.MaxAdvanceDays,
			Location:       loc,
		},
		opts...,
	)

	// 空席キャッシュウォーマー
	if cfg.Worker.CacheWarmInterval > 0 {
		warmer := worker.NewAvailabilityWarmer(seatService, cfg.Worker.CacheWarmInterval, cfg.Worker.CacheWarmDays, clock)
		go warmer.Start(ctx)
		defer warmer.Stop()
	}

	e := router.New(router.Handlers{
		Booking: handler.NewBookingHandler(bookingService),
		Seat:    handler.NewSeatHandler(seatService),
		Health: handler.NewHealthHandler(map[string]handler.Checker{
			"postgres": func(ctx context.Context) error { return postgres.Ping(ctx, db) },
			"redis":    func(ctx context.Context) error { return redisinfra.Ping(ctx, rc) },
		}),
	}, router.Options{
		Metrics:         m,
		Gatherer:        prometheus.DefaultGatherer,
		MetricsUser:     cfg.Metrics.User,
		MetricsPassword: cfg.Metrics.Password,
		RateLimitRPS:    cfg.RateLimit.RPS,
		RateLimitBurst:  cfg.RateLimit.Burst,
	})
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	errCh := make(chan error, 1)
	go func() {
		logger.Info("サーバーを起動します", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("サーバー起動エラー: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("サーバーをシャットダウンしています...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーシャットダウンエラー: %w", err)
	}
	return nil
}

// newPublisher は設定されたブローカーのイベント発行者を返す（none なら nil）
func newPublisher(cfg config.EventConfig) (publisher, error) {
	switch cfg.Broker {
	case "", config.BrokerNone:
		return nil, nil
	case config.BrokerRabbitMQ:
		p, err := rabbitmq.Dial(cfg.RabbitMQURL, cfg.RabbitMQQueue)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.BrokerKafka:
		p, err := kafka.Dial(cfg.KafkaBrokers, cfg.KafkaTopicPrefix)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("未対応のイベントブローカーです: %q", cfg.Broker)
	}
}
