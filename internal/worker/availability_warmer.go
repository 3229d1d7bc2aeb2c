package worker

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
)

// AvailabilityRefresher は空席キャッシュを作り直す
type AvailabilityRefresher interface {
	WarmAvailability(ctx context.Context, days int) error
}

// AvailabilityWarmer は定期的に直近の空席キャッシュを作り直すワーカー
type AvailabilityWarmer struct {
	seatService AvailabilityRefresher
	interval    time.Duration
	days        int
	clock       clockwork.Clock
	stopOnce    sync.Once
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewAvailabilityWarmer は新しいワーカーを作成
func NewAvailabilityWarmer(s AvailabilityRefresher, interval time.Duration, days int, clock clockwork.Clock) *AvailabilityWarmer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if days <= 0 {
		days = 1
	}
	return &AvailabilityWarmer{
		seatService: s,
		interval:    interval,
		days:        days,
		clock:       clock,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start はワーカーを開始し、停止するまでブロックする
// 開始直後に1回作り直してから interval ごとに繰り返す
func (w *AvailabilityWarmer) Start(ctx context.Context) {
	defer close(w.doneCh)

	logger.Info("空席キャッシュウォーマー開始",
		zap.Duration("interval", w.interval),
		zap.Int("days", w.days),
	)

	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	w.warm(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("空席キャッシュウォーマー停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			logger.Info("空席キャッシュウォーマー停止（シグナル受信）")
			return
		case <-ticker.Chan():
			w.warm(ctx)
		}
	}
}

// Stop はワーカーを停止し、終了を待つ
func (w *AvailabilityWarmer) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.doneCh
}

func (w *AvailabilityWarmer) warm(ctx context.Context) {
	log := logger.Get()
	start := w.clock.Now()

	if err := w.seatService.WarmAvailability(ctx, w.days); err != nil {
		log.Warn("空席キャッシュの作り直しに失敗", zap.Error(err))
		return
	}
	log.Debug("空席キャッシュを作り直しました", zap.Duration("elapsed", w.clock.Since(start)))
}
