package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
)

const keyPrefix = "lock:"

// Lease は取得済みのリースを表す
// Token はフェンシングトークンで、解放・延長時の所有者確認に使う
type Lease struct {
	Key        string
	Token      string
	TTL        time.Duration
	AcquiredAt time.Time
}

// ReleaseStatus は解放結果を表す
type ReleaseStatus int

const (
	// Released は自分のリースを解放した
	Released ReleaseStatus = iota + 1
	// AlreadyExpired はリースが既に失効していた（他の保持者がいても触らない）
	AlreadyExpired
)

func (s ReleaseStatus) String() string {
	switch s {
	case Released:
		return "released"
	case AlreadyExpired:
		return "already_expired"
	default:
		return "unknown"
	}
}

// Coordinator は資源単位の短期リースを発行する
// 取得は待たずに即座に成否を返す
type Coordinator struct {
	store   Store
	clock   clockwork.Clock
	metrics *metrics.Metrics
}

type Option func(*Coordinator)

func WithClock(c clockwork.Clock) Option {
	return func(co *Coordinator) { co.clock = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(co *Coordinator) { co.metrics = m }
}

func NewCoordinator(store Store, opts ...Option) *Coordinator {
	c := &Coordinator{store: store, clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Acquire は resource のリースを取得する
// 保持者がいれば ErrBusy、ストア障害なら ErrUnavailable を返す
func (c *Coordinator) Acquire(ctx context.Context, resource string, ttl time.Duration) (*Lease, error) {
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	start := c.clock.Now()
	key := keyPrefix + resource
	token := uuid.NewString()

	ok, err := c.store.SetNX(ctx, key, token, ttl)
	if err != nil {
		c.observe("acquire", "unavailable", start)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if !ok {
		c.observe("acquire", "busy", start)
		return nil, ErrBusy
	}
	c.observe("acquire", "success", start)

	return &Lease{Key: key, Token: token, TTL: ttl, AcquiredAt: start}, nil
}

// Release はトークンが一致する場合のみリースを解放する
// 既に失効していた場合も成功扱いで AlreadyExpired を返す
func (c *Coordinator) Release(ctx context.Context, lease *Lease) (ReleaseStatus, error) {
	if lease == nil {
		return AlreadyExpired, nil
	}
	start := c.clock.Now()

	ok, err := c.store.CompareAndDelete(ctx, lease.Key, lease.Token)
	if err != nil {
		c.observe("release", "unavailable", start)
		return 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if !ok {
		c.observe("release", AlreadyExpired.String(), start)
		return AlreadyExpired, nil
	}
	c.observe("release", Released.String(), start)
	return Released, nil
}

// Extend は所有中のリースの期限を ttl に再設定する
func (c *Coordinator) Extend(ctx context.Context, lease *Lease, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	if lease == nil {
		return ErrLeaseLost
	}
	start := c.clock.Now()

	ok, err := c.store.CompareAndExpire(ctx, lease.Key, lease.Token, ttl)
	if err != nil {
		c.observe("extend", "unavailable", start)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if !ok {
		c.observe("extend", "lost", start)
		return ErrLeaseLost
	}
	c.observe("extend", "success", start)
	lease.TTL = ttl
	return nil
}

func (c *Coordinator) observe(operation, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.DistributedLockDuration.
		WithLabelValues(operation, status).
		Observe(c.clock.Since(start).Seconds())
}
