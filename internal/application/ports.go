package application

import (
	"context"
	"time"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/calendar"
	"github.com/sanosuguru/go-seat-booking/internal/lock"
)

// LockCoordinator は座席・日付単位の排他リースを発行する
type LockCoordinator interface {
	Acquire(ctx context.Context, resource string, ttl time.Duration) (*lock.Lease, error)
	Release(ctx context.Context, lease *lock.Lease) (lock.ReleaseStatus, error)
	Extend(ctx context.Context, lease *lock.Lease, ttl time.Duration) error
}

// EventPublisher は予約イベントを外部へ通知する
type EventPublisher interface {
	Name() string
	Publish(ctx context.Context, ev booking.Event) error
}

// AvailabilityInvalidator は日付単位で空席キャッシュを無効化する
type AvailabilityInvalidator interface {
	InvalidateAvailability(ctx context.Context, date calendar.Date)
}

var _ LockCoordinator = (*lock.Coordinator)(nil)
