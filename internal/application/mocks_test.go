package application

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/calendar"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-seat-booking/internal/lock"
)

// === Mock implementations ===

// MockTxManager implements transaction.Manager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// MockTx implements transaction.Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockBookingRepository implements booking.Repository
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) IsSeatBooked(ctx context.Context, tx transaction.Tx, seatID string, date calendar.Date) (bool, error) {
	args := m.Called(ctx, tx, seatID, date)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) HasActiveBooking(ctx context.Context, tx transaction.Tx, userID string, date calendar.Date) (bool, error) {
	args := m.Called(ctx, tx, userID, date)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	args := m.Called(ctx, tx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID string, from calendar.Date, limit, offset int) ([]*booking.Booking, error) {
	args := m.Called(ctx, userID, from, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	args := m.Called(ctx, tx, b)
	return args.Error(0)
}

// MockSeatRepository implements seat.Repository
type MockSeatRepository struct {
	mock.Mock
}

func (m *MockSeatRepository) CreateBulk(ctx context.Context, seats []*seat.Seat) error {
	args := m.Called(ctx, seats)
	return args.Error(0)
}

func (m *MockSeatRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockSeatRepository) GetByID(ctx context.Context, id string) (*seat.Seat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seat.Seat), args.Error(1)
}

func (m *MockSeatRepository) List(ctx context.Context, section string) ([]*seat.Seat, error) {
	args := m.Called(ctx, section)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

func (m *MockSeatRepository) ListAvailable(ctx context.Context, date calendar.Date, section string) ([]*seat.Seat, error) {
	args := m.Called(ctx, date, section)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

// MockAvailabilityCache implements seat.AvailabilityCache
type MockAvailabilityCache struct {
	mock.Mock
}

func (m *MockAvailabilityCache) Get(ctx context.Context, key string) ([]*seat.Seat, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

func (m *MockAvailabilityCache) Generation(ctx context.Context, genKey string) (int64, error) {
	args := m.Called(ctx, genKey)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAvailabilityCache) SetIfGeneration(ctx context.Context, key, genKey string, gen int64, seats []*seat.Seat, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, genKey, gen, seats, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockAvailabilityCache) BumpGeneration(ctx context.Context, genKey string) error {
	args := m.Called(ctx, genKey)
	return args.Error(0)
}

func (m *MockAvailabilityCache) Invalidate(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockAvailabilityCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)
	return args.Error(0)
}

// MockLockCoordinator implements LockCoordinator
type MockLockCoordinator struct {
	mock.Mock
}

func (m *MockLockCoordinator) Acquire(ctx context.Context, resource string, ttl time.Duration) (*lock.Lease, error) {
	args := m.Called(ctx, resource, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lock.Lease), args.Error(1)
}

func (m *MockLockCoordinator) Release(ctx context.Context, lease *lock.Lease) (lock.ReleaseStatus, error) {
	args := m.Called(ctx, lease)
	return args.Get(0).(lock.ReleaseStatus), args.Error(1)
}

func (m *MockLockCoordinator) Extend(ctx context.Context, lease *lock.Lease, ttl time.Duration) error {
	args := m.Called(ctx, lease, ttl)
	return args.Error(0)
}

// MockInvalidator implements AvailabilityInvalidator
type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) InvalidateAvailability(ctx context.Context, date calendar.Date) {
	m.Called(ctx, date)
}

// MockPublisher implements EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Name() string { return "mock" }

func (m *MockPublisher) Publish(ctx context.Context, ev booking.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}
