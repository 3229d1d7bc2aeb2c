package application

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/calendar"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-seat-booking/internal/lock"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// BookingPolicy は予約受付の条件
type BookingPolicy struct {
	LockTTL        time.Duration
	MaxAdvanceDays int
	Location       *time.Location
}

// DefaultBookingPolicy はリース10秒・90日先まで・UTC
func DefaultBookingPolicy() BookingPolicy {
	return BookingPolicy{LockTTL: 10 * time.Second, MaxAdvanceDays: 90, Location: time.UTC}
}

type BookingOption func(*BookingService)

// WithPublisher は予約イベントの発行先を設定する
func WithPublisher(p EventPublisher) BookingOption {
	return func(s *BookingService) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) BookingOption {
	return func(s *BookingService) { s.metrics = m }
}

func WithClock(c clockwork.Clock) BookingOption {
	return func(s *BookingService) { s.clock = c }
}

// BookingService は座席予約の確定と取り消しを行う
type BookingService struct {
	txManager   transaction.Manager
	bookingRepo booking.Repository
	seatRepo    seat.Repository
	locks       LockCoordinator
	invalidator AvailabilityInvalidator
	policy      BookingPolicy
	publisher   EventPublisher
	metrics     *metrics.Metrics
	clock       clockwork.Clock
}

func NewBookingService(
	txm transaction.Manager,
	br booking.Repository,
	sr seat.Repository,
	locks LockCoordinator,
	invalidator AvailabilityInvalidator,
	policy BookingPolicy,
	opts ...BookingOption,
) *BookingService {
	if policy.LockTTL <= 0 {
		policy.LockTTL = DefaultBookingPolicy().LockTTL
	}
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	s := &BookingService{
		txManager:   txm,
		bookingRepo: br,
		seatRepo:    sr,
		locks:       locks,
		invalidator: invalidator,
		policy:      policy,
		clock:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BookSeatInput は予約リクエスト（Date がゼロなら今日）
type BookSeatInput struct {
	UserID string
	SeatID string
	Date   calendar.Date
}

// Book は座席を予約する
//
// 座席・日付のリースを保持した状態で、台帳トランザクション内の重複確認と作成を行う。
// リースを取得できなければ待たずに lock.ErrBusy を返す。
func (s *BookingService) Book(ctx context.Context, input BookSeatInput) (b *booking.Booking, err error) {
	defer func() { s.record("book", err) }()

	if input.UserID == "" {
		return nil, booking.ErrUserIDRequired
	}
	if input.SeatID == "" {
		return nil, booking.ErrSeatIDRequired
	}
	date, err := s.resolveDate(input.Date)
	if err != nil {
		return nil, err
	}
	if _, err := s.seatRepo.GetByID(ctx, input.SeatID); err != nil {
		return nil, err
	}

	// 1日1件の制限はロック不要で先に判定できる
	has, err := s.bookingRepo.HasActiveBooking(ctx, nil, input.UserID, date)
	if err != nil {
		return nil, err
	}
	if has {
		return nil, booking.ErrDailyLimitExceeded
	}

	b, err = s.bookLocked(ctx, input.UserID, input.SeatID, date)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("予約を確定しました",
		zap.String("booking_id", b.ID),
		zap.String("seat_id", b.SeatID),
		zap.String("user_id", b.UserID),
		zap.Stringer("date", b.Date),
	)
	s.publish(ctx, booking.EventCommitted, b)
	return b, nil
}

// bookLocked はリースの取得から解放までを担う
func (s *BookingService) bookLocked(ctx context.Context, userID, seatID string, date calendar.Date) (*booking.Booking, error) {
	lease, err := s.locks.Acquire(ctx, SeatLockResource(seatID, date), s.policy.LockTTL)
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, lease)

	b := booking.NewBooking(seatID, userID, date, s.clock.Now())
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		booked, err := s.bookingRepo.IsSeatBooked(ctx, tx, seatID, date)
		if err != nil {
			return err
		}
		if booked {
			return booking.ErrSeatTaken
		}

		has, err := s.bookingRepo.HasActiveBooking(ctx, tx, userID, date)
		if err != nil {
			return err
		}
		if has {
			return booking.ErrDailyLimitExceeded
		}

		if err := s.bookingRepo.Create(ctx, tx, b); err != nil {
			return err
		}

		// コミット直前に所有権を確認する
		return s.locks.Extend(ctx, lease, s.policy.LockTTL)
	})
	if err != nil {
		return nil, err
	}

	s.invalidator.InvalidateAvailability(context.WithoutCancel(ctx), date)
	return b, nil
}

func (s *BookingService) release(ctx context.Context, lease *lock.Lease) {
	status, err := s.locks.Release(context.WithoutCancel(ctx), lease)
	log := logger.FromContext(ctx)
	if err != nil {
		log.Warn("ロック解放に失敗", zap.String("key", lease.Key), zap.Error(err))
		return
	}
	if status == lock.AlreadyExpired {
		log.Warn("ロックは解放前に失効していました", zap.String("key", lease.Key))
	}
}

// Cancel は予約者本人の予約を取り消す（ロックは取らない）
func (s *BookingService) Cancel(ctx context.Context, bookingID, userID string) (b *booking.Booking, err error) {
	defer func() { s.record("cancel", err) }()

	b, err = s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := b.Cancel(userID, s.clock.Now()); err != nil {
		return nil, err
	}

	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		return s.bookingRepo.UpdateStatus(ctx, tx, b)
	})
	if err != nil {
		return nil, err
	}

	s.invalidator.InvalidateAvailability(context.WithoutCancel(ctx), b.Date)
	logger.FromContext(ctx).Info("予約を取り消しました",
		zap.String("booking_id", b.ID),
		zap.String("user_id", b.UserID),
		zap.Stringer("date", b.Date),
	)
	s.publish(ctx, booking.EventCancelled, b)
	return b, nil
}

// GetBooking は予約者本人の予約を返す
func (s *BookingService) GetBooking(ctx context.Context, bookingID, userID string) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsOwnedBy(userID) {
		return nil, booking.ErrForbidden
	}
	return b, nil
}

// ListBookingsInput はユーザーの予約一覧の条件（From がゼロなら今日）
type ListBookingsInput struct {
	UserID string
	From   calendar.Date
	Limit  int
	Offset int
}

func (s *BookingService) ListUserBookings(ctx context.Context, input ListBookingsInput) ([]*booking.Booking, error) {
	if input.UserID == "" {
		return nil, booking.ErrUserIDRequired
	}
	from := input.From
	if from.IsZero() {
		from = s.today()
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}
	return s.bookingRepo.ListByUser(ctx, input.UserID, from, limit, offset)
}

func (s *BookingService) today() calendar.Date {
	return calendar.Today(s.clock.Now(), s.policy.Location)
}

// resolveDate は予約日を決定し、受付範囲（今日から MaxAdvanceDays 日後まで）を検証する
func (s *BookingService) resolveDate(d calendar.Date) (calendar.Date, error) {
	today := s.today()
	if d.IsZero() {
		return today, nil
	}
	if d.Before(today) {
		return calendar.Date{}, booking.ErrDateInPast
	}
	if s.policy.MaxAdvanceDays > 0 && d.After(today.AddDays(s.policy.MaxAdvanceDays)) {
		return calendar.Date{}, booking.ErrDateTooFarInAdvance
	}
	return d, nil
}

func (s *BookingService) publish(ctx context.Context, t booking.EventType, b *booking.Booking) {
	if s.publisher == nil {
		return
	}
	ev := booking.NewEvent(t, b, s.clock.Now())
	if err := s.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		logger.FromContext(ctx).Warn("予約イベントの発行に失敗",
			zap.String("type", string(t)),
			zap.String("booking_id", b.ID),
			zap.String("broker", s.publisher.Name()),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.EventPublishFailures.WithLabelValues(s.publisher.Name()).Inc()
		}
	}
}

func (s *BookingService) record(operation string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.BookingsTotal.WithLabelValues(operation, Outcome(err)).Inc()
}

// Outcome は結果をメトリクス用のラベルに分類する
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, booking.ErrSeatTaken):
		return "seat_taken"
	case errors.Is(err, booking.ErrDailyLimitExceeded):
		return "limit_exceeded"
	case errors.Is(err, lock.ErrBusy):
		return "lock_busy"
	case errors.Is(err, lock.ErrUnavailable):
		return "lock_unavailable"
	case errors.Is(err, lock.ErrLeaseLost):
		return "lock_lost"
	case errors.Is(err, booking.ErrForbidden):
		return "forbidden"
	case errors.Is(err, booking.ErrAlreadyCancelled):
		return "already_cancelled"
	case errors.Is(err, booking.ErrBookingNotFound), errors.Is(err, seat.ErrSeatNotFound):
		return "not_found"
	case isValidationError(err):
		return "invalid"
	default:
		return "error"
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		booking.ErrUserIDRequired,
		booking.ErrSeatIDRequired,
		booking.ErrDateRequired,
		booking.ErrDateInPast,
		booking.ErrDateTooFarInAdvance,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

