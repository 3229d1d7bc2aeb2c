package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/calendar"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
)

type seatDay struct {
	seatID string
	date   calendar.Date
}

type userDay struct {
	userID string
	date   calendar.Date
}

// Ledger は座席と予約のインメモリ台帳
// 有効な予約について (座席, 日付) と (ユーザー, 日付) の一意性をストレージ層として保証する
type Ledger struct {
	mu           sync.RWMutex
	seats        map[string]*seat.Seat
	bookings     map[string]*booking.Booking
	activeBySeat map[seatDay]string
	activeByUser map[userDay]string
}

func NewLedger() *Ledger {
	return &Ledger{
		seats:        make(map[string]*seat.Seat),
		bookings:     make(map[string]*booking.Booking),
		activeBySeat: make(map[seatDay]string),
		activeByUser: make(map[userDay]string),
	}
}

func (l *Ledger) Seats() *SeatRepository       { return &SeatRepository{l: l} }
func (l *Ledger) Bookings() *BookingRepository { return &BookingRepository{l: l} }
func (l *Ledger) TxManager() *TxManager        { return &TxManager{l: l} }

// TxManager は補償処理によるロールバックを行う簡易トランザクション
// 未コミットの書き込みは他の読み手からも見える
type TxManager struct{ l *Ledger }

func (m *TxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memTx{l: m.l}, nil
}

type memTx struct {
	l    *Ledger
	mu   sync.Mutex
	undo []func()
	done bool
}

func (t *memTx) record(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.undo = append(t.undo, fn)
}

func (t *memTx) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = true
	t.undo = nil
	return nil
}

// Rollback は t.mu を放してから Ledger.mu を取る（ロック順は Ledger.mu → t.mu）
func (t *memTx) Rollback() error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return nil
	}
	t.done = true
	undo := t.undo
	t.undo = nil
	t.mu.Unlock()

	t.l.mu.Lock()
	defer t.l.mu.Unlock()
	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
	return nil
}

func recordUndo(tx transaction.Tx, fn func()) {
	if mt, ok := tx.(*memTx); ok {
		mt.record(fn)
	}
}

// SeatRepository は seat.Repository のインメモリ実装
type SeatRepository struct{ l *Ledger }

func (r *SeatRepository) CreateBulk(ctx context.Context, seats []*seat.Seat) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	for _, s := range seats {
		cp := *s
		r.l.seats[s.ID] = &cp
	}
	return nil
}

func (r *SeatRepository) Count(ctx context.Context) (int, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	return len(r.l.seats), nil
}

func (r *SeatRepository) GetByID(ctx context.Context, id string) (*seat.Seat, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	s, ok := r.l.seats[id]
	if !ok {
		return nil, seat.ErrSeatNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *SeatRepository) List(ctx context.Context, section string) ([]*seat.Seat, error) {
	return r.list(section, func(*seat.Seat) bool { return true }), nil
}

func (r *SeatRepository) ListAvailable(ctx context.Context, date calendar.Date, section string) ([]*seat.Seat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.list(section, func(s *seat.Seat) bool {
		_, booked := r.l.activeBySeat[seatDay{seatID: s.ID, date: date}]
		return !booked
	}), nil
}

func (r *SeatRepository) list(section string, keep func(*seat.Seat) bool) []*seat.Seat {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()

	out := make([]*seat.Seat, 0, len(r.l.seats))
	for _, s := range r.l.seats {
		if section != "" && s.Section != section {
			continue
		}
		if !keep(s) {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Section != out[j].Section {
			return out[i].Section < out[j].Section
		}
		return out[i].Number < out[j].Number
	})
	return out
}

// BookingRepository は booking.Repository のインメモリ実装
type BookingRepository struct{ l *Ledger }

func (r *BookingRepository) IsSeatBooked(ctx context.Context, tx transaction.Tx, seatID string, date calendar.Date) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	_, ok := r.l.activeBySeat[seatDay{seatID: seatID, date: date}]
	return ok, nil
}

func (r *BookingRepository) HasActiveBooking(ctx context.Context, tx transaction.Tx, userID string, date calendar.Date) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	_, ok := r.l.activeByUser[userDay{userID: userID, date: date}]
	return ok, nil
}

func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	if _, ok := r.l.seats[b.SeatID]; !ok {
		return seat.ErrSeatNotFound
	}
	sk := seatDay{seatID: b.SeatID, date: b.Date}
	uk := userDay{userID: b.UserID, date: b.Date}
	if b.IsActive() {
		if _, ok := r.l.activeBySeat[sk]; ok {
			return booking.ErrSeatTaken
		}
		if _, ok := r.l.activeByUser[uk]; ok {
			return booking.ErrDailyLimitExceeded
		}
		r.l.activeBySeat[sk] = b.ID
		r.l.activeByUser[uk] = b.ID
	}
	cp := *b
	r.l.bookings[b.ID] = &cp

	id := b.ID
	active := b.IsActive()
	recordUndo(tx, func() {
		delete(r.l.bookings, id)
		if active {
			delete(r.l.activeBySeat, sk)
			delete(r.l.activeByUser, uk)
		}
	})
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	b, ok := r.l.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID string, from calendar.Date, limit, offset int) ([]*booking.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.l.mu.RLock()
	var out []*booking.Booking
	for _, b := range r.l.bookings {
		if b.UserID != userID || !b.IsActive() || b.Date.Before(from) {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	r.l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return []*booking.Booking{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	current, ok := r.l.bookings[b.ID]
	if !ok {
		return booking.ErrBookingNotFound
	}
	if !current.IsActive() || current.UserID != b.UserID {
		return booking.ErrAlreadyCancelled
	}
	prev := *current
	next := *b
	r.l.bookings[b.ID] = &next

	sk := seatDay{seatID: prev.SeatID, date: prev.Date}
	uk := userDay{userID: prev.UserID, date: prev.Date}
	if !next.IsActive() {
		delete(r.l.activeBySeat, sk)
		delete(r.l.activeByUser, uk)
	}
	recordUndo(tx, func() {
		restored := prev
		r.l.bookings[prev.ID] = &restored
		r.l.activeBySeat[sk] = prev.ID
		r.l.activeByUser[uk] = prev.ID
	})
	return nil
}

var (
	_ seat.Repository     = (*SeatRepository)(nil)
	_ booking.Repository  = (*BookingRepository)(nil)
	_ transaction.Manager = (*TxManager)(nil)
)
