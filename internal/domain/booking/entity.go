package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/sanosuguru/go-seat-booking/internal/domain/calendar"
)

// Status は予約の状態を表す
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// Booking は1座席・1日分の予約を表す
// 物理削除はせず、キャンセル時は状態のみ変更する
type Booking struct {
	ID          string
	SeatID      string
	UserID      string
	Date        calendar.Date
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CancelledAt *time.Time
}

// NewBooking は有効状態の新しい予約を作成する
func NewBooking(seatID, userID string, date calendar.Date, now time.Time) *Booking {
	return &Booking{
		ID:        uuid.NewString(),
		SeatID:    seatID,
		UserID:    userID,
		Date:      date,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive は予約が有効かを返す
func (b *Booking) IsActive() bool {
	return b.Status == StatusActive
}

// IsOwnedBy は予約が指定ユーザーのものかを返す
func (b *Booking) IsOwnedBy(userID string) bool {
	return b.UserID == userID
}

// Cancel は予約者本人による取り消しを行う
func (b *Booking) Cancel(requestingUserID string, now time.Time) error {
	if !b.IsOwnedBy(requestingUserID) {
		return ErrForbidden
	}
	if b.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	b.Status = StatusCancelled
	b.CancelledAt = &now
	b.UpdatedAt = now
	return nil
}

// Validate は予約の検証を行う
func (b *Booking) Validate() error {
	if b.SeatID == "" {
		return ErrSeatIDRequired
	}
	if b.UserID == "" {
		return ErrUserIDRequired
	}
	if b.Date.IsZero() {
		return ErrDateRequired
	}
	return nil
}
