package booking

import (
	"time"

	"github.com/sanosuguru/go-seat-booking/internal/domain/calendar"
)

// EventType は予約イベントの種別
type EventType string

const (
	EventCommitted EventType = "booking.committed"
	EventCancelled EventType = "booking.cancelled"
)

// Event は外部へ通知する予約イベント
type Event struct {
	Type       EventType     `json:"type"`
	BookingID  string        `json:"booking_id"`
	SeatID     string        `json:"seat_id"`
	UserID     string        `json:"user_id"`
	Date       calendar.Date `json:"booking_date"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewEvent は予約の現在の状態からイベントを作成する
func NewEvent(t EventType, b *Booking, at time.Time) Event {
	return Event{
		Type:       t,
		BookingID:  b.ID,
		SeatID:     b.SeatID,
		UserID:     b.UserID,
		Date:       b.Date,
		OccurredAt: at,
	}
}
