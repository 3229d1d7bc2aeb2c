package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/calendar"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
)

const defaultListLimit = 100

type bookingRow struct {
	ID          string        `db:"id"`
	SeatID      string        `db:"seat_id"`
	UserID      string        `db:"user_id"`
	BookingDate calendar.Date `db:"booking_date"`
	Status      string        `db:"status"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
	CancelledAt *time.Time    `db:"cancelled_at"`
}

func (r *bookingRow) toEntity() *booking.Booking {
	return &booking.Booking{
		ID: r.ID, SeatID: r.SeatID, UserID: r.UserID, Date: r.BookingDate,
		Status: booking.Status(r.Status), CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
		CancelledAt: r.CancelledAt,
	}
}

const bookingColumns = `id, seat_id, user_id, booking_date, status, created_at, updated_at, cancelled_at`

type BookingRepository struct{ db *sqlx.DB }

func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) IsSeatBooked(ctx context.Context, tx transaction.Tx, seatID string, date calendar.Date) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM bookings WHERE seat_id = $1 AND booking_date = $2 AND status = 'active')`
	if err := conn(r.db, tx).GetContext(ctx, &exists, query, seatID, date); err != nil {
		return false, fmt.Errorf("座席の予約状況の確認に失敗: %w", err)
	}
	return exists, nil
}

func (r *BookingRepository) HasActiveBooking(ctx context.Context, tx transaction.Tx, userID string, date calendar.Date) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM bookings WHERE user_id = $1 AND booking_date = $2 AND status = 'active')`
	if err := conn(r.db, tx).GetContext(ctx, &exists, query, userID, date); err != nil {
		return false, fmt.Errorf("ユーザーの予約状況の確認に失敗: %w", err)
	}
	return exists, nil
}

func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	query := `INSERT INTO bookings (id, seat_id, user_id, booking_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := conn(r.db, tx).ExecContext(ctx, query,
		b.ID, b.SeatID, b.UserID, b.Date, string(b.Status), b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return mapCreateError(err)
	}
	return nil
}

// mapCreateError は制約違反をドメインエラーに変換する
func mapCreateError(err error) error {
	pgErr, ok := pqError(err)
	if !ok {
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		switch pgErr.Constraint {
		case constraintActiveSeatDate:
			return booking.ErrSeatTaken
		case constraintActiveUserDate:
			return booking.ErrDailyLimitExceeded
		}
	case codeForeignKeyViolation:
		return seat.ErrSeatNotFound
	}
	return fmt.Errorf("予約作成に失敗: %w", err)
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	var row bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		if pgErr, ok := pqError(err); ok && pgErr.Code.Name() == "invalid_text_representation" {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID string, from calendar.Date, limit, offset int) ([]*booking.Booking, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE user_id = $1 AND status = 'active' AND booking_date >= $2
		ORDER BY booking_date, created_at
		LIMIT $3 OFFSET $4`
	var rows []bookingRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, from, limit, offset); err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗: %w", err)
	}
	bookings := make([]*booking.Booking, len(rows))
	for i := range rows {
		bookings[i] = rows[i].toEntity()
	}
	return bookings, nil
}

// UpdateStatus は有効な予約のみを更新する（所有者も条件に含める）
func (r *BookingRepository) UpdateStatus(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	query := `UPDATE bookings SET status = $1, cancelled_at = $2, updated_at = $3
		WHERE id = $4 AND user_id = $5 AND status = 'active'`
	result, err := conn(r.db, tx).ExecContext(ctx, query,
		string(b.Status), b.CancelledAt, b.UpdatedAt, b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("予約更新に失敗: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("予約更新に失敗: %w", err)
	}
	if rows == 0 {
		return booking.ErrAlreadyCancelled
	}
	return nil
}

var _ booking.Repository = (*BookingRepository)(nil)
