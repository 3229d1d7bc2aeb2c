package booking

import (
	"context"

	"github.com/sanosuguru/go-seat-booking/internal/domain/calendar"
	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
)

// Repository は予約台帳のインターフェース
// tx が nil の場合はトランザクション外で実行する
type Repository interface {
	// IsSeatBooked は座席が指定日に有効な予約を持つかを返す
	IsSeatBooked(ctx context.Context, tx transaction.Tx, seatID string, date calendar.Date) (bool, error)

	// HasActiveBooking はユーザーが指定日に有効な予約を持つかを返す
	HasActiveBooking(ctx context.Context, tx transaction.Tx, userID string, date calendar.Date) (bool, error)

	// Create は予約を作成する
	// 一意制約違反は ErrSeatTaken / ErrDailyLimitExceeded に変換される
	Create(ctx context.Context, tx transaction.Tx, b *Booking) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Booking, error)

	// ListByUser はユーザーの有効な予約を from 以降の日付順で取得する
	ListByUser(ctx context.Context, userID string, from calendar.Date, limit, offset int) ([]*Booking, error)

	// UpdateStatus は有効な予約の状態を更新する
	// 対象が有効でなければ ErrAlreadyCancelled を返す
	UpdateStatus(ctx context.Context, tx transaction.Tx, b *Booking) error
}
