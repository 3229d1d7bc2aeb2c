package postgres

import (
	"errors"

	"github.com/lib/pq"
)

// PostgreSQL のエラーコード
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// 一意制約名（migrations/000001 で定義）
const (
	constraintActiveSeatDate = "bookings_active_seat_date_key"
	constraintActiveUserDate = "bookings_active_user_date_key"
)

func pqError(err error) (*pq.Error, bool) {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
