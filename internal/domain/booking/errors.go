package booking

import "errors"

// Booking ドメインのエラー定義
var (
	ErrBookingNotFound     = errors.New("予約が見つかりません")
	ErrSeatTaken           = errors.New("座席は既に予約されています")
	ErrDailyLimitExceeded  = errors.New("この日付には既に予約があります")
	ErrForbidden           = errors.New("この予約を操作する権限がありません")
	ErrAlreadyCancelled    = errors.New("予約は既にキャンセルされています")
	ErrSeatIDRequired      = errors.New("座席IDは必須です")
	ErrUserIDRequired      = errors.New("ユーザーIDは必須です")
	ErrDateRequired        = errors.New("予約日は必須です")
	ErrDateInPast          = errors.New("過去の日付は予約できません")
	ErrDateTooFarInAdvance = errors.New("予約可能な期間を超えています")
)
