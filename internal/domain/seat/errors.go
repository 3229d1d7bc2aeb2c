package seat

import "errors"

// Seat ドメインのエラー定義
var (
	ErrSeatNotFound      = errors.New("座席が見つかりません")
	ErrSectionRequired   = errors.New("セクションは必須です")
	ErrInvalidSeatNumber = errors.New("座席番号は1以上である必要があります")
	ErrEmptyLayout       = errors.New("座席配置が空です")
)
