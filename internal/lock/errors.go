package lock

import "errors"

var (
	// ErrBusy は他の保持者がリースを持っていることを表す（呼び出し側で再試行可能）
	ErrBusy = errors.New("座席は他のユーザーによって処理中です")

	// ErrUnavailable はストアに到達できないことを表す（フェイルクローズ）
	ErrUnavailable = errors.New("ロックサービスを利用できません")

	// ErrLeaseLost は保持していたリースが期限切れ、または他者に奪われたことを表す
	ErrLeaseLost = errors.New("ロックの所有権を失いました")

	ErrInvalidTTL = errors.New("リース期間は正の値である必要があります")
)
