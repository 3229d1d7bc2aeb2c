package seat

import (
	"context"

	"github.com/sanosuguru/go-seat-booking/internal/domain/calendar"
)

// Repository は座席リポジトリのインターフェース
type Repository interface {
	// CreateBulk は複数の座席を一括作成する
	CreateBulk(ctx context.Context, seats []*Seat) error

	// Count は登録済みの座席数を返す
	Count(ctx context.Context) (int, error)

	// GetByID はIDから座席を取得する
	GetByID(ctx context.Context, id string) (*Seat, error)

	// List は座席一覧を取得する（section が空なら全セクション）
	List(ctx context.Context, section string) ([]*Seat, error)

	// ListAvailable は指定日に有効な予約がない座席を取得する
	ListAvailable(ctx context.Context, date calendar.Date, section string) ([]*Seat, error)
}
