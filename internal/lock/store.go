package lock

import (
	"context"
	"time"
)

// Store はリース管理に必要な条件付きアトミック操作を提供する共有KVストア
// Redis 実装とテスト用のインメモリ実装がある
type Store interface {
	// SetNX はキーが存在しない（または期限切れ）場合のみ値を有効期限付きで設定する
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// CompareAndDelete は現在値が value と一致する場合のみキーを削除する
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)

	// CompareAndExpire は現在値が value と一致する場合のみ有効期限を再設定する
	CompareAndExpire(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
}
