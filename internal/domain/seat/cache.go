package seat

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("キャッシュが見つかりません")

// AvailabilityCache は空席一覧のキャッシュ
// 台帳から導出した使い捨ての射影で、予約の競合判定には使わない
//
// 書き込みは世代キー（日付ごとのカウンタ）で守る。照会側は台帳を読む前に世代を取得し、
// 保存時に世代が変わっていなければ書き込む。無効化は世代を進めてからキーを削除するため、
// 確定前に読んだ一覧が確定後のキャッシュに残ることはない。
type AvailabilityCache interface {
	// Get はキャッシュ済みの空席一覧を返す。存在しなければ ErrCacheMiss
	Get(ctx context.Context, key string) ([]*Seat, error)

	// Generation は世代キーの現在値を返す（未作成なら 0）
	Generation(ctx context.Context, genKey string) (int64, error)

	// SetIfGeneration は世代キーが gen のままなら空席一覧を保存して true を返す
	SetIfGeneration(ctx context.Context, key, genKey string, gen int64, seats []*Seat, ttl time.Duration) (bool, error)

	// BumpGeneration は世代を進め、それ以前に取得した世代での保存を失敗させる
	BumpGeneration(ctx context.Context, genKey string) error

	// Invalidate は指定キーを削除する
	Invalidate(ctx context.Context, keys ...string) error

	// InvalidatePrefix は prefix で始まるキーをすべて削除する
	InvalidatePrefix(ctx context.Context, prefix string) error
}
