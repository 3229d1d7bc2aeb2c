package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
)

const scanBatchSize = 100

// SeatCache は日付ごとの空席一覧をキャッシュする
type SeatCache struct {
	client redis.UniversalClient
}

// NewSeatCache は新しいSeatCacheインスタンスを作成する
func NewSeatCache(client redis.UniversalClient) *SeatCache {
	return &SeatCache{client: client}
}

// Get は空席一覧をキャッシュから取得する
func (c *SeatCache) Get(ctx context.Context, key string) ([]*seat.Seat, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, seat.ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	var seats []*seat.Seat
	if err := json.Unmarshal(raw, &seats); err != nil {
		return nil, fmt.Errorf("キャッシュの復元に失敗: %w", err)
	}
	return seats, nil
}

// setIfGenerationScript は世代キー（未作成は 0）が ARGV[1] と一致するときだけ保存する
var setIfGenerationScript = redis.NewScript(`
if (redis.call("GET", KEYS[2]) or "0") ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
else
	redis.call("SET", KEYS[1], ARGV[2])
end
return 1
`)

// Generation は世代キーの現在値を返す
func (c *SeatCache) Generation(ctx context.Context, genKey string) (int64, error) {
	n, err := c.client.Get(ctx, genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("キャッシュ世代の取得に失敗: %w", err)
	}
	return n, nil
}

// SetIfGeneration は世代の比較と保存を1回のスクリプトで行う
func (c *SeatCache) SetIfGeneration(ctx context.Context, key, genKey string, gen int64, seats []*seat.Seat, ttl time.Duration) (bool, error) {
	if seats == nil {
		seats = []*seat.Seat{}
	}
	b, err := json.Marshal(seats)
	if err != nil {
		return false, fmt.Errorf("キャッシュのエンコードに失敗: %w", err)
	}
	stored, err := setIfGenerationScript.Run(ctx, c.client,
		[]string{key, genKey},
		strconv.FormatInt(gen, 10), b, ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return stored == 1, nil
}

// BumpGeneration は INCR で世代を進める
func (c *SeatCache) BumpGeneration(ctx context.Context, genKey string) error {
	if err := c.client.Incr(ctx, genKey).Err(); err != nil {
		return fmt.Errorf("キャッシュ世代の更新に失敗: %w", err)
	}
	return nil
}

// Invalidate は指定キーのキャッシュを無効化する
func (c *SeatCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

// InvalidatePrefix は prefix で始まるキーを SCAN して削除する
func (c *SeatCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", scanBatchSize).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("キャッシュキーの走査に失敗: %w", err)
	}
	return c.Invalidate(ctx, keys...)
}

var _ seat.AvailabilityCache = (*SeatCache)(nil)
