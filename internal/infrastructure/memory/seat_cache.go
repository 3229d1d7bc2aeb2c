package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
)

// SeatCache は Store 上に構築した空席キャッシュ
// エンコードは Redis 実装と同じ JSON
type SeatCache struct {
	store *Store
}

func NewSeatCache(store *Store) *SeatCache {
	return &SeatCache{store: store}
}

func (c *SeatCache) Get(ctx context.Context, key string) ([]*seat.Seat, error) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	if !ok {
		return nil, seat.ErrCacheMiss
	}
	var seats []*seat.Seat
	if err := json.Unmarshal([]byte(raw), &seats); err != nil {
		return nil, fmt.Errorf("キャッシュの復元に失敗: %w", err)
	}
	return seats, nil
}

func (c *SeatCache) Generation(ctx context.Context, genKey string) (int64, error) {
	return c.store.Counter(ctx, genKey)
}

// SetIfGeneration は世代の比較と保存を Store のロック内で行う
func (c *SeatCache) SetIfGeneration(ctx context.Context, key, genKey string, gen int64, seats []*seat.Seat, ttl time.Duration) (bool, error) {
	b, err := encodeSeats(seats)
	if err != nil {
		return false, err
	}
	return c.store.SetIfCounter(ctx, key, string(b), ttl, genKey, gen)
}

func (c *SeatCache) BumpGeneration(ctx context.Context, genKey string) error {
	_, err := c.store.Incr(ctx, genKey)
	return err
}

func (c *SeatCache) Invalidate(ctx context.Context, keys ...string) error {
	return c.store.Delete(ctx, keys...)
}

func (c *SeatCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	_, err := c.store.DeletePrefix(ctx, prefix)
	return err
}

func encodeSeats(seats []*seat.Seat) ([]byte, error) {
	if seats == nil {
		seats = []*seat.Seat{}
	}
	b, err := json.Marshal(seats)
	if err != nil {
		return nil, fmt.Errorf("キャッシュのエンコードに失敗: %w", err)
	}
	return b, nil
}

var _ seat.AvailabilityCache = (*SeatCache)(nil)
