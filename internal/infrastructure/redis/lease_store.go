package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-seat-booking/internal/lock"
)

// 所有者確認と操作を Lua スクリプトでアトミックに実行する
var (
	compareAndDeleteScript = redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`)

	compareAndExpireScript = redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("PEXPIRE", KEYS[1], ARGV[2])
		else
			return 0
		end
	`)
)

// LeaseStore は Redis 上の lock.Store 実装
type LeaseStore struct {
	client redis.UniversalClient
}

func NewLeaseStore(client redis.UniversalClient) *LeaseStore {
	return &LeaseStore{client: client}
}

// SetNX はキーが存在しない場合のみ値を設定する（SET NX PX）
func (s *LeaseStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	return ok, nil
}

func (s *LeaseStore) CompareAndDelete(ctx context.Context, key, value string) (bool, error) {
	n, err := compareAndDeleteScript.Run(ctx, s.client, []string{key}, value).Int()
	if err != nil {
		return false, fmt.Errorf("ロック解放に失敗: %w", err)
	}
	return n == 1, nil
}

func (s *LeaseStore) CompareAndExpire(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	n, err := compareAndExpireScript.Run(ctx, s.client, []string{key}, value, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("ロック延長に失敗: %w", err)
	}
	return n == 1, nil
}

var _ lock.Store = (*LeaseStore)(nil)
