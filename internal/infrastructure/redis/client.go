package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-seat-booking/internal/config"
)

// NewClient はリースとキャッシュで共有するクライアントを作成する
// 応答が遅いときは待たずにエラーにし、ロック側で ErrUnavailable として扱う
func NewClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
		PoolSize:     cfg.PoolSize,
	})
}

// Ping はレディネスチェック用に Redis への疎通を確認する
func Ping(ctx context.Context, client redis.UniversalClient) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redisに到達できません: %w", err)
	}
	return nil
}
