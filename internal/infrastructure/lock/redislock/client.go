package redislock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"room-ledger/internal/infrastructure/config"
)

// Connect Redisに接続し、Pingで疎通を確認する
func Connect(ctx context.Context, cfg *config.RedisConfig) (redis.UniversalClient, error) {
	opts := &redis.Options{
		Addr:         cfg.Address(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  1 * time.Second,
		ReadTimeout:  400 * time.Millisecond,
		WriteTimeout: 400 * time.Millisecond,
		PoolSize:     20,
		MinIdleConns: 2,
		PoolTimeout:  750 * time.Millisecond,
		MaxRetries:   1,

		OnConnect: func(ctx context.Context, cn *redis.Conn) error {
			_ = cn.ClientSetName(ctx, "room-ledger").Err()
			return nil
		},
	}

	rdb := redis.NewClient(opts)

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return rdb, nil
}
