package connection

import (
	"context"
	"fmt"
	"time"

	"netloc/internal/config"

	"github.com/redis/go-redis/v9"
)

// newRedis creates new Redis client
func newRedis(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	if cfg == nil || cfg.Addr == "" {
		return nil, fmt.Errorf("redis configuration is nil or empty")
	}

	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}

	rc := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		DialTimeout:  dialTimeout,
		PoolSize:     2,
	})

	timeout, cancelFunc := context.WithTimeout(ctx, dialTimeout)
	defer cancelFunc()
	if err := rc.Ping(timeout).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("redis connect error: %w", err)
	}

	return rc, nil
}
