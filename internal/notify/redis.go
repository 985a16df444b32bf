package notify

import (
	"context"
	"fmt"
	"time"

	"netloc/internal/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the part of the Redis client the reporter uses
type RedisClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Redis publishes the payload on a channel and optionally stores the
// current address under a key
type Redis struct {
	config *config.RedisConfig
	client RedisClient
}

// NewRedis creates new Redis reporter
func NewRedis(cfg *config.RedisConfig, client RedisClient) (*Redis, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if cfg.Channel == "" && cfg.Key == "" {
		return nil, fmt.Errorf("redis channel or key is required")
	}
	return &Redis{config: cfg, client: client}, nil
}

// Name returns the reporter name
func (n *Redis) Name() string { return "redis" }

// Report publishes the change
func (n *Redis) Report(ctx context.Context, p *Payload) error {
	if n.config.Key != "" {
		if err := n.client.Set(ctx, n.config.Key, p.IP, 0).Err(); err != nil {
			return fmt.Errorf("redis set %s failed: %w", n.config.Key, err)
		}
	}

	if n.config.Channel == "" {
		return nil
	}

	data, err := p.JSON()
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	if err := n.client.Publish(ctx, n.config.Channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish to %s failed: %w", n.config.Channel, err)
	}
	return nil
}
