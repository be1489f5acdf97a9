package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter tuning parameters.
type Config struct {
	Enabled   bool
	MaxStarts int
	Window    time.Duration
	Prefix    string
}

// Limiter caps how often a user may start a challenge, using Redis
// fixed-window counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// AllowStart records a challenge start for userID and returns ErrRateLimited
// once the window budget is spent.
func (l *Limiter) AllowStart(ctx context.Context, userID string) error {
	if l == nil || !l.config.Enabled || l.redis == nil {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, l.startKey(userID), l.config.Window)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxStarts) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) startKey(userID string) string {
	return l.config.Prefix + ":" + userID
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
