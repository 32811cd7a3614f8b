package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/supply-portal/internal/domain/sharing"
	"github.com/redis/go-redis/v9"
)

// RedisAttemptLimiter implements VerifyAttemptLimiter using Redis.
// This is suitable for distributed deployments where multiple instances
// need to share the attempt counters.
type RedisAttemptLimiter struct {
	client      *redis.Client
	keyPrefix   string
	maxAttempts int
	window      time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisAttemptLimiter creates a Redis-backed verification throttle
func NewRedisAttemptLimiter(cfg RedisConfig, maxAttempts int, window time.Duration) (*RedisAttemptLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisAttemptLimiterWithClient(client, "", maxAttempts, window), nil
}

// NewRedisAttemptLimiterWithClient creates a limiter with an existing Redis
// client. This is useful for testing or when sharing a client across
// components.
func NewRedisAttemptLimiterWithClient(client *redis.Client, keyPrefix string, maxAttempts int, window time.Duration) *RedisAttemptLimiter {
	if keyPrefix == "" {
		keyPrefix = "share:verify:"
	}
	return &RedisAttemptLimiter{
		client:      client,
		keyPrefix:   keyPrefix,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

// Allow counts the attempt and reports whether the client is still within
// its window budget. INCR plus a first-attempt EXPIRE keeps the counter and
// its TTL consistent across instances.
func (l *RedisAttemptLimiter) Allow(ctx context.Context, clientKey string) (bool, error) {
	key := l.keyPrefix + clientKey

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to count verification attempt: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set attempt window: %w", err)
		}
	}

	return count <= int64(l.maxAttempts), nil
}

// Close closes the Redis client
func (l *RedisAttemptLimiter) Close() error {
	return l.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (l *RedisAttemptLimiter) GetClient() *redis.Client {
	return l.client
}

// Ensure RedisAttemptLimiter implements VerifyAttemptLimiter
var _ sharing.VerifyAttemptLimiter = (*RedisAttemptLimiter)(nil)
