package cache

import (
	"fmt"
	"time"

	"github.com/erp/supply-portal/internal/domain/sharing"
	"github.com/erp/supply-portal/internal/infrastructure/config"
	"go.uber.org/zap"
)

// AttemptLimiterFactory creates verification throttles based on configuration
type AttemptLimiterFactory struct {
	redisConfig           config.RedisConfig
	maxAttempts           int
	window                time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// AttemptLimiterFactoryOption is a functional option for configuring the factory
type AttemptLimiterFactoryOption func(*AttemptLimiterFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) AttemptLimiterFactoryOption {
	return func(f *AttemptLimiterFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory limiter
// when Redis is unavailable. Default is true (allow fallback).
func WithInMemoryFallback(allow bool) AttemptLimiterFactoryOption {
	return func(f *AttemptLimiterFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewAttemptLimiterFactory creates a new factory
func NewAttemptLimiterFactory(cfg config.RedisConfig, maxAttempts int, window time.Duration, opts ...AttemptLimiterFactoryOption) *AttemptLimiterFactory {
	f := &AttemptLimiterFactory{
		redisConfig:           cfg,
		maxAttempts:           maxAttempts,
		window:                window,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisLimiter creates a Redis-backed verification throttle
func (f *AttemptLimiterFactory) CreateRedisLimiter() (sharing.VerifyAttemptLimiter, error) {
	limiter, err := NewRedisAttemptLimiter(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.maxAttempts, f.window)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis attempt limiter: %w", err)
	}

	return limiter, nil
}

// CreateInMemoryLimiter creates an in-memory verification throttle.
// WARNING: in-memory limiters do not share counters across process
// instances, so a client can multiply its budget by spraying instances.
func (f *AttemptLimiterFactory) CreateInMemoryLimiter() sharing.VerifyAttemptLimiter {
	return NewInMemoryAttemptLimiter(f.maxAttempts, f.window)
}

// CreateLimiter tries Redis first and falls back to the in-memory limiter
// when Redis is unavailable and fallback is allowed
func (f *AttemptLimiterFactory) CreateLimiter() (sharing.VerifyAttemptLimiter, error) {
	limiter, err := f.CreateRedisLimiter()
	if err == nil {
		f.logger.Info("using Redis verification attempt limiter")
		return limiter, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for verification throttling but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory attempt limiter",
		zap.Error(err),
	)
	return f.CreateInMemoryLimiter(), nil
}
