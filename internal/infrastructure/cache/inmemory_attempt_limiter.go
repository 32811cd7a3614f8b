package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/supply-portal/internal/domain/sharing"
)

// attemptWindow tracks the attempts of one client within its current window
type attemptWindow struct {
	count     int
	expiresAt time.Time
}

// InMemoryAttemptLimiter implements VerifyAttemptLimiter using an in-memory
// map. This is suitable for single-instance deployments and testing.
type InMemoryAttemptLimiter struct {
	mu          sync.Mutex
	windows     map[string]attemptWindow
	maxAttempts int
	window      time.Duration
	stopChan    chan struct{}
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

// NewInMemoryAttemptLimiter creates a new in-memory verification throttle.
// It starts a background goroutine to clean up expired windows.
func NewInMemoryAttemptLimiter(maxAttempts int, window time.Duration) *InMemoryAttemptLimiter {
	limiter := &InMemoryAttemptLimiter{
		windows:     make(map[string]attemptWindow),
		maxAttempts: maxAttempts,
		window:      window,
		stopChan:    make(chan struct{}),
	}

	limiter.wg.Add(1)
	go limiter.cleanupLoop()

	return limiter
}

// Allow counts the attempt and reports whether the client is still within
// its window budget
func (l *InMemoryAttemptLimiter) Allow(ctx context.Context, clientKey string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, exists := l.windows[clientKey]
	if !exists || now.After(w.expiresAt) {
		l.windows[clientKey] = attemptWindow{count: 1, expiresAt: now.Add(l.window)}
		return l.maxAttempts >= 1, nil
	}

	w.count++
	l.windows[clientKey] = w
	return w.count <= l.maxAttempts, nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (l *InMemoryAttemptLimiter) Close() error {
	l.closeOnce.Do(func() {
		close(l.stopChan)
		l.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired windows
func (l *InMemoryAttemptLimiter) cleanupLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.removeExpired()
		}
	}
}

func (l *InMemoryAttemptLimiter) removeExpired() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, w := range l.windows {
		if now.After(w.expiresAt) {
			delete(l.windows, key)
		}
	}
}

// Ensure InMemoryAttemptLimiter implements VerifyAttemptLimiter
var _ sharing.VerifyAttemptLimiter = (*InMemoryAttemptLimiter)(nil)
