package audit

import (
	"context"
	"sync"

	"github.com/erp/supply-portal/internal/domain/sharing"
	"go.uber.org/zap"
)

// ZapAuditLogger writes audit entries to a dedicated zap logger through a
// buffered channel. Logging is best-effort: when the buffer is full the
// entry is dropped and counted, the calling operation is never held up.
type ZapAuditLogger struct {
	logger    *zap.Logger
	entries   chan sharing.AuditEntry
	wg        sync.WaitGroup
	closeOnce sync.Once

	mu      sync.Mutex
	dropped int64
}

// NewZapAuditLogger creates an audit logger with the given buffer size and
// starts its writer goroutine
func NewZapAuditLogger(logger *zap.Logger, bufferSize int) *ZapAuditLogger {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	a := &ZapAuditLogger{
		logger:  logger.Named("audit"),
		entries: make(chan sharing.AuditEntry, bufferSize),
	}

	a.wg.Add(1)
	go a.writeLoop()

	return a
}

// Log queues an audit entry. Never blocks; drops the entry when the buffer
// is full.
func (a *ZapAuditLogger) Log(ctx context.Context, entry sharing.AuditEntry) {
	select {
	case a.entries <- entry:
	default:
		a.mu.Lock()
		a.dropped++
		dropped := a.dropped
		a.mu.Unlock()
		a.logger.Warn("audit buffer full, entry dropped",
			zap.String("operation", entry.Operation),
			zap.Int64("dropped_total", dropped),
		)
	}
}

// Dropped returns the number of entries dropped so far
func (a *ZapAuditLogger) Dropped() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Close drains the buffer and stops the writer goroutine. Safe to call
// multiple times.
func (a *ZapAuditLogger) Close() error {
	a.closeOnce.Do(func() {
		close(a.entries)
		a.wg.Wait()
	})
	return nil
}

func (a *ZapAuditLogger) writeLoop() {
	defer a.wg.Done()

	for entry := range a.entries {
		a.logger.Info("business action",
			zap.String("category", entry.Category),
			zap.String("module", entry.Module),
			zap.String("operation", entry.Operation),
			zap.String("operator", entry.Operator),
			zap.String("status", entry.Status),
			zap.Any("details", entry.Details),
		)
	}
}

// Ensure ZapAuditLogger implements AuditLogger
var _ sharing.AuditLogger = (*ZapAuditLogger)(nil)
