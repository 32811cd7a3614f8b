package sharing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShareLinkRepository persists share links
type ShareLinkRepository interface {
	FindByOrderID(ctx context.Context, purchaseOrderID uuid.UUID) (*ShareLink, error)
	FindByShareCode(ctx context.Context, shareCode string) (*ShareLink, error)
	ShareCodeExists(ctx context.Context, shareCode string) (bool, error)
	Save(ctx context.Context, link *ShareLink) error

	// ConsumeAccess atomically increments the access counter of the link,
	// honoring the access limit in the same statement. Returns false when
	// the limit is already exhausted or the link is disabled. Never
	// implemented as a read followed by a write.
	ConsumeAccess(ctx context.Context, linkID uuid.UUID) (bool, error)
}

// SupplyRecordRepository persists supply records and their items
type SupplyRecordRepository interface {
	FindByID(ctx context.Context, recordID uuid.UUID) (*SupplyRecord, error)
	FindByShare(ctx context.Context, purchaseOrderID uuid.UUID, shareCode string) ([]SupplyRecord, error)

	// SumActiveQuantities returns the committed quantity per product across
	// all active records of the order, skipping excludeRecordID when set.
	SumActiveQuantities(ctx context.Context, purchaseOrderID uuid.UUID, excludeRecordID *uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)

	// Create inserts the header and all items
	Create(ctx context.Context, record *SupplyRecord) error

	// Replace updates the header and swaps the full item set
	Replace(ctx context.Context, record *SupplyRecord) error

	// Save persists header-level changes only (status, remark)
	Save(ctx context.Context, record *SupplyRecord) error
}

// AuditLogger records business actions best-effort. Implementations must
// never block or fail the operation that triggered the entry.
type AuditLogger interface {
	Log(ctx context.Context, entry AuditEntry)
}

// AuditEntry is one action log line
type AuditEntry struct {
	Category  string
	Module    string
	Operation string
	Operator  string
	Status    string
	Details   map[string]interface{}
}

// SystemOperator is the operator recorded for unauthenticated portal actions
const SystemOperator = "SYSTEM"

// Clock supplies the current time for expiry comparisons
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock
type SystemClock struct{}

// Now returns the current time
func (SystemClock) Now() time.Time {
	return time.Now()
}

// VerifyAttemptLimiter throttles verification attempts per client before any
// share-code lookup happens, to slow down code enumeration.
type VerifyAttemptLimiter interface {
	// Allow reports whether another attempt from the client is permitted
	// within the current window.
	Allow(ctx context.Context, clientKey string) (bool, error)
}
