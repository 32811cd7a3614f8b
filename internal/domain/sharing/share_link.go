package sharing

import (
	"regexp"
	"time"

	"github.com/erp/supply-portal/internal/domain/shared"
	"github.com/google/uuid"
)

// ShareCodeLength is the length of generated share codes. Codes shorter than
// MinShareCodeLength are rejected outright; enumeration resistance depends on
// the code being the primary secret.
const (
	ShareCodeLength    = 12
	MinShareCodeLength = 8
	ExtractCodeLength  = 4
)

var extractCodePattern = regexp.MustCompile(`^[a-zA-Z0-9]{4}$`)

// ShareLink grants scoped, time-boxed, optionally access-limited access to
// submit supply records against one purchase order. At most one link exists
// per order; the share code never changes once issued.
type ShareLink struct {
	shared.BaseEntity
	PurchaseOrderID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"purchase_order_id"`
	ShareCode       string     `gorm:"type:varchar(32);not null;uniqueIndex" json:"share_code"`
	ExtractCode     string     `gorm:"type:varchar(8)" json:"-"`
	ExpiresAt       time.Time  `gorm:"not null;index" json:"expires_at"`
	AccessLimit     *int       `gorm:"type:int" json:"access_limit,omitempty"`
	AccessCount     int        `gorm:"not null;default:0" json:"access_count"`
	DisabledAt      *time.Time `json:"disabled_at,omitempty"`
}

// TableName returns the table name for GORM
func (ShareLink) TableName() string {
	return "share_links"
}

// NewShareLink creates a share link for a purchase order
func NewShareLink(purchaseOrderID uuid.UUID, shareCode, extractCode string, expiresAt time.Time, accessLimit *int) (*ShareLink, error) {
	if purchaseOrderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Purchase order ID cannot be empty")
	}
	if len(shareCode) < MinShareCodeLength {
		return nil, shared.NewDomainError("INVALID_SHARE_CODE", "Share code must be at least 8 characters")
	}
	if extractCode != "" && !extractCodePattern.MatchString(extractCode) {
		return nil, shared.NewDomainError("INVALID_EXTRACT_CODE", "Extract code must be 4 alphanumeric characters")
	}
	if !expiresAt.After(time.Now()) {
		return nil, shared.NewDomainError("INVALID_EXPIRY", "Expiry must be in the future")
	}
	if accessLimit != nil && *accessLimit <= 0 {
		return nil, shared.NewDomainError("INVALID_ACCESS_LIMIT", "Access limit must be positive")
	}

	return &ShareLink{
		BaseEntity:      shared.NewBaseEntity(),
		PurchaseOrderID: purchaseOrderID,
		ShareCode:       shareCode,
		ExtractCode:     extractCode,
		ExpiresAt:       expiresAt,
		AccessLimit:     accessLimit,
		AccessCount:     0,
	}, nil
}

// Configure updates the mutable settings of the link. The share code and the
// accumulated access count are preserved.
func (l *ShareLink) Configure(extractCode string, expiresAt time.Time, accessLimit *int) error {
	if l.IsDisabled() {
		return shared.NewDomainError("LINK_DISABLED", "Cannot reconfigure a disabled share link")
	}
	if extractCode != "" && !extractCodePattern.MatchString(extractCode) {
		return shared.NewDomainError("INVALID_EXTRACT_CODE", "Extract code must be 4 alphanumeric characters")
	}
	if !expiresAt.After(time.Now()) {
		return shared.NewDomainError("INVALID_EXPIRY", "Expiry must be in the future")
	}
	if accessLimit != nil && *accessLimit <= 0 {
		return shared.NewDomainError("INVALID_ACCESS_LIMIT", "Access limit must be positive")
	}

	l.ExtractCode = extractCode
	l.ExpiresAt = expiresAt
	l.AccessLimit = accessLimit
	l.UpdatedAt = time.Now()

	return nil
}

// Disable permanently deactivates the link. There is no re-enable.
func (l *ShareLink) Disable() error {
	if l.IsDisabled() {
		return shared.NewDomainError("LINK_DISABLED", "Share link is already disabled")
	}
	now := time.Now()
	l.DisabledAt = &now
	l.UpdatedAt = now
	return nil
}

// IsDisabled returns true if the link has been disabled
func (l *ShareLink) IsDisabled() bool {
	return l.DisabledAt != nil
}

// IsExpired returns true if the link has expired at the given instant
func (l *ShareLink) IsExpired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// HasExtractCode returns true if a secondary secret is configured
func (l *ShareLink) HasExtractCode() bool {
	return l.ExtractCode != ""
}

// MatchesExtractCode checks the supplied secondary secret. Links without a
// configured extract code accept any value.
func (l *ShareLink) MatchesExtractCode(code string) bool {
	if !l.HasExtractCode() {
		return true
	}
	return l.ExtractCode == code
}

// AccessExhausted returns true if the access limit has been reached
func (l *ShareLink) AccessExhausted() bool {
	return l.AccessLimit != nil && l.AccessCount >= *l.AccessLimit
}

// DenialReason classifies why verification failed. Reasons are logged
// server-side only; the boundary collapses them all into one generic message.
type DenialReason string

const (
	DenialUnknownCode      DenialReason = "UNKNOWN_CODE"
	DenialDisabled         DenialReason = "DISABLED"
	DenialExpired          DenialReason = "EXPIRED"
	DenialWrongExtractCode DenialReason = "WRONG_EXTRACT_CODE"
	DenialLimitExhausted   DenialReason = "LIMIT_EXHAUSTED"
	DenialRateLimited      DenialReason = "RATE_LIMITED"
)

// CheckAccess evaluates every gate except the access-limit consumption, which
// must happen as a single conditional update in the store. Returns the first
// failing reason in check order.
func (l *ShareLink) CheckAccess(now time.Time, extractCode string) (DenialReason, bool) {
	if l.IsDisabled() {
		return DenialDisabled, false
	}
	if l.IsExpired(now) {
		return DenialExpired, false
	}
	if !l.MatchesExtractCode(extractCode) {
		return DenialWrongExtractCode, false
	}
	return "", true
}
