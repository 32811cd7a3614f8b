package sharing

import (
	"context"
	"errors"
	"time"

	"github.com/erp/supply-portal/internal/domain/shared"
	"github.com/erp/supply-portal/internal/domain/sharing"
	"github.com/erp/supply-portal/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// shareCodeAttempts bounds retries against the unique share-code index.
// Collisions at 12 random characters are vanishingly rare; hitting the bound
// means the generator is broken, not unlucky.
const shareCodeAttempts = 5

// ShareLinkService owns the lifecycle of purchase-order share links
type ShareLinkService struct {
	links         sharing.ShareLinkRepository
	orders        trade.PurchaseOrderReader
	audit         sharing.AuditLogger
	logger        *zap.Logger
	codeLength    int
	defaultExpiry time.Duration
}

// NewShareLinkService creates a new ShareLinkService
func NewShareLinkService(links sharing.ShareLinkRepository, orders trade.PurchaseOrderReader, audit sharing.AuditLogger, logger *zap.Logger) *ShareLinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShareLinkService{
		links:         links,
		orders:        orders,
		audit:         audit,
		logger:        logger,
		codeLength:    sharing.ShareCodeLength,
		defaultExpiry: 7 * 24 * time.Hour,
	}
}

// SetCodeLength overrides the generated share code length
func (s *ShareLinkService) SetCodeLength(n int) {
	if n >= sharing.MinShareCodeLength {
		s.codeLength = n
	}
}

// SetDefaultExpiry overrides the link lifetime used when a create request
// does not carry one
func (s *ShareLinkService) SetDefaultExpiry(d time.Duration) {
	if d > 0 {
		s.defaultExpiry = d
	}
}

// Create issues a share link for a purchase order. Fails with NOT_FOUND when
// the order does not exist and ALREADY_EXISTS when a link was issued before;
// callers must use Configure to change an existing link.
func (s *ShareLinkService) Create(ctx context.Context, purchaseOrderID uuid.UUID, operator string, req ShareLinkRequest) (*ShareLinkResponse, error) {
	exists, err := s.orders.Exists(ctx, purchaseOrderID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.ErrNotFound
	}

	if _, err := s.links.FindByOrderID(ctx, purchaseOrderID); err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A share link already exists for this order")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	extractCode := req.ExtractCode
	if extractCode == "" {
		extractCode, err = sharing.NewExtractCode()
		if err != nil {
			return nil, err
		}
	}

	expiry := s.defaultExpiry
	if req.ExpiresInHours > 0 {
		expiry = time.Duration(req.ExpiresInHours) * time.Hour
	}
	expiresAt := time.Now().Add(expiry)

	link, err := s.newLinkWithFreshCode(ctx, purchaseOrderID, extractCode, expiresAt, req.AccessLimit)
	if err != nil {
		return nil, err
	}

	if err := s.links.Save(ctx, link); err != nil {
		// A concurrent Create for the same order can win between the
		// FindByOrderID check and this insert.
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "A share link already exists for this order")
		}
		return nil, err
	}

	s.auditAction(ctx, "CREATE_SHARE_LINK", operator, link)

	resp := ToShareLinkResponse(link)
	return &resp, nil
}

// Configure updates expiry, extract code and access limit of the existing
// link. The share code stays stable so distributed URLs keep working, and the
// access count is not reset.
func (s *ShareLinkService) Configure(ctx context.Context, purchaseOrderID uuid.UUID, operator string, req ShareLinkRequest) (*ShareLinkResponse, error) {
	link, err := s.links.FindByOrderID(ctx, purchaseOrderID)
	if err != nil {
		return nil, err
	}

	if req.ExpiresInHours <= 0 {
		return nil, shared.NewDomainError("INVALID_EXPIRY", "Expiry hours must be positive")
	}

	expiresAt := time.Now().Add(time.Duration(req.ExpiresInHours) * time.Hour)
	if err := link.Configure(req.ExtractCode, expiresAt, req.AccessLimit); err != nil {
		return nil, err
	}

	if err := s.links.Save(ctx, link); err != nil {
		return nil, err
	}

	s.auditAction(ctx, "CONFIGURE_SHARE_LINK", operator, link)

	resp := ToShareLinkResponse(link)
	return &resp, nil
}

// Disable permanently deactivates the order's share link
func (s *ShareLinkService) Disable(ctx context.Context, purchaseOrderID uuid.UUID, operator string) error {
	link, err := s.links.FindByOrderID(ctx, purchaseOrderID)
	if err != nil {
		return err
	}

	if err := link.Disable(); err != nil {
		return err
	}

	if err := s.links.Save(ctx, link); err != nil {
		return err
	}

	s.auditAction(ctx, "DISABLE_SHARE_LINK", operator, link)

	return nil
}

// Get returns the link in whatever state it is in, so the admin UI can show
// expired or disabled links and offer reconfiguration.
func (s *ShareLinkService) Get(ctx context.Context, purchaseOrderID uuid.UUID) (*ShareLinkResponse, error) {
	link, err := s.links.FindByOrderID(ctx, purchaseOrderID)
	if err != nil {
		return nil, err
	}
	resp := ToShareLinkResponse(link)
	return &resp, nil
}

func (s *ShareLinkService) newLinkWithFreshCode(ctx context.Context, purchaseOrderID uuid.UUID, extractCode string, expiresAt time.Time, accessLimit *int) (*sharing.ShareLink, error) {
	for attempt := 0; attempt < shareCodeAttempts; attempt++ {
		code, err := sharing.NewShareCode(s.codeLength)
		if err != nil {
			return nil, err
		}
		taken, err := s.links.ShareCodeExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if taken {
			s.logger.Warn("share code collision, regenerating", zap.Int("attempt", attempt+1))
			continue
		}
		return sharing.NewShareLink(purchaseOrderID, code, extractCode, expiresAt, accessLimit)
	}
	return nil, shared.NewDomainError("CODE_GENERATION", "Could not generate a unique share code")
}

func (s *ShareLinkService) auditAction(ctx context.Context, operation, operator string, link *sharing.ShareLink) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, sharing.AuditEntry{
		Category:  "TRADE",
		Module:    "SUPPLY_SHARING",
		Operation: operation,
		Operator:  operator,
		Status:    "SUCCESS",
		Details: map[string]interface{}{
			"purchase_order_id": link.PurchaseOrderID.String(),
			"share_link_id":     link.ID.String(),
		},
	})
}
