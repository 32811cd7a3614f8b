package sharing

import (
	"context"
	"errors"

	"github.com/erp/supply-portal/internal/domain/shared"
	"github.com/erp/supply-portal/internal/domain/sharing"
	"go.uber.org/zap"
)

// AccessService validates (share code, extract code) pairs against link
// state. Every distinct failure collapses into shared.ErrAccessDenied at the
// boundary; the precise reason only reaches the server log.
type AccessService struct {
	links   sharing.ShareLinkRepository
	clock   sharing.Clock
	limiter sharing.VerifyAttemptLimiter
	logger  *zap.Logger
}

// NewAccessService creates a new AccessService. The limiter is optional;
// without one, attempts are not throttled (tests, internal re-checks).
func NewAccessService(links sharing.ShareLinkRepository, clock sharing.Clock, limiter sharing.VerifyAttemptLimiter, logger *zap.Logger) *AccessService {
	if clock == nil {
		clock = sharing.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{
		links:   links,
		clock:   clock,
		limiter: limiter,
		logger:  logger,
	}
}

// Verify runs the full gate sequence and consumes one access on success.
// The counter increment is a single conditional update in the repository, so
// concurrent verifications cannot oversubscribe the access limit.
func (s *AccessService) Verify(ctx context.Context, shareCode, extractCode, clientKey string) (*VerifyResult, error) {
	if s.limiter != nil && clientKey != "" {
		allowed, err := s.limiter.Allow(ctx, clientKey)
		if err != nil {
			// A broken limiter must not take the portal down with it.
			s.logger.Warn("verify attempt limiter unavailable", zap.Error(err))
		} else if !allowed {
			return nil, s.deny(shareCode, sharing.DenialRateLimited)
		}
	}

	link, reason, err := s.check(ctx, shareCode, extractCode)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		return nil, s.deny(shareCode, reason)
	}

	consumed, err := s.links.ConsumeAccess(ctx, link.ID)
	if err != nil {
		return nil, err
	}
	if !consumed {
		return nil, s.deny(shareCode, sharing.DenialLimitExhausted)
	}

	return &VerifyResult{
		PurchaseOrderID: link.PurchaseOrderID,
		ExpiresAt:       link.ExpiresAt,
	}, nil
}

// Recheck re-validates a share without consuming the access counter. Write
// and read flows call this so that one supplier action burns exactly one
// access, in the initial Verify. Access exhaustion is deliberately not
// checked here: a supplier who spent the last slot on Verify must still be
// able to finish reading and submitting.
func (s *AccessService) Recheck(ctx context.Context, shareCode, extractCode string) (*sharing.ShareLink, error) {
	link, reason, err := s.check(ctx, shareCode, extractCode)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		return nil, s.deny(shareCode, reason)
	}
	return link, nil
}

func (s *AccessService) check(ctx context.Context, shareCode, extractCode string) (*sharing.ShareLink, sharing.DenialReason, error) {
	link, err := s.links.FindByShareCode(ctx, shareCode)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, sharing.DenialUnknownCode, nil
		}
		return nil, "", err
	}

	if reason, ok := link.CheckAccess(s.clock.Now(), extractCode); !ok {
		return nil, reason, nil
	}
	return link, "", nil
}

func (s *AccessService) deny(shareCode string, reason sharing.DenialReason) error {
	// Reason stays server-side; callers always see the same denial.
	s.logger.Info("share access denied",
		zap.String("share_code", shareCode),
		zap.String("reason", string(reason)),
	)
	return shared.ErrAccessDenied
}
