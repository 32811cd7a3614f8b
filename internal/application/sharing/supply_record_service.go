package sharing

import (
	"context"
	"time"

	"github.com/erp/supply-portal/internal/domain/shared"
	"github.com/erp/supply-portal/internal/domain/sharing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSubmitTimeout bounds how long one submission may hold the per-order
// lock. A stalled client must not starve other suppliers of the same order.
const DefaultSubmitTimeout = 10 * time.Second

// SupplyRecordService persists supplier submissions. Every write re-verifies
// the share and re-runs the allocation check inside one transaction that
// holds a row lock on the purchase order, so validate+write is a single
// serialized unit per order. Submissions for different orders do not contend.
type SupplyRecordService struct {
	scope         TransactionScope
	access        *AccessService
	records       sharing.SupplyRecordRepository
	audit         sharing.AuditLogger
	logger        *zap.Logger
	submitTimeout time.Duration
}

// NewSupplyRecordService creates a new SupplyRecordService
func NewSupplyRecordService(scope TransactionScope, access *AccessService, records sharing.SupplyRecordRepository, audit sharing.AuditLogger, logger *zap.Logger) *SupplyRecordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupplyRecordService{
		scope:         scope,
		access:        access,
		records:       records,
		audit:         audit,
		logger:        logger,
		submitTimeout: DefaultSubmitTimeout,
	}
}

// SetSubmitTimeout overrides the validate+lock+write deadline
func (s *SupplyRecordService) SetSubmitTimeout(d time.Duration) {
	if d > 0 {
		s.submitTimeout = d
	}
}

// Create persists a new supply record submitted through a verified share.
// On allocation overflow it returns *sharing.AllocationExceededError with
// one entry per offending product and writes nothing.
func (s *SupplyRecordService) Create(ctx context.Context, shareCode, extractCode, clientIP string, req SupplyRecordRequest) (*SupplyRecordResponse, error) {
	link, err := s.access.Recheck(ctx, shareCode, extractCode)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.submitTimeout)
	defer cancel()

	var created *sharing.SupplyRecord
	err = s.scope.Execute(ctx, func(repos TxRepositories) error {
		if err := repos.Orders().LockForAllocation(ctx, link.PurchaseOrderID); err != nil {
			return err
		}

		if err := s.validateInTx(ctx, repos, link.PurchaseOrderID, req, nil); err != nil {
			return err
		}

		record, err := sharing.NewSupplyRecord(link.PurchaseOrderID, shareCode, req.supplierInfo(), req.itemInputs(), req.TotalAmount, req.Remark)
		if err != nil {
			return err
		}
		if err := repos.SupplyRecords().Create(ctx, record); err != nil {
			return err
		}
		created = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditAction(ctx, "CREATE_SUPPLY_RECORD", clientIP, created)

	resp := ToSupplyRecordResponse(created)
	return &resp, nil
}

// Update replaces a record's content wholesale: header fields are updated,
// the prior item set is deleted and the new one inserted. Items missing from
// the payload are dropped. The record's own previous quantities are excluded
// from the allocation sums, so a supplier can amend upward within the
// remaining headroom.
func (s *SupplyRecordService) Update(ctx context.Context, shareCode, extractCode, clientIP string, recordID uuid.UUID, req SupplyRecordRequest) (*SupplyRecordResponse, error) {
	link, err := s.access.Recheck(ctx, shareCode, extractCode)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.submitTimeout)
	defer cancel()

	var updated *sharing.SupplyRecord
	err = s.scope.Execute(ctx, func(repos TxRepositories) error {
		if err := repos.Orders().LockForAllocation(ctx, link.PurchaseOrderID); err != nil {
			return err
		}

		record, err := repos.SupplyRecords().FindByID(ctx, recordID)
		if err != nil {
			return err
		}
		if !record.BelongsTo(link.PurchaseOrderID, shareCode) || !record.IsActive() {
			return shared.ErrNotFound
		}

		if err := s.validateInTx(ctx, repos, link.PurchaseOrderID, req, &recordID); err != nil {
			return err
		}

		if err := record.Replace(req.supplierInfo(), req.itemInputs(), req.TotalAmount, req.Remark); err != nil {
			return err
		}
		if err := repos.SupplyRecords().Replace(ctx, record); err != nil {
			return err
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditAction(ctx, "UPDATE_SUPPLY_RECORD", clientIP, updated)

	resp := ToSupplyRecordResponse(updated)
	return &resp, nil
}

// List returns all records submitted through this share, newest first as
// persisted. Read-only; no validator involvement.
func (s *SupplyRecordService) List(ctx context.Context, shareCode, extractCode string) ([]SupplyRecordResponse, error) {
	link, err := s.access.Recheck(ctx, shareCode, extractCode)
	if err != nil {
		return nil, err
	}

	records, err := s.records.FindByShare(ctx, link.PurchaseOrderID, shareCode)
	if err != nil {
		return nil, err
	}

	responses := make([]SupplyRecordResponse, 0, len(records))
	for idx := range records {
		responses = append(responses, ToSupplyRecordResponse(&records[idx]))
	}
	return responses, nil
}

// Get returns one record, requiring it to match the share's order and code
func (s *SupplyRecordService) Get(ctx context.Context, shareCode, extractCode string, recordID uuid.UUID) (*SupplyRecordResponse, error) {
	link, err := s.access.Recheck(ctx, shareCode, extractCode)
	if err != nil {
		return nil, err
	}

	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if !record.BelongsTo(link.PurchaseOrderID, shareCode) {
		return nil, shared.ErrNotFound
	}

	resp := ToSupplyRecordResponse(record)
	return &resp, nil
}

// OrderSummary returns the order lines with remaining allocatable quantity
// for a verified supplier
func (s *SupplyRecordService) OrderSummary(ctx context.Context, shareCode, extractCode string) (*OrderSummaryResponse, error) {
	link, err := s.access.Recheck(ctx, shareCode, extractCode)
	if err != nil {
		return nil, err
	}

	var resp *OrderSummaryResponse
	err = s.scope.Execute(ctx, func(repos TxRepositories) error {
		order, err := repos.Orders().FindByID(ctx, link.PurchaseOrderID)
		if err != nil {
			return err
		}
		committed, err := repos.SupplyRecords().SumActiveQuantities(ctx, link.PurchaseOrderID, nil)
		if err != nil {
			return err
		}
		summary := ToOrderSummaryResponse(order, committed)
		resp = &summary
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// DisableRecord is the staff-side administrative disable. Disabled records
// stop counting against the order's allocation ceiling.
func (s *SupplyRecordService) DisableRecord(ctx context.Context, purchaseOrderID, recordID uuid.UUID, operator string) error {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return err
	}
	if record.PurchaseOrderID != purchaseOrderID {
		return shared.ErrNotFound
	}

	if err := record.Disable(); err != nil {
		return err
	}
	if err := s.records.Save(ctx, record); err != nil {
		return err
	}

	if s.audit != nil {
		s.audit.Log(ctx, sharing.AuditEntry{
			Category:  "TRADE",
			Module:    "SUPPLY_SHARING",
			Operation: "DISABLE_SUPPLY_RECORD",
			Operator:  operator,
			Status:    "SUCCESS",
			Details: map[string]interface{}{
				"purchase_order_id": purchaseOrderID.String(),
				"supply_record_id":  recordID.String(),
			},
		})
	}
	return nil
}

func (s *SupplyRecordService) validateInTx(ctx context.Context, repos TxRepositories, purchaseOrderID uuid.UUID, req SupplyRecordRequest, excludeRecordID *uuid.UUID) error {
	validator := NewAllocationValidator(repos.Orders(), repos.SupplyRecords())
	result, err := validator.Validate(ctx, purchaseOrderID, req.candidates(), excludeRecordID)
	if err != nil {
		return err
	}
	if !result.Valid {
		return &sharing.AllocationExceededError{Result: result}
	}
	return nil
}

func (s *SupplyRecordService) auditAction(ctx context.Context, operation, clientIP string, record *sharing.SupplyRecord) {
	if s.audit == nil || record == nil {
		return
	}
	s.audit.Log(ctx, sharing.AuditEntry{
		Category:  "TRADE",
		Module:    "SUPPLY_SHARING",
		Operation: operation,
		Operator:  sharing.SystemOperator,
		Status:    "SUCCESS",
		Details: map[string]interface{}{
			"purchase_order_id": record.PurchaseOrderID.String(),
			"supply_record_id":  record.ID.String(),
			"share_code":        record.ShareCode,
			"client_ip":         clientIP,
		},
	})
}
