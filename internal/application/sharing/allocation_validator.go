package sharing

import (
	"context"

	"github.com/erp/supply-portal/internal/domain/sharing"
	"github.com/erp/supply-portal/internal/domain/trade"
	"github.com/google/uuid"
)

// AllocationValidator checks candidate quantities against the order's
// ceilings and the quantities already committed by active supply records.
//
// The check by itself is not race-free: two submissions validated against the
// same snapshot can both pass. Callers performing writes must run Validate
// and the subsequent insert inside one transaction that holds the per-order
// row lock (see SupplyRecordService).
type AllocationValidator struct {
	orders  trade.PurchaseOrderReader
	records sharing.SupplyRecordRepository
}

// NewAllocationValidator creates a new AllocationValidator
func NewAllocationValidator(orders trade.PurchaseOrderReader, records sharing.SupplyRecordRepository) *AllocationValidator {
	return &AllocationValidator{
		orders:  orders,
		records: records,
	}
}

// Validate computes already-committed quantities for the order (skipping
// excludeRecordID when the caller is editing that record) and compares each
// candidate against its ordered quantity.
func (v *AllocationValidator) Validate(ctx context.Context, purchaseOrderID uuid.UUID, candidates []sharing.CandidateItem, excludeRecordID *uuid.UUID) (sharing.AllocationResult, error) {
	lines, err := v.orders.FindLines(ctx, purchaseOrderID)
	if err != nil {
		return sharing.AllocationResult{}, err
	}

	ceilings := make(map[uuid.UUID]sharing.OrderCeiling, len(lines))
	for _, line := range lines {
		ceilings[line.ProductID] = sharing.OrderCeiling{
			ProductName:     line.ProductName,
			OrderedQuantity: line.OrderedQuantity,
		}
	}

	committed, err := v.records.SumActiveQuantities(ctx, purchaseOrderID, excludeRecordID)
	if err != nil {
		return sharing.AllocationResult{}, err
	}

	return sharing.CheckAllocation(ceilings, committed, candidates), nil
}
