package trade

import (
	"context"

	"github.com/google/uuid"
)

// PurchaseOrderReader provides read-only access to purchase orders.
// The order CRUD itself is owned by the upstream ERP; this service only
// consumes the line items as the quantity-allocation ceiling.
type PurchaseOrderReader interface {
	// Exists reports whether a purchase order exists
	Exists(ctx context.Context, orderID uuid.UUID) (bool, error)

	// FindByID loads an order with its items
	FindByID(ctx context.Context, orderID uuid.UUID) (*PurchaseOrder, error)

	// FindLines loads only the allocation ceilings for an order
	FindLines(ctx context.Context, orderID uuid.UUID) ([]OrderLine, error)

	// LockForAllocation takes a row-level lock on the order header so that
	// validate-then-write sequences for the same order are serialized.
	// Must be called inside a transaction; the lock is held until the
	// transaction commits or rolls back.
	LockForAllocation(ctx context.Context, orderID uuid.UUID) error
}
