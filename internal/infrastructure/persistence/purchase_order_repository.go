package persistence

import (
	"context"
	"errors"

	"github.com/erp/supply-portal/internal/domain/shared"
	"github.com/erp/supply-portal/internal/domain/trade"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseOrderReader implements trade.PurchaseOrderReader using GORM.
// Orders are owned by the upstream ERP; this reader never writes them,
// except for the row lock used to serialize allocation.
type GormPurchaseOrderReader struct {
	db *gorm.DB
}

// NewGormPurchaseOrderReader creates a new GormPurchaseOrderReader
func NewGormPurchaseOrderReader(db *gorm.DB) *GormPurchaseOrderReader {
	return &GormPurchaseOrderReader{db: db}
}

// Exists reports whether a purchase order exists
func (r *GormPurchaseOrderReader) Exists(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&trade.PurchaseOrder{}).
		Where("id = ?", orderID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByID loads an order with its items
func (r *GormPurchaseOrderReader) FindByID(ctx context.Context, orderID uuid.UUID) (*trade.PurchaseOrder, error) {
	var order trade.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindLines loads the allocation ceilings for an order
func (r *GormPurchaseOrderReader) FindLines(ctx context.Context, orderID uuid.UUID) ([]trade.OrderLine, error) {
	var items []trade.PurchaseOrderItem
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&items).Error; err != nil {
		return nil, err
	}

	lines := make([]trade.OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, trade.OrderLine{
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			OrderedQuantity: item.OrderedQuantity,
		})
	}
	return lines, nil
}

// LockForAllocation takes a FOR UPDATE lock on the order header row so that
// concurrent validate-then-write sequences for the same order queue up.
// Must run inside a transaction. SQLite has a single writer and no row
// locks, so the clause is skipped there (tests run on SQLite).
func (r *GormPurchaseOrderReader) LockForAllocation(ctx context.Context, orderID uuid.UUID) error {
	query := r.db.WithContext(ctx).Model(&trade.PurchaseOrder{}).Select("id")
	if r.db.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	// Scan into a string: gorm cannot scan a single column into uuid.UUID.
	var id string
	if err := query.Where("id = ?", orderID).Scan(&id).Error; err != nil {
		return err
	}
	if id == "" {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormPurchaseOrderReader implements PurchaseOrderReader
var _ trade.PurchaseOrderReader = (*GormPurchaseOrderReader)(nil)
