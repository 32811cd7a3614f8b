package persistence

import (
	"context"
	"errors"

	"github.com/erp/supply-portal/internal/domain/shared"
	"github.com/erp/supply-portal/internal/domain/sharing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSupplyRecordRepository implements sharing.SupplyRecordRepository using GORM
type GormSupplyRecordRepository struct {
	db *gorm.DB
}

// NewGormSupplyRecordRepository creates a new GormSupplyRecordRepository
func NewGormSupplyRecordRepository(db *gorm.DB) *GormSupplyRecordRepository {
	return &GormSupplyRecordRepository{db: db}
}

// FindByID loads a record with its items
func (r *GormSupplyRecordRepository) FindByID(ctx context.Context, recordID uuid.UUID) (*sharing.SupplyRecord, error) {
	var record sharing.SupplyRecord
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&record, "id = ?", recordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByShare loads all records submitted through one share
func (r *GormSupplyRecordRepository) FindByShare(ctx context.Context, purchaseOrderID uuid.UUID, shareCode string) ([]sharing.SupplyRecord, error) {
	var records []sharing.SupplyRecord
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("purchase_order_id = ? AND share_code = ?", purchaseOrderID, shareCode).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// SumActiveQuantities aggregates committed quantities per product over all
// active records of the order. Disabled records do not count; the excluded
// record's own items are skipped so edits are not double-counted.
func (r *GormSupplyRecordRepository) SumActiveQuantities(ctx context.Context, purchaseOrderID uuid.UUID, excludeRecordID *uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	type row struct {
		ProductID uuid.UUID       `gorm:"column:product_id"`
		Total     decimal.Decimal `gorm:"column:total"`
	}

	query := r.db.WithContext(ctx).
		Table("supply_record_items AS i").
		Select("i.product_id AS product_id, SUM(i.quantity) AS total").
		Joins("JOIN supply_records r ON r.id = i.supply_record_id").
		Where("r.purchase_order_id = ? AND r.status = ?", purchaseOrderID, sharing.SupplyRecordStatusActive).
		Group("i.product_id")

	if excludeRecordID != nil {
		query = query.Where("r.id <> ?", *excludeRecordID)
	}

	var rows []row
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, rw := range rows {
		totals[rw.ProductID] = rw.Total
	}
	return totals, nil
}

// Create inserts the header and all items
func (r *GormSupplyRecordRepository) Create(ctx context.Context, record *sharing.SupplyRecord) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Omit(clause.Associations).Create(record).Error; err != nil {
		return err
	}
	if len(record.Items) > 0 {
		if err := tx.Create(&record.Items).Error; err != nil {
			return err
		}
	}
	return nil
}

// Replace updates the header and swaps the full item set. The prior items
// are deleted unconditionally; partial payloads drop the omitted lines.
func (r *GormSupplyRecordRepository) Replace(ctx context.Context, record *sharing.SupplyRecord) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Omit(clause.Associations).Save(record).Error; err != nil {
		return err
	}
	if err := tx.Where("supply_record_id = ?", record.ID).Delete(&sharing.SupplyRecordItem{}).Error; err != nil {
		return err
	}
	if len(record.Items) > 0 {
		if err := tx.Create(&record.Items).Error; err != nil {
			return err
		}
	}
	return nil
}

// Save persists header-level changes only
func (r *GormSupplyRecordRepository) Save(ctx context.Context, record *sharing.SupplyRecord) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(record).Error
}

// Ensure GormSupplyRecordRepository implements SupplyRecordRepository
var _ sharing.SupplyRecordRepository = (*GormSupplyRecordRepository)(nil)
