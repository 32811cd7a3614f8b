package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/supply-portal/internal/domain/shared"
	"github.com/erp/supply-portal/internal/domain/sharing"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormShareLinkRepository implements sharing.ShareLinkRepository using GORM
type GormShareLinkRepository struct {
	db *gorm.DB
}

// NewGormShareLinkRepository creates a new GormShareLinkRepository
func NewGormShareLinkRepository(db *gorm.DB) *GormShareLinkRepository {
	return &GormShareLinkRepository{db: db}
}

// FindByOrderID finds the share link of a purchase order
func (r *GormShareLinkRepository) FindByOrderID(ctx context.Context, purchaseOrderID uuid.UUID) (*sharing.ShareLink, error) {
	var link sharing.ShareLink
	if err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", purchaseOrderID).
		First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &link, nil
}

// FindByShareCode finds a share link by its public code
func (r *GormShareLinkRepository) FindByShareCode(ctx context.Context, shareCode string) (*sharing.ShareLink, error) {
	var link sharing.ShareLink
	if err := r.db.WithContext(ctx).
		Where("share_code = ?", shareCode).
		First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &link, nil
}

// ShareCodeExists reports whether a share code is already taken
func (r *GormShareLinkRepository) ShareCodeExists(ctx context.Context, shareCode string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&sharing.ShareLink{}).
		Where("share_code = ?", shareCode).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save persists a share link (insert or update). An insert losing the race
// on one of the unique indexes is reported as ErrAlreadyExists.
func (r *GormShareLinkRepository) Save(ctx context.Context, link *sharing.ShareLink) error {
	if err := r.db.WithContext(ctx).Save(link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// ConsumeAccess increments the access counter with the limit check folded
// into the same UPDATE. Concurrent callers race on the database row, not on
// a stale in-memory read, so at most access_limit increments ever succeed.
func (r *GormShareLinkRepository) ConsumeAccess(ctx context.Context, linkID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&sharing.ShareLink{}).
		Where("id = ? AND disabled_at IS NULL AND (access_limit IS NULL OR access_count < access_limit)", linkID).
		Updates(map[string]interface{}{
			"access_count": gorm.Expr("access_count + 1"),
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Ensure GormShareLinkRepository implements ShareLinkRepository
var _ sharing.ShareLinkRepository = (*GormShareLinkRepository)(nil)
