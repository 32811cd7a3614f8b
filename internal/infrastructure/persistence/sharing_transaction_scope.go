package persistence

import (
	"context"

	appsharing "github.com/erp/supply-portal/internal/application/sharing"
	"github.com/erp/supply-portal/internal/domain/sharing"
	"github.com/erp/supply-portal/internal/domain/trade"
	"gorm.io/gorm"
)

// GormSharingTransactionScope implements the application TransactionScope
// over GORM transactions. Repositories handed to the callback are bound to
// the transaction, so row locks taken through them live until commit.
type GormSharingTransactionScope struct {
	db *gorm.DB
}

// NewGormSharingTransactionScope creates a new GormSharingTransactionScope
func NewGormSharingTransactionScope(db *gorm.DB) *GormSharingTransactionScope {
	return &GormSharingTransactionScope{db: db}
}

// Execute runs fn within a database transaction. An error rolls back every
// write performed through the transactional repositories.
func (s *GormSharingTransactionScope) Execute(ctx context.Context, fn func(repos appsharing.TxRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTxRepositories{tx: tx})
	})
}

type gormTxRepositories struct {
	tx *gorm.DB
}

// ShareLinks returns the share link repository bound to the transaction
func (r *gormTxRepositories) ShareLinks() sharing.ShareLinkRepository {
	return NewGormShareLinkRepository(r.tx)
}

// SupplyRecords returns the supply record repository bound to the transaction
func (r *gormTxRepositories) SupplyRecords() sharing.SupplyRecordRepository {
	return NewGormSupplyRecordRepository(r.tx)
}

// Orders returns the purchase order reader bound to the transaction
func (r *gormTxRepositories) Orders() trade.PurchaseOrderReader {
	return NewGormPurchaseOrderReader(r.tx)
}

// Ensure GormSharingTransactionScope implements TransactionScope
var _ appsharing.TransactionScope = (*GormSharingTransactionScope)(nil)
