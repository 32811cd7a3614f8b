package sharing

import (
	"context"

	"github.com/erp/supply-portal/internal/domain/sharing"
	"github.com/erp/supply-portal/internal/domain/trade"
)

// TxRepositories exposes the repositories bound to one transaction
type TxRepositories interface {
	ShareLinks() sharing.ShareLinkRepository
	SupplyRecords() sharing.SupplyRecordRepository
	Orders() trade.PurchaseOrderReader
}

// TransactionScope runs a function inside a database transaction. An error
// from fn rolls everything back; locks acquired inside fn are released with
// the transaction.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TxRepositories) error) error
}
