package trade

import (
	"time"

	"github.com/erp/supply-portal/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft     PurchaseOrderStatus = "DRAFT"
	PurchaseOrderStatusConfirmed PurchaseOrderStatus = "CONFIRMED"
	PurchaseOrderStatusCompleted PurchaseOrderStatus = "COMPLETED"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "CANCELLED"
)

// String returns the string representation of PurchaseOrderStatus
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// PurchaseOrderItem is a line item on a purchase order. Its ordered quantity
// is the ceiling for supplier quantity allocation.
type PurchaseOrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	ProductName     string          `gorm:"type:varchar(200);not null" json:"product_name"`
	ProductCode     string          `gorm:"type:varchar(50);not null" json:"product_code"`
	OrderedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"ordered_quantity"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_cost"`
	Unit            string          `gorm:"type:varchar(20)" json:"unit"`
	Remark          string          `gorm:"type:varchar(500)" json:"remark,omitempty"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItem) TableName() string {
	return "purchase_order_items"
}

// PurchaseOrder is a read model of the externally managed purchase order.
// This service never mutates it; it only reads line items and locks the
// header row to serialize allocation per order.
type PurchaseOrder struct {
	shared.BaseEntity
	OrderNumber  string              `gorm:"type:varchar(50);not null;uniqueIndex" json:"order_number"`
	SupplierName string              `gorm:"type:varchar(200)" json:"supplier_name"`
	Status       PurchaseOrderStatus `gorm:"type:varchar(20);not null;default:'DRAFT'" json:"status"`
	Items        []PurchaseOrderItem `gorm:"foreignKey:OrderID;references:ID" json:"items"`
	Remark       string              `gorm:"type:text" json:"remark,omitempty"`
}

// TableName returns the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// OrderLine is the per-product allocation ceiling for an order
type OrderLine struct {
	ProductID       uuid.UUID
	ProductName     string
	OrderedQuantity decimal.Decimal
}

// Lines projects the order items as allocation ceilings
func (o *PurchaseOrder) Lines() []OrderLine {
	lines := make([]OrderLine, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, OrderLine{
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			OrderedQuantity: item.OrderedQuantity,
		})
	}
	return lines
}

// LineFor returns the order line for a product, or nil if the order does not
// carry the product
func (o *PurchaseOrder) LineFor(productID uuid.UUID) *PurchaseOrderItem {
	for idx := range o.Items {
		if o.Items[idx].ProductID == productID {
			return &o.Items[idx]
		}
	}
	return nil
}
