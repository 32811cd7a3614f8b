package sharing

import (
	"time"

	"github.com/erp/supply-portal/internal/domain/sharing"
	"github.com/erp/supply-portal/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShareLinkRequest carries the configurable settings of a share link. Used
// for both create and configure; the share code itself is never part of it.
type ShareLinkRequest struct {
	ExpiresInHours int    `json:"expires_in_hours" binding:"omitempty,gt=0"`
	ExtractCode    string `json:"extract_code" binding:"omitempty,len=4,alphanum"`
	AccessLimit    *int   `json:"access_limit" binding:"omitempty,gt=0"`
}

// ShareLinkResponse is the staff-facing view of a share link
type ShareLinkResponse struct {
	ID              uuid.UUID  `json:"id"`
	PurchaseOrderID uuid.UUID  `json:"purchase_order_id"`
	ShareCode       string     `json:"share_code"`
	ExtractCode     string     `json:"extract_code,omitempty"`
	ExpiresAt       time.Time  `json:"expires_at"`
	AccessLimit     *int       `json:"access_limit,omitempty"`
	AccessCount     int        `json:"access_count"`
	Disabled        bool       `json:"disabled"`
	DisabledAt      *time.Time `json:"disabled_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ToShareLinkResponse maps a domain link to the staff view
func ToShareLinkResponse(link *sharing.ShareLink) ShareLinkResponse {
	return ShareLinkResponse{
		ID:              link.ID,
		PurchaseOrderID: link.PurchaseOrderID,
		ShareCode:       link.ShareCode,
		ExtractCode:     link.ExtractCode,
		ExpiresAt:       link.ExpiresAt,
		AccessLimit:     link.AccessLimit,
		AccessCount:     link.AccessCount,
		Disabled:        link.IsDisabled(),
		DisabledAt:      link.DisabledAt,
		CreatedAt:       link.CreatedAt,
		UpdatedAt:       link.UpdatedAt,
	}
}

// VerifyResult is returned to a supplier whose codes checked out
type VerifyResult struct {
	PurchaseOrderID uuid.UUID `json:"purchase_order_id"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// SupplierInfoRequest is the supplier identity block of a submission
type SupplierInfoRequest struct {
	Name          string `json:"name" binding:"required,max=200"`
	ContactPerson string `json:"contact_person" binding:"required,max=100"`
	ContactPhone  string `json:"contact_phone" binding:"required,max=50"`
	Remark        string `json:"remark" binding:"max=500"`
}

// SupplyItemRequest is one item line of a submission
type SupplyItemRequest struct {
	ProductID  uuid.UUID       `json:"product_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Remark     string          `json:"remark" binding:"max=500"`
}

// SupplyRecordRequest is a full supplier submission (create or amend)
type SupplyRecordRequest struct {
	Supplier    SupplierInfoRequest `json:"supplier_info" binding:"required"`
	Items       []SupplyItemRequest `json:"items" binding:"required,min=1,dive"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	Remark      string              `json:"remark" binding:"max=1000"`
}

func (r SupplyRecordRequest) supplierInfo() sharing.SupplierInfo {
	return sharing.SupplierInfo{
		Name:          r.Supplier.Name,
		ContactPerson: r.Supplier.ContactPerson,
		ContactPhone:  r.Supplier.ContactPhone,
		Remark:        r.Supplier.Remark,
	}
}

func (r SupplyRecordRequest) itemInputs() []sharing.ItemInput {
	items := make([]sharing.ItemInput, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, sharing.ItemInput{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
			Remark:     it.Remark,
		})
	}
	return items
}

func (r SupplyRecordRequest) candidates() []sharing.CandidateItem {
	candidates := make([]sharing.CandidateItem, 0, len(r.Items))
	for _, it := range r.Items {
		candidates = append(candidates, sharing.CandidateItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}
	return candidates
}

// SupplyItemResponse is one persisted item line
type SupplyItemResponse struct {
	ID         uuid.UUID       `json:"id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Remark     string          `json:"remark,omitempty"`
}

// SupplyRecordResponse is the supplier- and staff-facing view of a record
type SupplyRecordResponse struct {
	ID              uuid.UUID            `json:"id"`
	PurchaseOrderID uuid.UUID            `json:"purchase_order_id"`
	ShareCode       string               `json:"share_code"`
	Supplier        SupplierInfoRequest  `json:"supplier_info"`
	Items           []SupplyItemResponse `json:"items"`
	TotalAmount     decimal.Decimal      `json:"total_amount"`
	Remark          string               `json:"remark,omitempty"`
	Status          string               `json:"status"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// ToSupplyRecordResponse maps a domain record to its API view
func ToSupplyRecordResponse(record *sharing.SupplyRecord) SupplyRecordResponse {
	items := make([]SupplyItemResponse, 0, len(record.Items))
	for _, it := range record.Items {
		items = append(items, SupplyItemResponse{
			ID:         it.ID,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
			Remark:     it.Remark,
		})
	}
	return SupplyRecordResponse{
		ID:              record.ID,
		PurchaseOrderID: record.PurchaseOrderID,
		ShareCode:       record.ShareCode,
		Supplier: SupplierInfoRequest{
			Name:          record.Supplier.Name,
			ContactPerson: record.Supplier.ContactPerson,
			ContactPhone:  record.Supplier.ContactPhone,
			Remark:        record.Supplier.Remark,
		},
		Items:       items,
		TotalAmount: record.TotalAmount,
		Remark:      record.Remark,
		Status:      record.Status.String(),
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

// OrderLineResponse is one purchase-order line with its remaining
// allocatable quantity for the supplier view
type OrderLineResponse struct {
	ProductID       uuid.UUID       `json:"product_id"`
	ProductName     string          `json:"product_name"`
	OrderedQuantity decimal.Decimal `json:"ordered_quantity"`
	Committed       decimal.Decimal `json:"committed_quantity"`
	Remaining       decimal.Decimal `json:"remaining_quantity"`
}

// OrderSummaryResponse is the read-only order view a verified supplier sees
type OrderSummaryResponse struct {
	PurchaseOrderID uuid.UUID           `json:"purchase_order_id"`
	OrderNumber     string              `json:"order_number"`
	Lines           []OrderLineResponse `json:"lines"`
}

// ToOrderSummaryResponse combines order lines with committed totals
func ToOrderSummaryResponse(order *trade.PurchaseOrder, committed map[uuid.UUID]decimal.Decimal) OrderSummaryResponse {
	lines := make([]OrderLineResponse, 0, len(order.Items))
	for _, item := range order.Items {
		used := committed[item.ProductID]
		remaining := item.OrderedQuantity.Sub(used)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		lines = append(lines, OrderLineResponse{
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			OrderedQuantity: item.OrderedQuantity,
			Committed:       used,
			Remaining:       remaining,
		})
	}
	return OrderSummaryResponse{
		PurchaseOrderID: order.ID,
		OrderNumber:     order.OrderNumber,
		Lines:           lines,
	}
}
