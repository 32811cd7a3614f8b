package sharing

import (
	"time"

	"github.com/erp/supply-portal/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplyRecordStatus represents the status of a supply record
type SupplyRecordStatus string

const (
	SupplyRecordStatusActive   SupplyRecordStatus = "ACTIVE"
	SupplyRecordStatusDisabled SupplyRecordStatus = "DISABLED"
)

// String returns the string representation of SupplyRecordStatus
func (s SupplyRecordStatus) String() string {
	return string(s)
}

// SupplierInfo identifies the external supplier behind a submission
type SupplierInfo struct {
	Name          string `gorm:"column:supplier_name;type:varchar(200);not null" json:"name"`
	ContactPerson string `gorm:"column:contact_person;type:varchar(100);not null" json:"contact_person"`
	ContactPhone  string `gorm:"column:contact_phone;type:varchar(50);not null" json:"contact_phone"`
	Remark        string `gorm:"column:supplier_remark;type:varchar(500)" json:"remark,omitempty"`
}

// Validate checks the required supplier fields
func (s SupplierInfo) Validate() error {
	if s.Name == "" {
		return shared.NewDomainError("INVALID_SUPPLIER", "Supplier name is required")
	}
	if s.ContactPerson == "" {
		return shared.NewDomainError("INVALID_SUPPLIER", "Contact person is required")
	}
	if s.ContactPhone == "" {
		return shared.NewDomainError("INVALID_SUPPLIER", "Contact phone is required")
	}
	return nil
}

// SupplyRecordItem is one committed product line of a supply record. Items
// are owned by their record and replaced wholesale on update, never diffed.
type SupplyRecordItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	SupplyRecordID uuid.UUID       `gorm:"type:uuid;not null;index" json:"supply_record_id"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	TotalPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_price"`
	Remark         string          `gorm:"type:varchar(500)" json:"remark,omitempty"`
	CreatedAt      time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName returns the table name for GORM
func (SupplyRecordItem) TableName() string {
	return "supply_record_items"
}

// NewSupplyRecordItem creates a record item. A zero total price is computed
// as quantity * unit price.
func NewSupplyRecordItem(recordID, productID uuid.UUID, quantity, unitPrice, totalPrice decimal.Decimal, remark string) (*SupplyRecordItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if totalPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Total price cannot be negative")
	}
	if totalPrice.IsZero() {
		totalPrice = quantity.Mul(unitPrice)
	}

	now := time.Now()
	return &SupplyRecordItem{
		ID:             uuid.New(),
		SupplyRecordID: recordID,
		ProductID:      productID,
		Quantity:       quantity,
		UnitPrice:      unitPrice,
		TotalPrice:     totalPrice,
		Remark:         remark,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// SupplyRecord is a supplier's itemized delivery commitment against one
// purchase order, created only through a verified share-link flow.
type SupplyRecord struct {
	shared.BaseEntity
	PurchaseOrderID uuid.UUID          `gorm:"type:uuid;not null;index" json:"purchase_order_id"`
	ShareCode       string             `gorm:"type:varchar(32);not null;index" json:"share_code"`
	Supplier        SupplierInfo       `gorm:"embedded" json:"supplier"`
	Items           []SupplyRecordItem `gorm:"foreignKey:SupplyRecordID;references:ID" json:"items"`
	TotalAmount     decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0" json:"total_amount"`
	Remark          string             `gorm:"type:varchar(1000)" json:"remark,omitempty"`
	Status          SupplyRecordStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	DisabledAt      *time.Time         `json:"disabled_at,omitempty"`
}

// TableName returns the table name for GORM
func (SupplyRecord) TableName() string {
	return "supply_records"
}

// ItemInput is the caller-provided shape of one item line
type ItemInput struct {
	ProductID  uuid.UUID
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
	Remark     string
}

// NewSupplyRecord creates an active supply record with its items
func NewSupplyRecord(purchaseOrderID uuid.UUID, shareCode string, supplier SupplierInfo, items []ItemInput, totalAmount decimal.Decimal, remark string) (*SupplyRecord, error) {
	if purchaseOrderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Purchase order ID cannot be empty")
	}
	if shareCode == "" {
		return nil, shared.NewDomainError("INVALID_SHARE_CODE", "Share code cannot be empty")
	}
	if err := supplier.Validate(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Supply record must have at least one item")
	}
	if totalAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total amount cannot be negative")
	}

	record := &SupplyRecord{
		BaseEntity:      shared.NewBaseEntity(),
		PurchaseOrderID: purchaseOrderID,
		ShareCode:       shareCode,
		Supplier:        supplier,
		TotalAmount:     totalAmount,
		Remark:          remark,
		Status:          SupplyRecordStatusActive,
	}

	if err := record.setItems(items); err != nil {
		return nil, err
	}

	return record, nil
}

// Replace swaps the record content with a fresh submission. The prior item
// set is discarded entirely; items absent from the new payload are dropped.
func (r *SupplyRecord) Replace(supplier SupplierInfo, items []ItemInput, totalAmount decimal.Decimal, remark string) error {
	if !r.IsActive() {
		return shared.NewDomainError("INVALID_STATE", "Cannot amend a disabled supply record")
	}
	if err := supplier.Validate(); err != nil {
		return err
	}
	if len(items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Supply record must have at least one item")
	}
	if totalAmount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Total amount cannot be negative")
	}

	if err := r.setItems(items); err != nil {
		return err
	}

	r.Supplier = supplier
	r.TotalAmount = totalAmount
	r.Remark = remark
	r.UpdatedAt = time.Now()

	return nil
}

// Disable marks the record disabled so its quantities stop counting against
// the order's allocation ceiling. Administrative action; not reversible here.
func (r *SupplyRecord) Disable() error {
	if !r.IsActive() {
		return shared.NewDomainError("INVALID_STATE", "Supply record is already disabled")
	}
	now := time.Now()
	r.Status = SupplyRecordStatusDisabled
	r.DisabledAt = &now
	r.UpdatedAt = now
	return nil
}

// IsActive returns true if the record counts against the allocation ceiling
func (r *SupplyRecord) IsActive() bool {
	return r.Status == SupplyRecordStatusActive
}

// BelongsTo checks the record's (order, share code) binding
func (r *SupplyRecord) BelongsTo(purchaseOrderID uuid.UUID, shareCode string) bool {
	return r.PurchaseOrderID == purchaseOrderID && r.ShareCode == shareCode
}

// QuantityByProduct sums the record's own quantities per product
func (r *SupplyRecord) QuantityByProduct() map[uuid.UUID]decimal.Decimal {
	totals := make(map[uuid.UUID]decimal.Decimal, len(r.Items))
	for _, item := range r.Items {
		totals[item.ProductID] = totals[item.ProductID].Add(item.Quantity)
	}
	return totals
}

func (r *SupplyRecord) setItems(items []ItemInput) error {
	built := make([]SupplyRecordItem, 0, len(items))
	for _, in := range items {
		item, err := NewSupplyRecordItem(r.ID, in.ProductID, in.Quantity, in.UnitPrice, in.TotalPrice, in.Remark)
		if err != nil {
			return err
		}
		built = append(built, *item)
	}
	r.Items = built
	return nil
}
