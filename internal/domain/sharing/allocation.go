package sharing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CandidateItem is one requested (product, quantity) pair under validation
type CandidateItem struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}

// AllocationError describes one product whose requested quantity would push
// the committed total past the ordered quantity. MaxAllowed is what the
// supplier could still submit for the product.
type AllocationError struct {
	ProductID        uuid.UUID       `json:"product_id"`
	ProductName      string          `json:"product_name,omitempty"`
	OrderedQuantity  decimal.Decimal `json:"ordered_quantity"`
	AlreadyCommitted decimal.Decimal `json:"already_committed"`
	Requested        decimal.Decimal `json:"requested"`
	MaxAllowed       decimal.Decimal `json:"max_allowed"`
}

// AllocationResult is the outcome of a quantity-allocation check
type AllocationResult struct {
	Valid  bool              `json:"valid"`
	Errors []AllocationError `json:"errors,omitempty"`
}

// ValidAllocation returns a passing result
func ValidAllocation() AllocationResult {
	return AllocationResult{Valid: true}
}

// CheckAllocation compares candidates against per-product ceilings and
// committed totals. Products the order never carried fail with a zero
// ceiling. The caller is responsible for excluding the record being edited
// from the committed sums.
func CheckAllocation(lines map[uuid.UUID]OrderCeiling, committed map[uuid.UUID]decimal.Decimal, candidates []CandidateItem) AllocationResult {
	// Aggregate duplicate products within one submission before comparing.
	requested := make(map[uuid.UUID]decimal.Decimal, len(candidates))
	order := make([]uuid.UUID, 0, len(candidates))
	for _, c := range candidates {
		if _, seen := requested[c.ProductID]; !seen {
			order = append(order, c.ProductID)
		}
		requested[c.ProductID] = requested[c.ProductID].Add(c.Quantity)
	}

	var errs []AllocationError
	for _, productID := range order {
		ceiling := lines[productID]
		already := committed[productID]
		req := requested[productID]

		if already.Add(req).GreaterThan(ceiling.OrderedQuantity) {
			maxAllowed := ceiling.OrderedQuantity.Sub(already)
			if maxAllowed.IsNegative() {
				maxAllowed = decimal.Zero
			}
			errs = append(errs, AllocationError{
				ProductID:        productID,
				ProductName:      ceiling.ProductName,
				OrderedQuantity:  ceiling.OrderedQuantity,
				AlreadyCommitted: already,
				Requested:        req,
				MaxAllowed:       maxAllowed,
			})
		}
	}

	if len(errs) > 0 {
		return AllocationResult{Valid: false, Errors: errs}
	}
	return ValidAllocation()
}

// OrderCeiling is the allocation ceiling for one product on an order
type OrderCeiling struct {
	ProductName     string
	OrderedQuantity decimal.Decimal
}

// AllocationExceededError carries the structured per-product detail of a
// failed allocation check. The one error category surfaced to suppliers in
// full detail.
type AllocationExceededError struct {
	Result AllocationResult
}

// Error implements the error interface
func (e *AllocationExceededError) Error() string {
	return "requested quantities exceed the ordered quantities"
}

