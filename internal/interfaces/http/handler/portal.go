package handler

import (
	"errors"
	"net/http"

	appsharing "github.com/erp/supply-portal/internal/application/sharing"
	"github.com/erp/supply-portal/internal/domain/shared"
	"github.com/erp/supply-portal/internal/domain/sharing"
	"github.com/erp/supply-portal/internal/infrastructure/logger"
	"github.com/erp/supply-portal/internal/interfaces/http/dto"
	"github.com/erp/supply-portal/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// accessDeniedMsg is the single message returned for every access failure:
// unknown code, expired, disabled, bad extract code, exhausted limit, rate
// limited. Suppliers never learn which gate rejected them.
const accessDeniedMsg = "share link is invalid or unavailable"

// PortalHandler serves the public supplier portal. All responses use the
// portal envelope and domain failures come back as HTTP 200 with code 1;
// only transport-level failures keep their HTTP status.
type PortalHandler struct {
	access  *appsharing.AccessService
	records *appsharing.SupplyRecordService
}

// NewPortalHandler creates a portal handler
func NewPortalHandler(access *appsharing.AccessService, records *appsharing.SupplyRecordService) *PortalHandler {
	return &PortalHandler{
		access:  access,
		records: records,
	}
}

type verifyRequest struct {
	ExtractCode string `json:"extract_code"`
}

// verifyResponse bundles the verification result with the order summary so
// the supplier page renders from one round trip.
type verifyResponse struct {
	PurchaseOrderID uuid.UUID                       `json:"purchase_order_id"`
	Order           appsharing.OrderSummaryResponse `json:"order"`
}

// Verify handles POST /api/v1/portal/share/:code/verify. The one endpoint
// that consumes the access counter.
func (h *PortalHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, dto.NewPortalError("invalid request body"))
			return
		}
	}

	shareCode := c.Param("code")
	result, err := h.access.Verify(c.Request.Context(), shareCode, req.ExtractCode, c.ClientIP())
	if err != nil {
		h.portalError(c, err)
		return
	}

	order, err := h.records.OrderSummary(c.Request.Context(), shareCode, req.ExtractCode)
	if err != nil {
		h.portalError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPortalSuccess(verifyResponse{
		PurchaseOrderID: result.PurchaseOrderID,
		Order:           *order,
	}))
}

// GetOrder handles GET /api/v1/portal/share/:code/order
func (h *PortalHandler) GetOrder(c *gin.Context) {
	summary, err := h.records.OrderSummary(c.Request.Context(), c.Param("code"), c.Query("extract_code"))
	if err != nil {
		h.portalError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPortalSuccess(summary))
}

// ListRecords handles GET /api/v1/portal/share/:code/records
func (h *PortalHandler) ListRecords(c *gin.Context) {
	records, err := h.records.List(c.Request.Context(), c.Param("code"), c.Query("extract_code"))
	if err != nil {
		h.portalError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPortalSuccess(records))
}

// GetRecord handles GET /api/v1/portal/share/:code/records/:id
func (h *PortalHandler) GetRecord(c *gin.Context) {
	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusOK, dto.NewPortalError("invalid record id"))
		return
	}

	record, err := h.records.Get(c.Request.Context(), c.Param("code"), c.Query("extract_code"), recordID)
	if err != nil {
		h.portalError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPortalSuccess(record))
}

type submitRequest struct {
	ExtractCode string `json:"extract_code"`
	appsharing.SupplyRecordRequest
}

// CreateRecord handles POST /api/v1/portal/share/:code/records
func (h *PortalHandler) CreateRecord(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindingError(c, err)
		return
	}

	record, err := h.records.Create(c.Request.Context(), c.Param("code"), req.ExtractCode, c.ClientIP(), req.SupplyRecordRequest)
	if err != nil {
		h.portalError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPortalSuccess(record))
}

// UpdateRecord handles PUT /api/v1/portal/share/:code/records/:id. The
// submitted items fully replace the stored ones.
func (h *PortalHandler) UpdateRecord(c *gin.Context) {
	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusOK, dto.NewPortalError("invalid record id"))
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindingError(c, err)
		return
	}

	record, err := h.records.Update(c.Request.Context(), c.Param("code"), req.ExtractCode, c.ClientIP(), recordID, req.SupplyRecordRequest)
	if err != nil {
		h.portalError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPortalSuccess(record))
}

// bindingError reports a malformed or invalid request body. Field-level
// validation failures carry the structured detail list.
func (h *PortalHandler) bindingError(c *gin.Context, err error) {
	if details := middleware.ValidationDetails(err); len(details) > 0 {
		c.JSON(http.StatusOK, dto.NewPortalErrorWithData("validation failed", gin.H{"errors": details}))
		return
	}
	c.JSON(http.StatusOK, dto.NewPortalError("invalid request body"))
}

// portalError maps service errors onto the portal envelope. Every access
// denial collapses to one generic message; allocation failures are the only
// category returned with detail.
func (h *PortalHandler) portalError(c *gin.Context, err error) {
	var exceeded *sharing.AllocationExceededError
	if errors.As(err, &exceeded) {
		c.JSON(http.StatusOK, dto.NewPortalErrorWithData(
			"requested quantities exceed the ordered quantities",
			exceeded.Result,
		))
		return
	}

	if errors.Is(err, shared.ErrAccessDenied) {
		c.JSON(http.StatusOK, dto.NewPortalError(accessDeniedMsg))
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		c.JSON(http.StatusOK, dto.NewPortalError(domainErr.Message))
		return
	}

	logger.FromContext(c.Request.Context()).Error("portal request failed",
		zap.String("share_code", c.Param("code")),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.NewPortalError("internal error"))
}
