package handler

import (
	appsharing "github.com/erp/supply-portal/internal/application/sharing"
	"github.com/erp/supply-portal/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ShareAdminHandler serves the staff-facing share-link management endpoints
type ShareAdminHandler struct {
	BaseHandler
	links   *appsharing.ShareLinkService
	records *appsharing.SupplyRecordService
}

// NewShareAdminHandler creates a share admin handler
func NewShareAdminHandler(links *appsharing.ShareLinkService, records *appsharing.SupplyRecordService) *ShareAdminHandler {
	return &ShareAdminHandler{
		links:   links,
		records: records,
	}
}

// CreateShareLink handles POST /api/v1/trade/purchase-orders/:id/share
func (h *ShareAdminHandler) CreateShareLink(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	var req appsharing.ShareLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	link, err := h.links.Create(c.Request.Context(), orderID, getOperator(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, link)
}

// ConfigureShareLink handles PUT /api/v1/trade/purchase-orders/:id/share.
// Settings change; the share code itself never does.
func (h *ShareAdminHandler) ConfigureShareLink(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	var req appsharing.ShareLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	link, err := h.links.Configure(c.Request.Context(), orderID, getOperator(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, link)
}

// DisableShareLink handles DELETE /api/v1/trade/purchase-orders/:id/share
func (h *ShareAdminHandler) DisableShareLink(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	if err := h.links.Disable(c.Request.Context(), orderID, getOperator(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GetShareLink handles GET /api/v1/trade/purchase-orders/:id/share. Returns
// the link in any state, disabled or expired included.
func (h *ShareAdminHandler) GetShareLink(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	link, err := h.links.Get(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, link)
}

// DisableSupplyRecord handles
// PUT /api/v1/trade/purchase-orders/:id/share/records/:recordId/disable.
// Disabled records stop counting toward allocation totals.
func (h *ShareAdminHandler) DisableSupplyRecord(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID format")
		return
	}

	recordID, err := uuid.Parse(c.Param("recordId"))
	if err != nil {
		h.BadRequest(c, "Invalid supply record ID format")
		return
	}

	if err := h.records.DisableRecord(c.Request.Context(), orderID, recordID, getOperator(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
