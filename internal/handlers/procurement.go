package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// CreateProcurementOrder handles POST /api/v1/procurement
func (h *Handlers) CreateProcurementOrder(c *gin.Context) {
	var req models.CreateProcurementRequest
	if !h.bindJSON(c, &req) {
		return
	}

	po, err := h.procurement.CreateProcurementOrder(c.Request.Context(), session(c).UserID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, po)
}

// ListProcurementOrders handles GET /api/v1/procurement
func (h *Handlers) ListProcurementOrders(c *gin.Context) {
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}

	orders, total, err := h.procurement.ListProcurementOrders(c.Request.Context(), session(c).UserID, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"procurement_orders": orders,
		"total":              total,
		"limit":              limit,
		"offset":             offset,
	})
}

// GetProcurementOrder handles GET /api/v1/procurement/:id
func (h *Handlers) GetProcurementOrder(c *gin.Context) {
	po, err := h.procurement.GetProcurementOrder(c.Request.Context(), session(c).UserID, c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, po)
}

// UpdateProcurementStatus handles PATCH /api/v1/procurement/:id/status
func (h *Handlers) UpdateProcurementStatus(c *gin.Context) {
	var req models.UpdateProcurementStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	po, err := h.procurement.UpdateProcurementStatus(c.Request.Context(), session(c).UserID, c.Param("id"), req.Status)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, po)
}
