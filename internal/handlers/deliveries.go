package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListDeliveries handles GET /api/v1/deliveries
func (h *Handlers) ListDeliveries(c *gin.Context) {
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}

	cards, total, err := h.deliveries.ListDeliveries(c.Request.Context(), session(c).UserID, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deliveries": cards,
		"total":      total,
		"limit":      limit,
		"offset":     offset,
	})
}

// MarkDelivered handles POST /api/v1/deliveries/:id/delivered
func (h *Handlers) MarkDelivered(c *gin.Context) {
	order, err := h.deliveries.MarkDelivered(c.Request.Context(), session(c).UserID, c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.orderJSON(order))
}
