package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// Checkout handles POST /api/v1/checkout
func (h *Handlers) Checkout(c *gin.Context) {
	var req models.CheckoutRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orders.Checkout(c.Request.Context(), session(c).UserID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.orderJSON(order))
}

// ListOrders handles GET /api/v1/orders
func (h *Handlers) ListOrders(c *gin.Context) {
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}

	filter := &models.OrderListFilter{Limit: limit, Offset: offset}
	if status := c.Query("status"); status != "" {
		s := models.OrderStatus(status)
		filter.Status = &s
	}

	cards, total, err := h.orders.ListOrders(c.Request.Context(), session(c), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": cards,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetOrder handles GET /api/v1/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), session(c), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.orderJSON(order))
}

// UpdateOrderStatus handles PATCH /api/v1/orders/:id/status
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	var req models.UpdateOrderStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orders.UpdateOrderStatus(c.Request.Context(), session(c), c.Param("id"), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.orderJSON(order))
}

// AssignDriver handles POST /api/v1/orders/:id/assign
func (h *Handlers) AssignDriver(c *gin.Context) {
	var req models.AssignDriverRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orders.AssignDriver(c.Request.Context(), session(c), c.Param("id"), req.DriverID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.orderJSON(order))
}

// CancelOrder handles POST /api/v1/orders/:id/cancel
func (h *Handlers) CancelOrder(c *gin.Context) {
	var req models.CancelOrderRequest
	// The body is optional.
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orders.CancelOrder(c.Request.Context(), session(c), c.Param("id"), req.Reason)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.logger.Info("Order cancelled", logging.Fields{"order_id": order.ID})
	c.JSON(http.StatusOK, h.orderJSON(order))
}

// GetInvoice handles GET /api/v1/orders/:id/invoice
func (h *Handlers) GetInvoice(c *gin.Context) {
	invoice, err := h.orders.Invoice(c.Request.Context(), session(c), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}
