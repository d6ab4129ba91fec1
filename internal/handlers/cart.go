package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// GetCart handles GET /api/v1/cart
func (h *Handlers) GetCart(c *gin.Context) {
	priced, err := h.carts.PriceCart(c.Request.Context(), session(c).UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, priced)
}

// AddCartItem handles POST /api/v1/cart/items
func (h *Handlers) AddCartItem(c *gin.Context) {
	var req models.AddCartItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID := session(c).UserID
	if _, err := h.carts.AddItem(c.Request.Context(), userID, &req); err != nil {
		h.handleError(c, err)
		return
	}
	h.respondCart(c, userID)
}

// UpdateCartItem handles PUT /api/v1/cart/items/:product_id
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	var req models.UpdateCartItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID := session(c).UserID
	if _, err := h.carts.UpdateItem(c.Request.Context(), userID, c.Param("product_id"), *req.Quantity); err != nil {
		h.handleError(c, err)
		return
	}
	h.respondCart(c, userID)
}

// RemoveCartItem handles DELETE /api/v1/cart/items/:product_id
func (h *Handlers) RemoveCartItem(c *gin.Context) {
	userID := session(c).UserID
	if _, err := h.carts.RemoveItem(c.Request.Context(), userID, c.Param("product_id")); err != nil {
		h.handleError(c, err)
		return
	}
	h.respondCart(c, userID)
}

// ClearCart handles DELETE /api/v1/cart
func (h *Handlers) ClearCart(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), session(c).UserID); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// respondCart answers cart mutations with the repriced cart.
func (h *Handlers) respondCart(c *gin.Context, userID string) {
	priced, err := h.carts.PriceCart(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, priced)
}
