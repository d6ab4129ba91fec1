package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// ListProducts handles GET /api/v1/products
func (h *Handlers) ListProducts(c *gin.Context) {
	var (
		products []models.Product
		err      error
	)
	if vendorID := c.Query("vendor_id"); vendorID != "" {
		products, err = h.catalog.ProductsForVendor(c.Request.Context(), vendorID)
	} else {
		products, err = h.catalog.ListProducts(c.Request.Context())
	}
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetProduct handles GET /api/v1/products/:id
func (h *Handlers) GetProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// VendorProducts handles GET /api/v1/vendor/products
func (h *Handlers) VendorProducts(c *gin.Context) {
	products, err := h.catalog.ProductsForVendor(c.Request.Context(), session(c).UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// RefreshCatalog handles POST /api/v1/vendor/products/refresh
func (h *Handlers) RefreshCatalog(c *gin.Context) {
	if err := h.catalog.Refresh(c.Request.Context()); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
