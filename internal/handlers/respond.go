package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/pricing"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/requestctx"
)

// orderResponse is an order with its breakdown rounded for display and rendered as currency.
type orderResponse struct {
	*models.Order
	Breakdown pricing.Breakdown          `json:"breakdown"`
	Formatted pricing.FormattedBreakdown `json:"formatted"`
}

func (h *Handlers) orderJSON(o *models.Order) orderResponse {
	return orderResponse{
		Order:     o,
		Breakdown: o.Breakdown.Display(),
		Formatted: h.orders.Formatted(o),
	}
}

// session returns the caller's session. Routes behind Authenticate always have one.
func session(c *gin.Context) *models.Session {
	s, _ := requestctx.Session(c.Request.Context())
	return s
}

// pageParams reads limit and offset. Malformed values are a 400; range checks happen in the services.
func pageParams(c *gin.Context) (int, int, bool) {
	limit, offset := 0, 0
	if s := c.Query("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return 0, 0, false
		}
		limit = v
	}
	if s := c.Query("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
			return 0, 0, false
		}
		offset = v
	}
	return limit, offset, true
}

func (h *Handlers) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Warn("Failed to bind request", logging.Fields{
			"path":  c.FullPath(),
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

func (h *Handlers) handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var validationErr *errors.ValidationError
	var upstreamErr *errors.UpstreamError

	switch {
	case errors.Is(err, errors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, errors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, errors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   validationErr.Message,
			"details": validationErr.Details,
		})
	case errors.As(err, &upstreamErr):
		h.logger.Error("Upstream request failed", logging.Fields{
			"service":    upstreamErr.Service,
			"request_id": requestctx.RequestID(c.Request.Context()),
			"error":      err.Error(),
		})
		c.JSON(http.StatusBadGateway, gin.H{"error": upstreamErr.Service + " service unavailable"})
	default:
		h.logger.Error("Request failed", logging.Fields{
			"path":       c.FullPath(),
			"request_id": requestctx.RequestID(c.Request.Context()),
			"error":      err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
