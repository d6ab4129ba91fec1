package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// Login handles POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Logout handles POST /api/v1/auth/logout
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), session(c).Token); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me handles GET /api/v1/me
func (h *Handlers) Me(c *gin.Context) {
	user, err := h.auth.Me(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	s := session(c)
	c.JSON(http.StatusOK, gin.H{
		"user":       user,
		"role":       s.Role,
		"expires_at": s.ExpiresAt,
	})
}
