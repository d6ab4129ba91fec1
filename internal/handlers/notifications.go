package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ListNotifications handles GET /api/v1/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}
	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))

	userID := session(c).UserID
	items, total, err := h.notifications.List(c.Request.Context(), userID, unreadOnly, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	unread, err := h.notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": items,
		"total":         total,
		"unread":        unread,
	})
}

// MarkNotificationRead handles POST /api/v1/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	if err := h.notifications.MarkRead(c.Request.Context(), session(c).UserID, c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkAllNotificationsRead handles POST /api/v1/notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	n, err := h.notifications.MarkAllRead(c.Request.Context(), session(c).UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": n})
}
