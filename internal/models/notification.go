package models

import "time"

// NotificationKind groups notifications in the panel.
type NotificationKind string

const (
	NotificationOrderPlaced       NotificationKind = "order_placed"
	NotificationOrderStatus       NotificationKind = "order_status"
	NotificationDeliveryAssigned  NotificationKind = "delivery_assigned"
	NotificationProcurementStatus NotificationKind = "procurement_status"
)

// Notification is an entry in a user's notification panel.
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Kind      NotificationKind  `json:"kind"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}

// NotificationFilter narrows a notification listing.
type NotificationFilter struct {
	UserID     string
	UnreadOnly bool
	Limit      int
	Offset     int
}
