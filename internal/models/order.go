package models

import (
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/pricing"
)

// OrderStatus is the fulfilment state of a customer order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusPending:    "Order placed",
	OrderStatusConfirmed:  "Confirmed by vendor",
	OrderStatusProcessing: "Being packed",
	OrderStatusShipped:    "Out for delivery",
	OrderStatusDelivered:  "Delivered",
	OrderStatusCancelled:  "Cancelled",
}

// Label is the human readable status shown on order cards.
func (s OrderStatus) Label() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}
	return "Unknown"
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := orderStatusLabels[s]
	return ok
}

// Address is a delivery address.
type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
}

// OrderItem is a placed line with the catalog price captured at checkout.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	VendorID  string  `json:"vendor_id,omitempty"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Order is a placed customer order.
type Order struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	Status          OrderStatus       `json:"status"`
	Items           []OrderItem       `json:"items"`
	Rates           []pricing.Rate    `json:"rates"`
	Breakdown       pricing.Breakdown `json:"breakdown"`
	ShippingAddress Address           `json:"shipping_address"`
	DriverID        string            `json:"driver_id,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	ShippedAt       *time.Time        `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time        `json:"delivered_at,omitempty"`
}

// LineItems converts the placed items into pricing line items.
func (o *Order) LineItems() []pricing.LineItem {
	return toLineItems(o.Items)
}

// Reprice recomputes the breakdown from the stored items and rates.
func (o *Order) Reprice() {
	o.Breakdown = pricing.Aggregate(o.LineItems(), o.Rates)
}

// CanCancel reports whether the customer may still cancel.
func (o *Order) CanCancel() bool {
	switch o.Status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing:
		return true
	}
	return false
}

// HasVendor reports whether any item of the order was sold by vendorID.
func (o *Order) HasVendor(vendorID string) bool {
	for _, it := range o.Items {
		if it.VendorID == vendorID {
			return true
		}
	}
	return false
}

// Vendors returns the distinct vendors of the order's items in item order.
func (o *Order) Vendors() []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, it := range o.Items {
		if it.VendorID == "" || seen[it.VendorID] {
			continue
		}
		seen[it.VendorID] = true
		out = append(out, it.VendorID)
	}
	return out
}

func toLineItems(items []OrderItem) []pricing.LineItem {
	out := make([]pricing.LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, pricing.LineItem{
			ProductID: it.ProductID,
			Quantity:  pricing.Quantity(it.Quantity),
			UnitPrice: it.UnitPrice,
		})
	}
	return out
}

// OrderCard is the condensed order shown in dashboard lists.
type OrderCard struct {
	ID             string      `json:"id"`
	Status         OrderStatus `json:"status"`
	StatusLabel    string      `json:"status_label"`
	ItemCount      int         `json:"item_count"`
	Total          float64     `json:"total"`
	FormattedTotal string      `json:"formatted_total"`
	DriverID       string      `json:"driver_id,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// OrderListFilter narrows order listings.
type OrderListFilter struct {
	UserID   string
	VendorID string
	DriverID string
	Status   *OrderStatus
	Limit    int
	Offset   int
}

// CheckoutRequest places the current cart as an order.
type CheckoutRequest struct {
	ShippingAddress Address `json:"shipping_address"`
	Notes           string  `json:"notes"`
}

// UpdateOrderStatusRequest moves an order to a new status.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
	Notes  string      `json:"notes"`
}

// AssignDriverRequest hands a packed order to a driver.
type AssignDriverRequest struct {
	DriverID string `json:"driver_id" binding:"required"`
}

// CancelOrderRequest cancels an order.
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}
