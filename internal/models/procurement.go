package models

import (
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/pricing"
)

// ProcurementStatus is the state of a vendor stock purchase.
type ProcurementStatus string

const (
	ProcurementStatusRequested ProcurementStatus = "requested"
	ProcurementStatusApproved  ProcurementStatus = "approved"
	ProcurementStatusRejected  ProcurementStatus = "rejected"
	ProcurementStatusReceived  ProcurementStatus = "received"
)

// ProcurementOrder is a vendor's purchase of stock.
type ProcurementOrder struct {
	ID        string            `json:"id"`
	VendorID  string            `json:"vendor_id"`
	Status    ProcurementStatus `json:"status"`
	Items     []OrderItem       `json:"items"`
	Breakdown pricing.Breakdown `json:"breakdown"`
	Notes     string            `json:"notes,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// LineItems converts the procurement items into pricing line items.
func (p *ProcurementOrder) LineItems() []pricing.LineItem {
	return toLineItems(p.Items)
}

// ProcurementItemRequest is one requested product line.
type ProcurementItemRequest struct {
	ProductID string   `json:"product_id"`
	Quantity  *float64 `json:"quantity"`
	// UnitPrice overrides the catalog price when the vendor negotiated one.
	UnitPrice *float64 `json:"unit_price"`
}

// CreateProcurementRequest raises a procurement order.
type CreateProcurementRequest struct {
	Items []ProcurementItemRequest `json:"items"`
	Notes string                   `json:"notes"`
}

// UpdateProcurementStatusRequest moves a procurement order forward.
type UpdateProcurementStatusRequest struct {
	Status ProcurementStatus `json:"status" binding:"required"`
}
