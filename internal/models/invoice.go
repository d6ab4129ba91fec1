package models

import (
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/pricing"
)

// InvoiceLine is one printed row of an invoice.
type InvoiceLine struct {
	ProductID   string  `json:"product_id"`
	Name        string  `json:"name"`
	Quantity    string  `json:"quantity"`
	UnitPrice   string  `json:"unit_price"`
	Amount      string  `json:"amount"`
	CGSTPercent float64 `json:"cgst_percent"`
	CGST        string  `json:"cgst"`
	SGSTPercent float64 `json:"sgst_percent"`
	SGST        string  `json:"sgst"`
	DeliveryFee string  `json:"delivery_fee"`
}

// Invoice is the rendered bill for an order.
type Invoice struct {
	InvoiceNumber   string                     `json:"invoice_number"`
	OrderID         string                     `json:"order_id"`
	CustomerID      string                     `json:"customer_id"`
	Status          OrderStatus                `json:"status"`
	StatusLabel     string                     `json:"status_label"`
	IssuedAt        time.Time                  `json:"issued_at"`
	ShippingAddress Address                    `json:"shipping_address"`
	Currency        string                     `json:"currency"`
	Lines           []InvoiceLine              `json:"lines"`
	Breakdown       pricing.Breakdown          `json:"breakdown"`
	Formatted       pricing.FormattedBreakdown `json:"formatted"`
}
