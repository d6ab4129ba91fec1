package models

import (
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/pricing"
)

// CartItem is a product selection in a cart.
type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name,omitempty"`
	Quantity  float64 `json:"quantity"`
	// UnitPrice is the catalog price when the item was added; checkout re-reads the catalog.
	UnitPrice float64 `json:"unit_price"`
}

// Cart is a user's pending selection.
type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// LineItems converts the cart into pricing line items.
func (c *Cart) LineItems() []pricing.LineItem {
	items := make([]pricing.LineItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, pricing.LineItem{
			ProductID: it.ProductID,
			Quantity:  pricing.Quantity(it.Quantity),
			UnitPrice: it.UnitPrice,
		})
	}
	return items
}

// PricedCart is a cart together with its price breakdown.
type PricedCart struct {
	Cart      *Cart                      `json:"cart"`
	Breakdown pricing.Breakdown          `json:"breakdown"`
	Formatted pricing.FormattedBreakdown `json:"formatted"`
	// CatalogUnavailable is set when taxes could not be computed because the catalog failed to load.
	CatalogUnavailable bool `json:"catalog_unavailable,omitempty"`
}

// AddCartItemRequest adds a product to the cart.
type AddCartItemRequest struct {
	ProductID string   `json:"product_id" binding:"required"`
	Quantity  *float64 `json:"quantity"`
}

// UpdateCartItemRequest sets the quantity of a cart line. An explicit zero removes the line.
type UpdateCartItemRequest struct {
	Quantity *float64 `json:"quantity" binding:"required"`
}
