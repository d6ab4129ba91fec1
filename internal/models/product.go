package models

import "github.com/tm-acme-shop/acme-shop-storefront-service/internal/pricing"

// Product is a catalog entry after boundary normalization.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	VendorID    string  `json:"vendor_id,omitempty"`
	UnitPrice   float64 `json:"unit_price"`
	CGSTPercent float64 `json:"cgst_percent"`
	SGSTPercent float64 `json:"sgst_percent"`
	DeliveryFee float64 `json:"delivery_fee"`
	StockKg     float64 `json:"stock_kg"`
}

// Rate returns the tax attributes used for pricing.
func (p Product) Rate() pricing.Rate {
	return pricing.Rate{
		ProductID:   p.ID,
		CGSTPercent: p.CGSTPercent,
		SGSTPercent: p.SGSTPercent,
		DeliveryFee: p.DeliveryFee,
	}
}

// Rates converts a catalog into pricing rates, preserving order.
func Rates(products []Product) []pricing.Rate {
	rates := make([]pricing.Rate, 0, len(products))
	for _, p := range products {
		rates = append(rates, p.Rate())
	}
	return rates
}

// FindProduct returns the first product with the given id.
func FindProduct(products []Product, id string) (Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
