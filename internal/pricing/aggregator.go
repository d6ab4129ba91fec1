// Package pricing computes order price breakdowns from line items and product tax rates.
//
// Every screen that shows money (cart, checkout, order cards, invoices, procurement orders)
// goes through Aggregate so the arithmetic lives in one place. Amounts accumulate as
// unrounded float64; rounding happens only in Display and the Formatter.
package pricing

// LineItem is one product line of a cart or order.
type LineItem struct {
	ProductID string `json:"product_id"`
	// Quantity is in kilograms. Nil means the caller did not specify one and counts as 1.
	Quantity  *float64 `json:"quantity,omitempty"`
	UnitPrice float64  `json:"unit_price"`
}

// Qty returns the effective quantity of the line.
func (li LineItem) Qty() float64 {
	if li.Quantity == nil {
		return 1
	}
	return *li.Quantity
}

// Quantity returns a pointer to q for building line items.
func Quantity(q float64) *float64 {
	return &q
}

// Rate holds the tax and delivery attributes of a product.
type Rate struct {
	ProductID   string  `json:"product_id"`
	CGSTPercent float64 `json:"cgst_percent"`
	SGSTPercent float64 `json:"sgst_percent"`
	DeliveryFee float64 `json:"delivery_fee"`
}

// Breakdown is the derived price summary of a set of line items.
type Breakdown struct {
	Subtotal    float64 `json:"subtotal"`
	CGST        float64 `json:"cgst"`
	SGST        float64 `json:"sgst"`
	DeliveryFee float64 `json:"delivery_fee"`
	Total       float64 `json:"total"`
}

// Line is the priced detail of a single line item.
type Line struct {
	ProductID   string  `json:"product_id"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
	CGST        float64 `json:"cgst"`
	SGST        float64 `json:"sgst"`
	DeliveryFee float64 `json:"delivery_fee"`
	// Matched is false when no rate was found for the product.
	Matched bool `json:"matched"`
}

// Aggregate prices items against rates.
//
// A line whose product has no rate still counts toward the subtotal but adds no tax and no
// delivery fee. The delivery fee is added once per line, so two lines of the same product pay
// it twice. Aggregate never fails; NaN and infinities propagate and are zeroed by Display.
func Aggregate(items []LineItem, rates []Rate) Breakdown {
	var b Breakdown
	for _, item := range items {
		line := priceLine(item, rates)
		b.Subtotal += line.Amount
		b.CGST += line.CGST
		b.SGST += line.SGST
		b.DeliveryFee += line.DeliveryFee
	}
	b.Total = b.Subtotal + b.CGST + b.SGST + b.DeliveryFee
	return b
}

// Lines prices each item individually, in input order.
func Lines(items []LineItem, rates []Rate) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, priceLine(item, rates))
	}
	return lines
}

// LineTotal is quantity times unit price.
func LineTotal(item LineItem) float64 {
	return item.Qty() * item.UnitPrice
}

func priceLine(item LineItem, rates []Rate) Line {
	line := Line{
		ProductID: item.ProductID,
		Quantity:  item.Qty(),
		UnitPrice: item.UnitPrice,
		Amount:    LineTotal(item),
	}

	rate, ok := findRate(rates, item.ProductID)
	if !ok {
		return line
	}

	line.Matched = true
	line.CGST = line.Amount * rate.CGSTPercent / 100
	line.SGST = line.Amount * rate.SGSTPercent / 100
	line.DeliveryFee = rate.DeliveryFee
	return line
}

func findRate(rates []Rate, productID string) (Rate, bool) {
	for _, r := range rates {
		if r.ProductID == productID {
			return r, true
		}
	}
	return Rate{}, false
}
