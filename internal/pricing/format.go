package pricing

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Sanitize replaces NaN and infinities with zero.
func Sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Round2 sanitizes v and rounds it half away from zero to two decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(Sanitize(v)).Round(2).Float64()
	return f
}

// Display returns a copy of b rounded for presentation.
func (b Breakdown) Display() Breakdown {
	return Breakdown{
		Subtotal:    Round2(b.Subtotal),
		CGST:        Round2(b.CGST),
		SGST:        Round2(b.SGST),
		DeliveryFee: Round2(b.DeliveryFee),
		Total:       Round2(b.Total),
	}
}

// Display returns a copy of l rounded for presentation.
func (l Line) Display() Line {
	l.Amount = Round2(l.Amount)
	l.CGST = Round2(l.CGST)
	l.SGST = Round2(l.SGST)
	l.DeliveryFee = Round2(l.DeliveryFee)
	l.UnitPrice = Round2(l.UnitPrice)
	return l
}

// FormattedBreakdown carries the currency strings shown to users.
type FormattedBreakdown struct {
	Subtotal    string `json:"subtotal"`
	CGST        string `json:"cgst"`
	SGST        string `json:"sgst"`
	DeliveryFee string `json:"delivery_fee"`
	Total       string `json:"total"`
}

// Formatter renders amounts as currency strings with thousands grouping.
type Formatter struct {
	symbol  string
	printer *message.Printer
}

// NewFormatter builds a formatter that prefixes amounts with symbol.
func NewFormatter(symbol string) *Formatter {
	return &Formatter{
		symbol:  symbol,
		printer: message.NewPrinter(language.English),
	}
}

// Amount formats v, e.g. "₹1,234.50".
func (f *Formatter) Amount(v float64) string {
	r := Round2(v)
	if r < 0 {
		return "-" + f.symbol + f.printer.Sprintf("%.2f", -r)
	}
	return f.symbol + f.printer.Sprintf("%.2f", r)
}

// Breakdown formats every field of b.
func (f *Formatter) Breakdown(b Breakdown) FormattedBreakdown {
	return FormattedBreakdown{
		Subtotal:    f.Amount(b.Subtotal),
		CGST:        f.Amount(b.CGST),
		SGST:        f.Amount(b.SGST),
		DeliveryFee: f.Amount(b.DeliveryFee),
		Total:       f.Amount(b.Total),
	}
}

// Quantity formats a weight in kilograms with up to three decimals, e.g. "2.5 kg".
func (f *Formatter) Quantity(kg float64) string {
	return decimal.NewFromFloat(Sanitize(kg)).Round(3).String() + " kg"
}
