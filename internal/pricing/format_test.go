package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{2.675, 2.68},
		{2.674, 2.67},
		{-1.005, -1.01},
		{100, 100},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{math.Inf(-1), 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Round2(tt.in), "Round2(%v)", tt.in)
	}
}

func TestBreakdownDisplay(t *testing.T) {
	b := Breakdown{Subtotal: 33.333333, CGST: 0.8333333, SGST: 0.8333333, DeliveryFee: 9.999, Total: 44.999966}
	d := b.Display()

	assert.Equal(t, 33.33, d.Subtotal)
	assert.Equal(t, 0.83, d.CGST)
	assert.Equal(t, 0.83, d.SGST)
	assert.Equal(t, 10.0, d.DeliveryFee)
	assert.Equal(t, 45.0, d.Total)
}

func TestFormatterAmount(t *testing.T) {
	f := NewFormatter("₹")

	assert.Equal(t, "₹130.00", f.Amount(130))
	assert.Equal(t, "₹0.50", f.Amount(0.499999))
	assert.Equal(t, "-₹5.00", f.Amount(-5))
	assert.Equal(t, "₹0.00", f.Amount(math.NaN()))
	assert.Equal(t, "₹1,234.50", f.Amount(1234.5))
}

func TestFormatterBreakdown(t *testing.T) {
	f := NewFormatter("₹")
	got := f.Breakdown(Breakdown{Subtotal: 100, CGST: 5, SGST: 5, DeliveryFee: 20, Total: 130})

	assert.Equal(t, FormattedBreakdown{
		Subtotal:    "₹100.00",
		CGST:        "₹5.00",
		SGST:        "₹5.00",
		DeliveryFee: "₹20.00",
		Total:       "₹130.00",
	}, got)
}

func TestFormatterQuantity(t *testing.T) {
	f := NewFormatter("₹")

	assert.Equal(t, "2.5 kg", f.Quantity(2.5))
	assert.Equal(t, "2 kg", f.Quantity(2))
	assert.Equal(t, "0.333 kg", f.Quantity(1.0/3))
}
