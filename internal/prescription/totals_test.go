// AngelaMos | 2026
// totals_test.go

package prescription

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTotals(t *testing.T) {
	lines := Lines{
		{MedicineID: "m1", Name: "Paracetamol", Quantity: 3, UnitPrice: 0.10},
		{MedicineID: "m2", Name: "Amoxicillin", Quantity: 2, UnitPrice: 12.50, Discount: 1},
		// client supplied totals are ignored
		{MedicineID: "m3", Name: "Syrup", Quantity: 1, UnitPrice: 4.99, LineTotal: 1000},
	}

	priced, totals, err := ComputeTotals(lines, Charges{Discount: 2, TaxRate: 0.08})
	require.NoError(t, err)

	require.Len(t, priced, 3)
	assert.InDelta(t, 0.30, priced[0].LineTotal, 1e-9)
	assert.InDelta(t, 24.00, priced[1].LineTotal, 1e-9)
	assert.InDelta(t, 4.99, priced[2].LineTotal, 1e-9)

	assert.InDelta(t, 29.29, totals.Subtotal, 1e-9)
	assert.InDelta(t, 2.00, totals.Discount, 1e-9)
	assert.InDelta(t, 2.18, totals.Tax, 1e-9)
	assert.InDelta(t, 29.47, totals.Total, 1e-9)

	assert.InDelta(t, 1000, lines[2].LineTotal, 1e-9, "input is not mutated")
}

func TestComputeTotals_ExplicitTax(t *testing.T) {
	tax := 1.5
	_, totals, err := ComputeTotals(
		Lines{{Name: "Cream", Quantity: 1, UnitPrice: 10}},
		Charges{Tax: &tax, TaxRate: 0.2},
	)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, totals.Tax, 1e-9)
	assert.InDelta(t, 11.5, totals.Total, 1e-9)
}

func TestComputeTotals_Rejects(t *testing.T) {
	negTax := -1.0
	tests := []struct {
		name    string
		lines   Lines
		charges Charges
	}{
		{"no lines", nil, Charges{}},
		{"zero quantity", Lines{{Quantity: 0, UnitPrice: 1}}, Charges{}},
		{"negative price", Lines{{Quantity: 1, UnitPrice: -1}}, Charges{}},
		{"line discount above amount", Lines{{Quantity: 1, UnitPrice: 2, Discount: 3}}, Charges{}},
		{"discount above subtotal", Lines{{Quantity: 1, UnitPrice: 2}}, Charges{Discount: 5}},
		{"negative discount", Lines{{Quantity: 1, UnitPrice: 2}}, Charges{Discount: -1}},
		{"negative tax", Lines{{Quantity: 1, UnitPrice: 2}}, Charges{Tax: &negTax}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ComputeTotals(tt.lines, tt.charges)
			assert.ErrorIs(t, err, ErrInvalidPrescription)
		})
	}
}

func TestNewNumber(t *testing.T) {
	now := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	n, err := NewNumber(now)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^RX-20260301-[A-Z2-9]{6}$`), n)
	assert.True(t, validNumber(n))
}

func TestValidNumber(t *testing.T) {
	assert.True(t, validNumber("RX-001"))
	assert.True(t, validNumber("2026/44"))
	assert.False(t, validNumber(""))
	assert.False(t, validNumber("-leading"))
	assert.False(t, validNumber("has space"))
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusPartial, true},
		{StatusPending, StatusDispensed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusReturned, false},
		{StatusPartial, StatusDispensed, true},
		{StatusPartial, StatusPending, false},
		{StatusDispensed, StatusReturned, true},
		{StatusDispensed, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusReturned, StatusDispensed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
		})
	}
}
