// AngelaMos | 2026
// totals.go

package prescription

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/pharmahub/internal/core"
)

var ErrInvalidPrescription = fmt.Errorf("invalid prescription: %w", core.ErrInvalidInput)

// Charges are the order-level adjustments applied on top of the lines.
// A nil Tax means derive it from the tenant's rate.
type Charges struct {
	Discount float64
	Tax      *float64
	TaxRate  float64
}

// ComputeTotals prices every line and derives the order totals. Client
// supplied line totals are ignored. All amounts are rounded to cents.
func ComputeTotals(lines Lines, c Charges) (Lines, Totals, error) {
	if len(lines) == 0 {
		return nil, Totals{}, fmt.Errorf("%w: at least one line is required", ErrInvalidPrescription)
	}

	priced := make(Lines, len(lines))
	subtotal := decimal.Zero

	for i, l := range lines {
		if l.Quantity <= 0 {
			return nil, Totals{}, fmt.Errorf("%w: line %d quantity must be positive", ErrInvalidPrescription, i+1)
		}
		if l.UnitPrice < 0 || l.Discount < 0 {
			return nil, Totals{}, fmt.Errorf("%w: line %d amounts cannot be negative", ErrInvalidPrescription, i+1)
		}

		gross := decimal.NewFromFloat(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity)))
		disc := decimal.NewFromFloat(l.Discount)
		if disc.GreaterThan(gross) {
			return nil, Totals{}, fmt.Errorf("%w: line %d discount exceeds its amount", ErrInvalidPrescription, i+1)
		}

		lineTotal := gross.Sub(disc).Round(2)
		subtotal = subtotal.Add(lineTotal)

		l.LineTotal = lineTotal.InexactFloat64()
		priced[i] = l
	}

	discount := decimal.NewFromFloat(c.Discount).Round(2)
	if discount.IsNegative() || discount.GreaterThan(subtotal) {
		return nil, Totals{}, fmt.Errorf("%w: discount must be between 0 and the subtotal", ErrInvalidPrescription)
	}

	taxable := subtotal.Sub(discount)

	var tax decimal.Decimal
	if c.Tax != nil {
		tax = decimal.NewFromFloat(*c.Tax).Round(2)
		if tax.IsNegative() {
			return nil, Totals{}, fmt.Errorf("%w: tax cannot be negative", ErrInvalidPrescription)
		}
	} else {
		tax = taxable.Mul(decimal.NewFromFloat(c.TaxRate)).Round(2)
	}

	return priced, Totals{
		Subtotal: subtotal.InexactFloat64(),
		Discount: discount.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Total:    taxable.Add(tax).Round(2).InexactFloat64(),
	}, nil
}

const (
	numberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	numberSuffix   = 6
)

var numberPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9/_-]{0,49}$`)

// NewNumber generates RX-YYYYMMDD-XXXXXX. Uniqueness is enforced by the
// store; callers retry on collision.
func NewNumber(now time.Time) (string, error) {
	suffix := make([]byte, numberSuffix)
	limit := big.NewInt(int64(len(numberAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate prescription number: %w", err)
		}
		suffix[i] = numberAlphabet[n.Int64()]
	}
	return fmt.Sprintf("RX-%s-%s", now.UTC().Format("20060102"), suffix), nil
}

func validNumber(n string) bool {
	return numberPattern.MatchString(n)
}
