// AngelaMos | 2026
// entity.go

package medicine

import (
	"time"

	"github.com/carterperez-dev/pharmahub/internal/core"
)

type Medicine struct {
	ID                   string         `db:"id"`
	TenantID             string         `db:"tenant_id"`
	Name                 string         `db:"name"`
	GenericName          string         `db:"generic_name"`
	Manufacturer         string         `db:"manufacturer"`
	Category             string         `db:"category"`
	SKU                  string         `db:"sku"`
	BatchNumber          string         `db:"batch_number"`
	Description          string         `db:"description"`
	RequiresPrescription bool           `db:"requires_prescription"`
	StockCurrent         int            `db:"stock_current"`
	StockMinimum         int            `db:"stock_minimum"`
	StockMaximum         int            `db:"stock_maximum"`
	StockReserved        int            `db:"stock_reserved"`
	CostPrice            float64        `db:"cost_price"`
	SellingPrice         float64        `db:"selling_price"`
	MRP                  float64        `db:"mrp"`
	ManufactureDate      *time.Time     `db:"manufacture_date"`
	ExpiryDate           time.Time      `db:"expiry_date"`
	Status               core.Lifecycle `db:"status"`
	LastUpdated          time.Time      `db:"last_updated"`
	CreatedAt            time.Time      `db:"created_at"`
}

func (m *Medicine) IsActive() bool {
	return m.Status.IsActive()
}

// Available is stock that is on hand and not reserved.
func (m *Medicine) Available() int {
	if a := m.StockCurrent - m.StockReserved; a > 0 {
		return a
	}
	return 0
}

type StockStatus string

const (
	OutOfStock StockStatus = "out_of_stock"
	LowStock   StockStatus = "low_stock"
	Overstock  StockStatus = "overstock"
	InStock    StockStatus = "in_stock"
)

func (m *Medicine) StockStatus() StockStatus {
	switch {
	case m.StockCurrent <= 0:
		return OutOfStock
	case m.StockCurrent <= m.StockMinimum:
		return LowStock
	case m.StockMaximum > 0 && m.StockCurrent > m.StockMaximum:
		return Overstock
	default:
		return InStock
	}
}

type ExpiryStatus string

const (
	Expired         ExpiryStatus = "expired"
	ExpiringSoon    ExpiryStatus = "expiring_soon"
	ExpiringWarning ExpiryStatus = "expiring_warning"
	Valid           ExpiryStatus = "valid"
)

// ExpiryWindows are the look-ahead bands for expiry status. Soon must not
// exceed Warning.
type ExpiryWindows struct {
	Warning time.Duration
	Soon    time.Duration
}

func DefaultExpiryWindows() ExpiryWindows {
	return ExpiryWindows{
		Warning: 90 * 24 * time.Hour,
		Soon:    30 * 24 * time.Hour,
	}
}

func (m *Medicine) ExpiryStatus(now time.Time, w ExpiryWindows) ExpiryStatus {
	left := m.ExpiryDate.Sub(now)
	switch {
	case left <= 0:
		return Expired
	case left <= w.Soon:
		return ExpiringSoon
	case left <= w.Warning:
		return ExpiringWarning
	default:
		return Valid
	}
}

// DaysToExpiry rounds down; negative once expired.
func (m *Medicine) DaysToExpiry(now time.Time) int {
	return int(m.ExpiryDate.Sub(now).Hours() / 24)
}
