// AngelaMos | 2026
// entity.go

package usage

import (
	"database/sql/driver"
	"time"

	"github.com/carterperez-dev/pharmahub/internal/core"
	"github.com/carterperez-dev/pharmahub/internal/plan"
)

// Counts are live row counts for one tenant. Deactivated users and
// medicines do not consume capacity.
type Counts struct {
	Users                int     `db:"users"`
	Medicines            int     `db:"medicines"`
	Prescriptions        int     `db:"prescriptions"`
	PendingPrescriptions int     `db:"pending_prescriptions"`
	DispensedRevenue     float64 `db:"dispensed_revenue"`
}

func (c Counts) For(r plan.Resource) int {
	switch r {
	case plan.Users:
		return c.Users
	case plan.Medicines:
		return c.Medicines
	case plan.Prescriptions:
		return c.Prescriptions
	}
	return 0
}

// StockRow is the slice of a medicine that stock statistics need.
type StockRow struct {
	Current      int       `db:"stock_current"`
	Minimum      int       `db:"stock_minimum"`
	SellingPrice float64   `db:"selling_price"`
	ExpiryDate   time.Time `db:"expiry_date"`
}

type tenantLimits struct {
	Plan   plan.Plan `db:"subscription_plan"`
	Limits limitsDoc `db:"limits"`
}

type limitsDoc plan.Limits

func (l *limitsDoc) Scan(src any) error { return core.ScanJSON(src, l) }

func (l limitsDoc) Value() (driver.Value, error) { return core.JSONValue(l) }

type LimitsReport struct {
	Plan          plan.Plan  `json:"plan"`
	Users         plan.Usage `json:"users"`
	Medicines     plan.Usage `json:"medicines"`
	Prescriptions plan.Usage `json:"prescriptions"`
	StorageMB     int        `json:"storage_mb"`
}

// Exceeded reports whether any capped resource is at or past its limit.
func (r LimitsReport) Exceeded() bool {
	return r.Users.Exceeded || r.Medicines.Exceeded || r.Prescriptions.Exceeded
}

type StockSummary struct {
	LowStockCount       int     `json:"low_stock_count"`
	OutOfStockCount     int     `json:"out_of_stock_count"`
	ExpiringCount       int     `json:"expiring_count"`
	ExpiredCount        int     `json:"expired_count"`
	TotalInventoryValue float64 `json:"total_inventory_value"`
}

type TenantStats struct {
	TotalUsers           int     `json:"total_users"`
	TotalMedicines       int     `json:"total_medicines"`
	TotalPrescriptions   int     `json:"total_prescriptions"`
	PendingPrescriptions int     `json:"pending_prescriptions"`
	DispensedRevenue     float64 `json:"dispensed_revenue"`
	StockSummary
	Limits      LimitsReport `json:"limits"`
	GeneratedAt time.Time    `json:"generated_at"`
}
