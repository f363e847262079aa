// AngelaMos | 2026
// entity.go

package prescription

import (
	"database/sql/driver"
	"time"

	"github.com/carterperez-dev/pharmahub/internal/core"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPartial   Status = "partial"
	StatusDispensed Status = "dispensed"
	StatusCancelled Status = "cancelled"
	StatusReturned  Status = "returned"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusPartial, StatusDispensed, StatusCancelled},
	StatusPartial:   {StatusDispensed, StatusCancelled},
	StatusDispensed: {StatusReturned},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPartial, StatusDispensed, StatusCancelled, StatusReturned:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is reachable from s in one step.
// Cancelled and returned are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Prescription struct {
	ID          string     `db:"id"`
	TenantID    string     `db:"tenant_id"`
	Number      string     `db:"prescription_number"`
	Patient     Patient    `db:"patient"`
	Doctor      Doctor     `db:"doctor"`
	Lines       Lines      `db:"lines"`
	Subtotal    float64    `db:"subtotal"`
	Discount    float64    `db:"discount"`
	Tax         float64    `db:"tax"`
	TaxOverride bool       `db:"tax_override"`
	Total       float64    `db:"total"`
	Status      Status     `db:"status"`
	Notes       string     `db:"notes"`
	CreatedBy   *string    `db:"created_by"`
	DispensedBy *string    `db:"dispensed_by"`
	DispensedAt *time.Time `db:"dispensed_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (p *Prescription) Totals() Totals {
	return Totals{
		Subtotal: p.Subtotal,
		Discount: p.Discount,
		Tax:      p.Tax,
		Total:    p.Total,
	}
}

func (p *Prescription) setTotals(t Totals) {
	p.Subtotal = t.Subtotal
	p.Discount = t.Discount
	p.Tax = t.Tax
	p.Total = t.Total
}

type Patient struct {
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
	Age    int    `json:"age,omitempty"`
	Gender string `json:"gender,omitempty"`
}

func (p *Patient) Scan(src any) error { return core.ScanJSON(src, p) }

func (p Patient) Value() (driver.Value, error) { return core.JSONValue(p) }

type Doctor struct {
	Name               string `json:"name,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty"`
}

func (d *Doctor) Scan(src any) error { return core.ScanJSON(src, d) }

func (d Doctor) Value() (driver.Value, error) { return core.JSONValue(d) }

// Line is one dispensed medicine. Price and quantity are captured at sale
// time so later catalogue edits do not rewrite history.
type Line struct {
	MedicineID string  `json:"medicine_id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	Discount   float64 `json:"discount"`
	LineTotal  float64 `json:"line_total"`
}

type Lines []Line

func (l *Lines) Scan(src any) error { return core.ScanJSON(src, l) }

func (l Lines) Value() (driver.Value, error) {
	if l == nil {
		return core.JSONValue([]Line{})
	}
	return core.JSONValue([]Line(l))
}

type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}
