// AngelaMos | 2026
// entity.go

package tenant

import (
	"database/sql/driver"
	"time"

	"github.com/carterperez-dev/pharmahub/internal/core"
	"github.com/carterperez-dev/pharmahub/internal/plan"
)

type Tenant struct {
	ID                 string                  `db:"id"`
	Name               string                  `db:"name"`
	Subdomain          string                  `db:"subdomain"`
	SubscriptionPlan   plan.Plan               `db:"subscription_plan"`
	SubscriptionStatus plan.SubscriptionStatus `db:"subscription_status"`
	Contact            Contact                 `db:"contact"`
	Settings           Settings                `db:"settings"`
	Branding           Branding                `db:"branding"`
	OwnerID            *string                 `db:"owner_id"`
	Status             core.Lifecycle          `db:"status"`
	CreatedAt          time.Time               `db:"created_at"`
	UpdatedAt          time.Time               `db:"updated_at"`
}

func (t *Tenant) IsActive() bool {
	return t.Status.IsActive()
}

type Contact struct {
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

func (c *Contact) Scan(src any) error { return core.ScanJSON(src, c) }

func (c Contact) Value() (driver.Value, error) { return core.JSONValue(c) }

// Settings holds per-tenant knobs. Limits are derived from the plan and
// rewritten whenever the plan changes.
type Settings struct {
	Limits            plan.Limits `json:"limits"`
	Currency          string      `json:"currency"`
	Timezone          string      `json:"timezone"`
	TaxRate           float64     `json:"tax_rate"`
	LowStockThreshold int         `json:"low_stock_threshold"`
}

func (s *Settings) Scan(src any) error { return core.ScanJSON(src, s) }

func (s Settings) Value() (driver.Value, error) { return core.JSONValue(s) }

type Branding struct {
	LogoURL      string `json:"logo_url,omitempty"`
	PrimaryColor string `json:"primary_color,omitempty"`
}

func (b *Branding) Scan(src any) error { return core.ScanJSON(src, b) }

func (b Branding) Value() (driver.Value, error) { return core.JSONValue(b) }
