// AngelaMos | 2026
// dto.go

package tenant

import (
	"time"

	"github.com/carterperez-dev/pharmahub/internal/plan"
	"github.com/carterperez-dev/pharmahub/internal/user"
)

// RegisterInput is a fully validated signup: a new tenant plus its first
// admin. Password confirmation is checked by the caller.
type RegisterInput struct {
	Name      string
	Subdomain string
	Plan      plan.Plan
	Contact   Contact
	Admin     user.CreateUserRequest
}

type CreateTenantRequest struct {
	Name      string         `json:"name"               validate:"required,min=2,max=200"`
	Subdomain string         `json:"subdomain"          validate:"required,max=100"`
	Plan      string         `json:"plan"               validate:"omitempty,oneof=starter professional enterprise"`
	Contact   ContactInput   `json:"contact"            validate:"required"`
	Branding  *BrandingInput `json:"branding,omitempty"`
}

type ContactInput struct {
	Email   string `json:"email"   validate:"required,email,max=255"`
	Phone   string `json:"phone"   validate:"max=30"`
	Address string `json:"address" validate:"max=500"`
}

type BrandingInput struct {
	LogoURL      string `json:"logo_url"      validate:"omitempty,url,max=500"`
	PrimaryColor string `json:"primary_color" validate:"omitempty,hexcolor"`
}

type SettingsInput struct {
	Currency          *string  `json:"currency,omitempty"            validate:"omitempty,len=3"`
	Timezone          *string  `json:"timezone,omitempty"            validate:"omitempty,timezone"`
	TaxRate           *float64 `json:"tax_rate,omitempty"            validate:"omitempty,min=0,max=1"`
	LowStockThreshold *int     `json:"low_stock_threshold,omitempty" validate:"omitempty,min=0"`
}

type UpdateTenantRequest struct {
	Name               *string        `json:"name,omitempty"                validate:"omitempty,min=2,max=200"`
	Contact            *ContactInput  `json:"contact,omitempty"`
	Branding           *BrandingInput `json:"branding,omitempty"`
	Settings           *SettingsInput `json:"settings,omitempty"`
	Plan               *string        `json:"plan,omitempty"                validate:"omitempty,oneof=starter professional enterprise"`
	SubscriptionStatus *string        `json:"subscription_status,omitempty" validate:"omitempty,oneof=active inactive suspended cancelled"`
}

type SubdomainAvailability struct {
	Subdomain string `json:"subdomain"`
	Valid     bool   `json:"valid"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

type TenantResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Subdomain          string    `json:"subdomain"`
	SubscriptionPlan   string    `json:"subscription_plan"`
	SubscriptionStatus string    `json:"subscription_status"`
	Contact            Contact   `json:"contact"`
	Settings           Settings  `json:"settings"`
	Branding           Branding  `json:"branding"`
	OwnerID            string    `json:"owner_id,omitempty"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type ListTenantsParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Plan     string `json:"plan"`
	Status   string `json:"status"`
}

func (p *ListTenantsParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListTenantsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToTenantResponse(t *Tenant) TenantResponse {
	resp := TenantResponse{
		ID:                 t.ID,
		Name:               t.Name,
		Subdomain:          t.Subdomain,
		SubscriptionPlan:   string(t.SubscriptionPlan),
		SubscriptionStatus: string(t.SubscriptionStatus),
		Contact:            t.Contact,
		Settings:           t.Settings,
		Branding:           t.Branding,
		Status:             string(t.Status),
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
	if t.OwnerID != nil {
		resp.OwnerID = *t.OwnerID
	}
	return resp
}

func ToTenantResponseList(tenants []Tenant) []TenantResponse {
	out := make([]TenantResponse, 0, len(tenants))
	for i := range tenants {
		out = append(out, ToTenantResponse(&tenants[i]))
	}
	return out
}
