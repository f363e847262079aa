// AngelaMos | 2026
// dto.go

package auth

import (
	"time"

	"github.com/carterperez-dev/pharmahub/internal/tenant"
	"github.com/carterperez-dev/pharmahub/internal/user"
)

// LoginRequest may name its tenant by subdomain or id. With neither, the
// X-Tenant-ID header is consulted, then every active tenant.
type LoginRequest struct {
	Email     string `json:"email"               validate:"required,email,max=255"`
	Password  string `json:"password"            validate:"required,max=128"`
	Subdomain string `json:"subdomain,omitempty" validate:"omitempty,max=100"`
	TenantID  string `json:"tenant_id,omitempty" validate:"omitempty,uuid"`
}

type RegisterRequest struct {
	PharmacyName    string `json:"pharmacy_name"    validate:"required,min=2,max=200"`
	Subdomain       string `json:"subdomain"        validate:"required,max=100"`
	Plan            string `json:"plan"             validate:"omitempty,oneof=starter professional enterprise"`
	Email           string `json:"email"            validate:"required,email,max=255"`
	Username        string `json:"username"         validate:"required,min=3,max=50"`
	Password        string `json:"password"         validate:"required,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	FirstName       string `json:"first_name"       validate:"max=100"`
	LastName        string `json:"last_name"        validate:"max=100"`
	Phone           string `json:"phone"            validate:"max=30"`
	Address         string `json:"address"          validate:"max=500"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,max=128"`
}

type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type AuthResponse struct {
	User   user.UserResponse      `json:"user"`
	Tenant *tenant.TenantResponse `json:"tenant,omitempty"`
	Tokens TokenResponse          `json:"tokens"`
}

type MeResponse struct {
	User   user.UserResponse      `json:"user"`
	Tenant *tenant.TenantResponse `json:"tenant,omitempty"`
}

type SessionInfo struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}
