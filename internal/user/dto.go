// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type CreateUserRequest struct {
	TenantID  string `json:"tenant_id,omitempty" validate:"omitempty,uuid"`
	Email     string `json:"email"               validate:"required,email,max=255"`
	Username  string `json:"username"            validate:"required,min=3,max=50"`
	Password  string `json:"password"            validate:"required,max=128"`
	FirstName string `json:"first_name"          validate:"max=100"`
	LastName  string `json:"last_name"           validate:"max=100"`
	Phone     string `json:"phone"               validate:"max=30"`
	Role      string `json:"role"                validate:"required,oneof=tenant_admin admin pharmacist cashier user"`
}

type UpdateUserRequest struct {
	TenantID  string  `json:"tenant_id,omitempty"  validate:"omitempty,uuid"`
	Username  *string `json:"username,omitempty"   validate:"omitempty,min=3,max=50"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name,omitempty"  validate:"omitempty,max=100"`
	Phone     *string `json:"phone,omitempty"      validate:"omitempty,max=30"`
	Role      *string `json:"role,omitempty"       validate:"omitempty,oneof=tenant_admin admin pharmacist cashier user"`
	Status    *string `json:"status,omitempty"     validate:"omitempty,oneof=active deactivated"`
}

type UserResponse struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id,omitempty"`
	Email       string     `json:"email"`
	Username    string     `json:"username"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       string     `json:"phone,omitempty"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type ListUsersParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

func (p *ListUsersParams) Normalize() {
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

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		TenantID:    u.Tenant(),
		Email:       u.Email,
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		Role:        u.Role,
		Status:      string(u.Status),
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}
