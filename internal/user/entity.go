// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/pharmahub/internal/core"
	"github.com/carterperez-dev/pharmahub/internal/role"
)

type User struct {
	ID                  string         `db:"id"`
	TenantID            *string        `db:"tenant_id"`
	Email               string         `db:"email"`
	Username            string         `db:"username"`
	PasswordHash        string         `db:"password_hash"`
	FirstName           string         `db:"first_name"`
	LastName            string         `db:"last_name"`
	Phone               string         `db:"phone"`
	Role                string         `db:"role"`
	Status              core.Lifecycle `db:"status"`
	FailedLoginAttempts int            `db:"failed_login_attempts"`
	LockedUntil         *time.Time     `db:"locked_until"`
	LastLoginAt         *time.Time     `db:"last_login_at"`
	TokenVersion        int            `db:"token_version"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

// Tenant returns the owning tenant id, or "" for the platform super admin.
func (u *User) Tenant() string {
	if u.TenantID == nil {
		return ""
	}
	return *u.TenantID
}

func (u *User) IsActive() bool {
	return u.Status.IsActive()
}

func (u *User) IsAdminEquivalent() bool {
	return role.IsAdminEquivalent(u.Role)
}

func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// LoginFailure is the counter state after a failed attempt was recorded.
type LoginFailure struct {
	Attempts    int        `db:"failed_login_attempts"`
	LockedUntil *time.Time `db:"locked_until"`
}
