// AngelaMos | 2026
// role.go

package role

const (
	TenantAdmin = "tenant_admin"
	Admin       = "admin"
	Pharmacist  = "pharmacist"
	Cashier     = "cashier"
	User        = "user"
	SuperAdmin  = "super_admin"
)

var tenantRoles = map[string]struct{}{
	TenantAdmin: {},
	Admin:       {},
	Pharmacist:  {},
	Cashier:     {},
	User:        {},
}

// IsAdminEquivalent reports whether r counts toward a tenant's
// at-least-one-admin requirement.
func IsAdminEquivalent(r string) bool {
	return r == Admin || r == TenantAdmin || r == SuperAdmin
}

// IsTenantRole reports whether r may be assigned to a tenant member.
// super_admin lives outside every tenant and is never assignable.
func IsTenantRole(r string) bool {
	_, ok := tenantRoles[r]
	return ok
}

func AdminEquivalents() []string {
	return []string{Admin, TenantAdmin, SuperAdmin}
}
