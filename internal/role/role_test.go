// AngelaMos | 2026
// role_test.go

package role

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAdminEquivalent(t *testing.T) {
	for _, r := range []string{Admin, TenantAdmin, SuperAdmin} {
		assert.True(t, IsAdminEquivalent(r), r)
	}
	for _, r := range []string{Pharmacist, Cashier, User, "", "root"} {
		assert.False(t, IsAdminEquivalent(r), r)
	}
}

func TestIsTenantRole(t *testing.T) {
	assert.True(t, IsTenantRole(Pharmacist))
	assert.True(t, IsTenantRole(TenantAdmin))
	assert.False(t, IsTenantRole(SuperAdmin))
	assert.False(t, IsTenantRole("owner"))
}
