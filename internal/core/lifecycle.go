// AngelaMos | 2026
// lifecycle.go

package core

// Lifecycle is the soft-delete state shared by tenants, users and medicines.
// Records are never filtered on a bare boolean; queries compare against
// LifecycleActive.
type Lifecycle string

const (
	LifecycleActive      Lifecycle = "active"
	LifecycleDeactivated Lifecycle = "deactivated"
)

func (l Lifecycle) IsActive() bool {
	return l == LifecycleActive
}

func (l Lifecycle) Valid() bool {
	return l == LifecycleActive || l == LifecycleDeactivated
}
