// AngelaMos | 2026
// repository.go

package admin

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/pharmahub/internal/core"
)

// Repository reads platform-wide aggregates. These are the only queries in
// the service that deliberately span tenants, and only super admins reach
// them.
type Repository interface {
	Totals(ctx context.Context) (*PlatformTotals, error)
	TenantsByPlan(ctx context.Context) ([]PlanCount, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Totals(ctx context.Context) (*PlatformTotals, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM tenants) AS tenants,
			(SELECT COUNT(*) FROM tenants WHERE status = $1) AS active_tenants,
			(SELECT COUNT(*) FROM users
				WHERE tenant_id IS NOT NULL AND status = $1) AS users,
			(SELECT COUNT(*) FROM medicines WHERE status = $1) AS medicines,
			(SELECT COUNT(*) FROM prescriptions) AS prescriptions`

	var totals PlatformTotals
	if err := r.db.GetContext(ctx, &totals, query, core.LifecycleActive); err != nil {
		return nil, fmt.Errorf("platform totals: %w", err)
	}

	return &totals, nil
}

func (r *repository) TenantsByPlan(ctx context.Context) ([]PlanCount, error) {
	query := `
		SELECT subscription_plan, COUNT(*) AS tenants
		FROM tenants
		WHERE status = $1
		GROUP BY subscription_plan
		ORDER BY subscription_plan`

	var counts []PlanCount
	if err := r.db.SelectContext(ctx, &counts, query, core.LifecycleActive); err != nil {
		return nil, fmt.Errorf("tenants by plan: %w", err)
	}

	return counts, nil
}
