// AngelaMos | 2026
// repository.go

package usage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/pharmahub/internal/core"
	"github.com/carterperez-dev/pharmahub/internal/plan"
)

type Repository interface {
	Limits(ctx context.Context, tenantID string) (plan.Plan, plan.Limits, error)
	Count(ctx context.Context, tenantID string, resource plan.Resource) (int, error)
	Counts(ctx context.Context, tenantID string) (*Counts, error)
	StockRows(ctx context.Context, tenantID string) ([]StockRow, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Limits(
	ctx context.Context,
	tenantID string,
) (plan.Plan, plan.Limits, error) {
	query := `
		SELECT subscription_plan, COALESCE(settings->'limits', '{}'::jsonb) AS limits
		FROM tenants
		WHERE id = $1 AND status = $2`

	var row tenantLimits
	err := r.db.GetContext(ctx, &row, query, tenantID, core.LifecycleActive)
	if errors.Is(err, sql.ErrNoRows) {
		return "", plan.Limits{}, fmt.Errorf("tenant limits: %w", core.ErrNotFound)
	}
	if err != nil {
		return "", plan.Limits{}, fmt.Errorf("tenant limits: %w", err)
	}

	return row.Plan, plan.Limits(row.Limits), nil
}

var countQueries = map[plan.Resource]string{
	plan.Users:         `SELECT COUNT(*) FROM users WHERE tenant_id = $1 AND status = 'active'`,
	plan.Medicines:     `SELECT COUNT(*) FROM medicines WHERE tenant_id = $1 AND status = 'active'`,
	plan.Prescriptions: `SELECT COUNT(*) FROM prescriptions WHERE tenant_id = $1`,
}

func (r *repository) Count(
	ctx context.Context,
	tenantID string,
	resource plan.Resource,
) (int, error) {
	query, ok := countQueries[resource]
	if !ok {
		return 0, fmt.Errorf("count %s: %w", resource, core.ErrInvalidInput)
	}

	var n int
	if err := r.db.GetContext(ctx, &n, query, tenantID); err != nil {
		return 0, fmt.Errorf("count %s: %w", resource, err)
	}
	return n, nil
}

func (r *repository) Counts(ctx context.Context, tenantID string) (*Counts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users
			  WHERE tenant_id = $1 AND status = 'active') AS users,
			(SELECT COUNT(*) FROM medicines
			  WHERE tenant_id = $1 AND status = 'active') AS medicines,
			(SELECT COUNT(*) FROM prescriptions
			  WHERE tenant_id = $1) AS prescriptions,
			(SELECT COUNT(*) FROM prescriptions
			  WHERE tenant_id = $1 AND status = 'pending') AS pending_prescriptions,
			(SELECT COALESCE(SUM(total), 0)::float8 FROM prescriptions
			  WHERE tenant_id = $1 AND status = 'dispensed') AS dispensed_revenue`

	var c Counts
	if err := r.db.GetContext(ctx, &c, query, tenantID); err != nil {
		return nil, fmt.Errorf("tenant counts: %w", err)
	}
	return &c, nil
}

func (r *repository) StockRows(ctx context.Context, tenantID string) ([]StockRow, error) {
	query := `
		SELECT stock_current, stock_minimum, selling_price::float8 AS selling_price, expiry_date
		FROM medicines
		WHERE tenant_id = $1 AND status = 'active'`

	var rows []StockRow
	if err := r.db.SelectContext(ctx, &rows, query, tenantID); err != nil {
		return nil, fmt.Errorf("stock rows: %w", err)
	}
	return rows, nil
}
