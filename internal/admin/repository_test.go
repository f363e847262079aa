// AngelaMos | 2026
// repository_test.go

package admin

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/pharmahub/internal/core"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestRepository_Totals(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT\s+\(SELECT COUNT\(\*\) FROM tenants\) AS tenants`).
		WithArgs(core.LifecycleActive).
		WillReturnRows(sqlmock.NewRows(
			[]string{"tenants", "active_tenants", "users", "medicines", "prescriptions"},
		).AddRow(5, 4, 19, 310, 77))

	totals, err := repo.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PlatformTotals{
		Tenants: 5, ActiveTenants: 4, Users: 19, Medicines: 310, Prescriptions: 77,
	}, *totals)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_TenantsByPlan(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`GROUP BY subscription_plan`).
		WithArgs(core.LifecycleActive).
		WillReturnRows(sqlmock.NewRows([]string{"subscription_plan", "tenants"}).
			AddRow("enterprise", 1).
			AddRow("starter", 3))

	counts, err := repo.TenantsByPlan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []PlanCount{{Plan: "enterprise", Tenants: 1}, {Plan: "starter", Tenants: 3}}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
