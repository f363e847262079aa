// AngelaMos | 2026
// repository_test.go

package medicine

import (
	"context"
	"database/sql"
	"testing"
	"time"

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

func medicineRow(current, reserved int) *sqlmock.Rows {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "name", "generic_name", "manufacturer", "category", "sku",
		"batch_number", "description", "requires_prescription",
		"stock_current", "stock_minimum", "stock_maximum", "stock_reserved",
		"cost_price", "selling_price", "mrp", "manufacture_date", "expiry_date", "status",
		"last_updated", "created_at",
	}).AddRow(
		"m1", tenantA, "Insulin", "", "", "hormone", "",
		"", "", true,
		current, 2, 0, reserved,
		15.0, 30.0, 60.0, nil, now.AddDate(1, 0, 0), string(core.LifecycleActive),
		now, now,
	)
}

func TestRepository_AdjustStockGuardsReserved(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`UPDATE medicines\s+SET stock_current = stock_current \+ \$3.*AND stock_current \+ \$3 >= stock_reserved`).
		WithArgs(tenantA, "m1", -5, core.LifecycleActive).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`FROM medicines\s+WHERE tenant_id = \$1 AND id = \$2`).
		WithArgs(tenantA, "m1", core.LifecycleActive).
		WillReturnRows(medicineRow(10, 8))

	_, err := repo.AdjustStock(context.Background(), tenantA, "m1", -5)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_AdjustStockUnknownMedicine(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`UPDATE medicines`).
		WithArgs(tenantA, "m1", 3, core.LifecycleActive).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`FROM medicines`).
		WithArgs(tenantA, "m1", core.LifecycleActive).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.AdjustStock(context.Background(), tenantA, "m1", 3)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
