// AngelaMos | 2026
// service_test.go

package usage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/pharmahub/internal/core"
	"github.com/carterperez-dev/pharmahub/internal/plan"
)

type stubRepo struct {
	plan   plan.Plan
	limits plan.Limits
	counts Counts
	rows   []StockRow
}

func (s *stubRepo) Limits(context.Context, string) (plan.Plan, plan.Limits, error) {
	return s.plan, s.limits, nil
}

func (s *stubRepo) Count(_ context.Context, _ string, r plan.Resource) (int, error) {
	return s.counts.For(r), nil
}

func (s *stubRepo) Counts(context.Context, string) (*Counts, error) {
	c := s.counts
	return &c, nil
}

func (s *stubRepo) StockRows(context.Context, string) ([]StockRow, error) {
	return s.rows, nil
}

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func TestSummarize_InventoryFigures(t *testing.T) {
	rows := []StockRow{
		{Current: 10, Minimum: 20, SellingPrice: 5, ExpiryDate: now.AddDate(2, 0, 0)},
		{Current: 30, Minimum: 5, SellingPrice: 2, ExpiryDate: now.AddDate(2, 0, 0)},
	}

	sum := Summarize(rows, now, 90*24*time.Hour)

	assert.Equal(t, 1, sum.LowStockCount)
	assert.InDelta(t, 110.0, sum.TotalInventoryValue, 1e-9)
	assert.Zero(t, sum.ExpiredCount)
	assert.Zero(t, sum.ExpiringCount)
}

func TestSummarize_InventoryValueIsExactCents(t *testing.T) {
	var rows []StockRow
	for range 10 {
		rows = append(rows,
			StockRow{Current: 1, Minimum: 0, SellingPrice: 0.1, ExpiryDate: now.AddDate(1, 0, 0)},
			StockRow{Current: 3, Minimum: 0, SellingPrice: 0.2, ExpiryDate: now.AddDate(1, 0, 0)},
		)
	}

	sum := Summarize(rows, now, 90*24*time.Hour)
	assert.Equal(t, 7.0, sum.TotalInventoryValue)
}

func TestSummarize_ExpiryBuckets(t *testing.T) {
	window := 90 * 24 * time.Hour
	rows := []StockRow{
		{Current: 0, Minimum: 0, ExpiryDate: now.Add(-time.Hour)},
		{Current: 5, Minimum: 1, ExpiryDate: now.Add(10 * 24 * time.Hour)},
		{Current: 5, Minimum: 1, ExpiryDate: now.Add(window)},
		{Current: 5, Minimum: 1, ExpiryDate: now.Add(window + time.Hour)},
	}

	sum := Summarize(rows, now, window)

	assert.Equal(t, 1, sum.ExpiredCount)
	assert.Equal(t, 2, sum.ExpiringCount)
	assert.Equal(t, 1, sum.OutOfStockCount)
	assert.Equal(t, 1, sum.LowStockCount)
}

func TestEnsureCapacity_Boundary(t *testing.T) {
	repo := &stubRepo{plan: plan.Starter, limits: plan.Limits{Users: 5, Medicines: 3}}
	svc := NewService(repo, Options{})
	ctx := context.Background()

	repo.counts.Medicines = 2
	assert.NoError(t, svc.EnsureCapacity(ctx, "t1", plan.Medicines))

	repo.counts.Medicines = 3
	err := svc.EnsureCapacity(ctx, "t1", plan.Medicines)
	assert.ErrorIs(t, err, core.ErrLimitExceeded)

	repo.counts.Users = 4
	assert.NoError(t, svc.EnsureCapacity(ctx, "t1", plan.Users))
}

func TestEnsureCapacity_FallsBackToPlanDefaults(t *testing.T) {
	repo := &stubRepo{plan: plan.Starter}
	svc := NewService(repo, Options{})

	repo.counts.Users = 4
	assert.NoError(t, svc.EnsureCapacity(context.Background(), "t1", plan.Users))

	repo.counts.Users = 5
	assert.ErrorIs(t, svc.EnsureCapacity(context.Background(), "t1", plan.Users), core.ErrLimitExceeded)
}

func TestCheckTenantLimits(t *testing.T) {
	repo := &stubRepo{
		plan:   plan.Starter,
		limits: plan.Limits{Users: 5, Medicines: 500, Prescriptions: 1000, StorageMB: 1024},
		counts: Counts{Users: 5, Medicines: 12, Prescriptions: 3},
	}

	report, err := NewService(repo, Options{}).CheckTenantLimits(context.Background(), "t1")
	require.NoError(t, err)

	assert.Equal(t, plan.Usage{Current: 5, Limit: 5, Exceeded: true}, report.Users)
	assert.Equal(t, plan.Usage{Current: 12, Limit: 500}, report.Medicines)
	assert.True(t, report.Exceeded())
}

func TestGetTenantStats(t *testing.T) {
	repo := &stubRepo{
		plan:   plan.Professional,
		counts: Counts{Users: 3, Medicines: 2, Prescriptions: 7, PendingPrescriptions: 2, DispensedRevenue: 99.999},
		rows: []StockRow{
			{Current: 10, Minimum: 20, SellingPrice: 5, ExpiryDate: now.AddDate(1, 0, 0)},
			{Current: 30, Minimum: 5, SellingPrice: 2, ExpiryDate: now.AddDate(0, 0, 20)},
		},
	}
	svc := NewService(repo, Options{Now: func() time.Time { return now }})

	stats, err := svc.GetTenantStats(context.Background(), "t1")
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalMedicines)
	assert.Equal(t, 2, stats.PendingPrescriptions)
	assert.Equal(t, 1, stats.LowStockCount)
	assert.Equal(t, 1, stats.ExpiringCount)
	assert.InDelta(t, 110.0, stats.TotalInventoryValue, 1e-9)
	assert.InDelta(t, 100.0, stats.DispensedRevenue, 1e-9)
	assert.Equal(t, 25, stats.Limits.Users.Limit)
	assert.Equal(t, now, stats.GeneratedAt)
}
