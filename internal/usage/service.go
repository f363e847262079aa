// AngelaMos | 2026
// service.go

package usage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/pharmahub/internal/core"
	"github.com/carterperez-dev/pharmahub/internal/metrics"
	"github.com/carterperez-dev/pharmahub/internal/plan"
)

type Options struct {
	ExpiringWindow time.Duration
	Metrics        *metrics.Metrics
	Now            func() time.Time
}

type Service struct {
	repo Repository
	opts Options
}

func NewService(repo Repository, opts Options) *Service {
	if opts.ExpiringWindow <= 0 {
		opts.ExpiringWindow = 90 * 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{repo: repo, opts: opts}
}

// limits falls back to the plan defaults when the stored document is
// missing a cap.
func (s *Service) limits(ctx context.Context, tenantID string) (plan.Plan, plan.Limits, error) {
	p, stored, err := s.repo.Limits(ctx, tenantID)
	if err != nil {
		return "", plan.Limits{}, err
	}

	defaults, err := plan.DefaultLimits(p)
	if err != nil {
		defaults, _ = plan.DefaultLimits(plan.Starter) //nolint:errcheck // starter always exists
	}

	if stored.Users <= 0 {
		stored.Users = defaults.Users
	}
	if stored.Medicines <= 0 {
		stored.Medicines = defaults.Medicines
	}
	if stored.Prescriptions <= 0 {
		stored.Prescriptions = defaults.Prescriptions
	}
	if stored.StorageMB <= 0 {
		stored.StorageMB = defaults.StorageMB
	}

	return p, stored, nil
}

// EnsureCapacity refuses one more resource once the tenant sits at its
// cap. Callers run it under the tenant lock so the count cannot race.
func (s *Service) EnsureCapacity(ctx context.Context, tenantID string, resource plan.Resource) error {
	_, limits, err := s.limits(ctx, tenantID)
	if err != nil {
		return err
	}

	current, err := s.repo.Count(ctx, tenantID, resource)
	if err != nil {
		return err
	}

	if u := plan.NewUsage(current, limits.For(resource)); u.Exceeded {
		s.opts.Metrics.LimitRejected(string(resource))
		slog.InfoContext(ctx, "subscription limit reached",
			"tenant_id", tenantID,
			"resource", resource,
			"current", u.Current,
			"limit", u.Limit,
		)
		return fmt.Errorf("%s %d/%d: %w", resource, u.Current, u.Limit, core.ErrLimitExceeded)
	}

	return nil
}

func (s *Service) CheckTenantLimits(ctx context.Context, tenantID string) (*LimitsReport, error) {
	p, limits, err := s.limits(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.Counts(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	report := buildReport(p, limits, counts)
	return &report, nil
}

// GetTenantStats is computed on every call.
func (s *Service) GetTenantStats(ctx context.Context, tenantID string) (*TenantStats, error) {
	p, limits, err := s.limits(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.Counts(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.StockRows(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := s.opts.Now()
	return &TenantStats{
		TotalUsers:           counts.Users,
		TotalMedicines:       counts.Medicines,
		TotalPrescriptions:   counts.Prescriptions,
		PendingPrescriptions: counts.PendingPrescriptions,
		DispensedRevenue:     roundCents(counts.DispensedRevenue),
		StockSummary:         Summarize(rows, now, s.opts.ExpiringWindow),
		Limits:               buildReport(p, limits, counts),
		GeneratedAt:          now,
	}, nil
}

func buildReport(p plan.Plan, limits plan.Limits, counts *Counts) LimitsReport {
	return LimitsReport{
		Plan:          p,
		Users:         plan.NewUsage(counts.Users, limits.Users),
		Medicines:     plan.NewUsage(counts.Medicines, limits.Medicines),
		Prescriptions: plan.NewUsage(counts.Prescriptions, limits.Prescriptions),
		StorageMB:     limits.StorageMB,
	}
}

// Summarize folds stock rows into the inventory figures. Low stock
// includes out of stock; expiring excludes already expired.
func Summarize(rows []StockRow, now time.Time, expiringWindow time.Duration) StockSummary {
	var sum StockSummary
	value := decimal.Zero
	horizon := now.Add(expiringWindow)

	for _, r := range rows {
		if r.Current <= r.Minimum {
			sum.LowStockCount++
		}
		if r.Current <= 0 {
			sum.OutOfStockCount++
		}

		switch {
		case !r.ExpiryDate.After(now):
			sum.ExpiredCount++
		case !r.ExpiryDate.After(horizon):
			sum.ExpiringCount++
		}

		value = value.Add(decimal.NewFromFloat(r.SellingPrice).Mul(decimal.NewFromInt(int64(r.Current))))
	}

	sum.TotalInventoryValue = value.Round(2).InexactFloat64()
	return sum
}

func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
