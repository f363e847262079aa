// AngelaMos | 2026
// service.go

package prescription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/pharmahub/internal/core"
	"github.com/carterperez-dev/pharmahub/internal/plan"
	"github.com/carterperez-dev/pharmahub/internal/tenant"
)

var (
	ErrInvalidTransition = fmt.Errorf("invalid status transition: %w", core.ErrConflict)
	ErrNotEditable       = fmt.Errorf("prescription is no longer editable: %w", core.ErrConflict)
)

type CapacityChecker interface {
	EnsureCapacity(ctx context.Context, tenantID string, resource plan.Resource) error
}

type TenantDirectory interface {
	GetTenantByID(ctx context.Context, id string) (*tenant.Tenant, error)
}

type Options struct {
	// NumberAttempts bounds retries when a generated number collides.
	NumberAttempts int
	Now            func() time.Time
}

type Service struct {
	repo     Repository
	capacity CapacityChecker
	tenants  TenantDirectory
	opts     Options
}

func NewService(
	repo Repository,
	capacity CapacityChecker,
	tenants TenantDirectory,
	opts Options,
) *Service {
	if opts.NumberAttempts <= 0 {
		opts.NumberAttempts = 3
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{repo: repo, capacity: capacity, tenants: tenants, opts: opts}
}

func (s *Service) CreatePrescription(
	ctx context.Context,
	tenantID, createdBy string,
	req CreatePrescriptionRequest,
) (*Prescription, error) {
	t, err := s.tenants.GetTenantByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	lines, totals, err := ComputeTotals(toLines(req.Lines), Charges{
		Discount: req.Discount,
		Tax:      req.Tax,
		TaxRate:  t.Settings.TaxRate,
	})
	if err != nil {
		return nil, err
	}

	p := &Prescription{
		TenantID: tenantID,
		Patient:  toPatient(req.Patient),
		Doctor:   toDoctor(req.Doctor),
		Lines:    lines,
		Status:   StatusPending,
		Notes:    req.Notes,
	}
	p.setTotals(totals)
	p.TaxOverride = req.Tax != nil
	if createdBy != "" {
		p.CreatedBy = &createdBy
	}

	number := strings.TrimSpace(req.Number)
	if number != "" {
		if !validNumber(number) {
			return nil, fmt.Errorf("%w: malformed prescription number", ErrInvalidPrescription)
		}
		p.Number = number
		if err := s.insert(ctx, p); err != nil {
			return nil, err
		}
		return p, nil
	}

	for attempt := 1; ; attempt++ {
		p.Number, err = NewNumber(s.opts.Now())
		if err != nil {
			return nil, err
		}

		err = s.insert(ctx, p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrNumberTaken) || attempt >= s.opts.NumberAttempts {
			return nil, err
		}

		slog.WarnContext(ctx, "prescription number collision, retrying",
			"tenant_id", tenantID,
			"attempt", attempt,
		)
	}
}

func (s *Service) insert(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New().String()
	return s.repo.WithTenantLock(ctx, p.TenantID, func(repo Repository) error {
		if err := s.capacity.EnsureCapacity(ctx, p.TenantID, plan.Prescriptions); err != nil {
			return err
		}
		return repo.Create(ctx, p)
	})
}

func (s *Service) GetPrescription(ctx context.Context, tenantID, id string) (*Prescription, error) {
	if err := core.CheckIDs("prescription", id); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *Service) ListPrescriptions(
	ctx context.Context,
	tenantID string,
	params ListPrescriptionsParams,
) ([]Prescription, int, error) {
	if params.Status != "" && !params.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidPrescription, params.Status)
	}
	params.Normalize()
	return s.repo.List(ctx, tenantID, params)
}

// UpdatePrescription applies a partial edit and recomputes totals. Only a
// pending prescription may be edited. A tax amount given explicitly, now or
// at creation, is kept until another explicit amount replaces it.
func (s *Service) UpdatePrescription(
	ctx context.Context,
	tenantID, id string,
	req UpdatePrescriptionRequest,
) (*Prescription, error) {
	p, err := s.GetPrescription(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusPending {
		return nil, ErrNotEditable
	}

	t, err := s.tenants.GetTenantByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if req.Patient != nil {
		p.Patient = toPatient(*req.Patient)
	}
	if req.Doctor != nil {
		p.Doctor = toDoctor(*req.Doctor)
	}
	if req.Notes != nil {
		p.Notes = *req.Notes
	}
	if req.Lines != nil {
		p.Lines = toLines(req.Lines)
	}

	charges := Charges{Discount: p.Discount, TaxRate: t.Settings.TaxRate}
	if req.Discount != nil {
		charges.Discount = *req.Discount
	}
	switch {
	case req.Tax != nil:
		charges.Tax = req.Tax
		p.TaxOverride = true
	case p.TaxOverride:
		tax := p.Tax
		charges.Tax = &tax
	}

	lines, totals, err := ComputeTotals(p.Lines, charges)
	if err != nil {
		return nil, err
	}
	p.Lines = lines
	p.setTotals(totals)

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// UpdateStatus moves the prescription along the transition table. Reaching
// dispensed records who dispensed it and when.
func (s *Service) UpdateStatus(
	ctx context.Context,
	tenantID, id string,
	next Status,
	actorID string,
) (*Prescription, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidPrescription, next)
	}

	p, err := s.GetPrescription(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	from := p.Status
	if !from.CanTransitionTo(next) {
		return nil, fmt.Errorf("%s to %s: %w", from, next, ErrInvalidTransition)
	}

	p.Status = next
	if next == StatusDispensed {
		now := s.opts.Now()
		p.DispensedAt = &now
		if actorID != "" {
			p.DispensedBy = &actorID
		}
	}

	if err := s.repo.UpdateStatus(ctx, p, from); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "prescription status changed",
		"tenant_id", tenantID,
		"prescription_id", id,
		"from", from,
		"to", next,
		"actor_id", actorID,
	)

	return p, nil
}
