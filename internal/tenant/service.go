// AngelaMos | 2026
// service.go

package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/pharmahub/internal/core"
	"github.com/carterperez-dev/pharmahub/internal/metrics"
	"github.com/carterperez-dev/pharmahub/internal/plan"
	"github.com/carterperez-dev/pharmahub/internal/role"
	"github.com/carterperez-dev/pharmahub/internal/user"
)

var (
	ErrSubdomainTaken = fmt.Errorf("subdomain already taken: %w", core.ErrDuplicateKey)
	ErrInvalidPlan    = errors.New("unknown subscription plan")
)

const defaultLowStockThreshold = 10

type Options struct {
	DefaultPlan     plan.Plan
	DefaultCurrency string
	DefaultTimezone string
	Metrics         *metrics.Metrics
}

type Service struct {
	repo Repository
	opts Options
}

func NewService(repo Repository, opts Options) *Service {
	if !opts.DefaultPlan.Valid() {
		opts.DefaultPlan = plan.Starter
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "USD"
	}
	if opts.DefaultTimezone == "" {
		opts.DefaultTimezone = "UTC"
	}
	return &Service{repo: repo, opts: opts}
}

// Register creates a tenant together with its first tenant_admin and the
// owner link, all or nothing.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Tenant, *user.User, error) {
	t, err := s.newTenant(ctx, in.Name, in.Subdomain, in.Plan, in.Contact)
	if err != nil {
		return nil, nil, err
	}

	adminReq := in.Admin
	adminReq.Role = role.TenantAdmin

	admin, err := user.NewMember(t.ID, adminReq)
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.CreateWithAdmin(ctx, t, admin); err != nil {
		return nil, nil, err
	}

	s.opts.Metrics.TenantRegistered()
	core.AddSpanEvent(ctx, "tenant_registered",
		attribute.String("tenant_id", t.ID),
		attribute.String("subdomain", t.Subdomain),
	)
	slog.InfoContext(ctx, "tenant registered",
		"tenant_id", t.ID,
		"subdomain", t.Subdomain,
		"plan", t.SubscriptionPlan,
		"owner_id", admin.ID,
	)

	return t, admin, nil
}

// CreateTenant provisions a tenant with no members, for the super admin.
func (s *Service) CreateTenant(ctx context.Context, req CreateTenantRequest) (*Tenant, error) {
	t, err := s.newTenant(ctx, req.Name, req.Subdomain, plan.Plan(req.Plan), Contact{
		Email:   strings.ToLower(strings.TrimSpace(req.Contact.Email)),
		Phone:   strings.TrimSpace(req.Contact.Phone),
		Address: strings.TrimSpace(req.Contact.Address),
	})
	if err != nil {
		return nil, err
	}

	if req.Branding != nil {
		t.Branding = Branding{LogoURL: req.Branding.LogoURL, PrimaryColor: req.Branding.PrimaryColor}
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "tenant created", "tenant_id", t.ID, "subdomain", t.Subdomain)
	return t, nil
}

func (s *Service) newTenant(
	ctx context.Context,
	name, rawSubdomain string,
	p plan.Plan,
	contact Contact,
) (*Tenant, error) {
	sub := NormalizeSubdomain(rawSubdomain)
	if err := ValidateSubdomain(sub); err != nil {
		return nil, err
	}

	if p == "" {
		p = s.opts.DefaultPlan
	}
	limits, err := plan.DefaultLimits(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPlan, p)
	}

	taken, err := s.repo.SubdomainExists(ctx, sub)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("register %s: %w", sub, ErrSubdomainTaken)
	}

	return &Tenant{
		ID:                 uuid.New().String(),
		Name:               strings.TrimSpace(name),
		Subdomain:          sub,
		SubscriptionPlan:   p,
		SubscriptionStatus: plan.StatusActive,
		Contact:            contact,
		Settings: Settings{
			Limits:            limits,
			Currency:          s.opts.DefaultCurrency,
			Timezone:          s.opts.DefaultTimezone,
			LowStockThreshold: defaultLowStockThreshold,
		},
		Status: core.LifecycleActive,
	}, nil
}

func (s *Service) GetTenantByID(ctx context.Context, id string) (*Tenant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("get tenant: %w", core.ErrNotFound)
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsActive() {
		return nil, fmt.Errorf("get tenant %s: %w", id, core.ErrNotFound)
	}
	return t, nil
}

func (s *Service) GetTenantBySubdomain(ctx context.Context, subdomain string) (*Tenant, error) {
	t, err := s.repo.GetBySubdomain(ctx, NormalizeSubdomain(subdomain))
	if err != nil {
		return nil, err
	}
	if !t.IsActive() {
		return nil, fmt.Errorf("get tenant %s: %w", subdomain, core.ErrNotFound)
	}
	return t, nil
}

// Resolve accepts either a subdomain or an id. Subdomains are tried first
// since they are what clients usually carry.
func (s *Service) Resolve(ctx context.Context, ref string) (*Tenant, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("resolve tenant: %w", core.ErrNotFound)
	}

	t, err := s.GetTenantBySubdomain(ctx, ref)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	return s.GetTenantByID(ctx, ref)
}

func (s *Service) UpdateTenant(
	ctx context.Context,
	id string,
	req UpdateTenantRequest,
) (*Tenant, error) {
	t, err := s.GetTenantByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		t.Name = strings.TrimSpace(*req.Name)
	}
	if req.Contact != nil {
		t.Contact = Contact{
			Email:   strings.ToLower(strings.TrimSpace(req.Contact.Email)),
			Phone:   strings.TrimSpace(req.Contact.Phone),
			Address: strings.TrimSpace(req.Contact.Address),
		}
	}
	if req.Branding != nil {
		t.Branding = Branding{LogoURL: req.Branding.LogoURL, PrimaryColor: req.Branding.PrimaryColor}
	}
	if st := req.Settings; st != nil {
		if st.Currency != nil {
			t.Settings.Currency = strings.ToUpper(*st.Currency)
		}
		if st.Timezone != nil {
			t.Settings.Timezone = *st.Timezone
		}
		if st.TaxRate != nil {
			t.Settings.TaxRate = *st.TaxRate
		}
		if st.LowStockThreshold != nil {
			t.Settings.LowStockThreshold = *st.LowStockThreshold
		}
	}
	if req.Plan != nil {
		p := plan.Plan(*req.Plan)
		limits, err := plan.DefaultLimits(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPlan, p)
		}
		t.SubscriptionPlan = p
		t.Settings.Limits = limits
	}
	if req.SubscriptionStatus != nil {
		st := plan.SubscriptionStatus(*req.SubscriptionStatus)
		if !st.Valid() {
			return nil, fmt.Errorf("update tenant: %w", core.ErrInvalidInput)
		}
		t.SubscriptionStatus = st
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	return t, nil
}

// DeactivateTenant is a soft delete; the row and its subdomain are kept.
func (s *Service) DeactivateTenant(ctx context.Context, id string) error {
	t, err := s.GetTenantByID(ctx, id)
	if err != nil {
		return err
	}

	t.Status = core.LifecycleDeactivated
	if err := s.repo.Update(ctx, t); err != nil {
		return err
	}

	slog.WarnContext(ctx, "tenant deactivated", "tenant_id", id)
	return nil
}

func (s *Service) CheckSubdomain(ctx context.Context, raw string) (*SubdomainAvailability, error) {
	sub := NormalizeSubdomain(raw)
	res := &SubdomainAvailability{Subdomain: sub}

	if err := ValidateSubdomain(sub); err != nil {
		res.Reason = err.Error()
		return res, nil
	}
	res.Valid = true

	taken, err := s.repo.SubdomainExists(ctx, sub)
	if err != nil {
		return nil, err
	}
	if taken {
		res.Reason = "subdomain already taken"
		return res, nil
	}

	res.Available = true
	return res, nil
}

func (s *Service) ListTenants(ctx context.Context, params ListTenantsParams) ([]Tenant, int, error) {
	return s.repo.List(ctx, params)
}
