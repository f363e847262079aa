// AngelaMos | 2026
// service.go

package medicine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/pharmahub/internal/core"
	"github.com/carterperez-dev/pharmahub/internal/plan"
)

var ErrInvalidMedicine = fmt.Errorf("invalid medicine: %w", core.ErrInvalidInput)

type CapacityChecker interface {
	EnsureCapacity(ctx context.Context, tenantID string, resource plan.Resource) error
}

type Options struct {
	Windows ExpiryWindows
	Now     func() time.Time
}

type Service struct {
	repo     Repository
	capacity CapacityChecker
	opts     Options
}

func NewService(repo Repository, capacity CapacityChecker, opts Options) *Service {
	if opts.Windows.Warning <= 0 || opts.Windows.Soon <= 0 {
		opts.Windows = DefaultExpiryWindows()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{repo: repo, capacity: capacity, opts: opts}
}

func (s *Service) Now() time.Time {
	return s.opts.Now()
}

func (s *Service) Windows() ExpiryWindows {
	return s.opts.Windows
}

func (s *Service) CreateMedicine(
	ctx context.Context,
	tenantID string,
	req CreateMedicineRequest,
) (*Medicine, error) {
	m := &Medicine{
		ID:                   uuid.New().String(),
		TenantID:             tenantID,
		Name:                 strings.TrimSpace(req.Name),
		GenericName:          strings.TrimSpace(req.GenericName),
		Manufacturer:         strings.TrimSpace(req.Manufacturer),
		Category:             strings.TrimSpace(req.Category),
		SKU:                  strings.TrimSpace(req.SKU),
		BatchNumber:          strings.TrimSpace(req.BatchNumber),
		Description:          req.Description,
		RequiresPrescription: req.RequiresPrescription,
		StockCurrent:         req.Stock.Current,
		StockMinimum:         req.Stock.Minimum,
		StockMaximum:         req.Stock.Maximum,
		StockReserved:        req.Stock.Reserved,
		CostPrice:            req.Pricing.CostPrice,
		SellingPrice:         req.Pricing.SellingPrice,
		MRP:                  req.Pricing.MRP,
		ManufactureDate:      req.Dates.ManufactureDate,
		ExpiryDate:           req.Dates.ExpiryDate,
		Status:               core.LifecycleActive,
	}

	if err := validate(m); err != nil {
		return nil, err
	}

	err := s.repo.WithTenantLock(ctx, tenantID, func(repo Repository) error {
		if err := s.capacity.EnsureCapacity(ctx, tenantID, plan.Medicines); err != nil {
			return err
		}
		return repo.Create(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (s *Service) GetMedicine(ctx context.Context, tenantID, id string) (*Medicine, error) {
	if err := core.CheckIDs("medicine", id); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *Service) ListMedicines(
	ctx context.Context,
	tenantID string,
	params ListMedicinesParams,
) ([]Medicine, int, error) {
	params.Normalize()
	if params.Expiring {
		now := s.opts.Now()
		params.expiringAfter = now
		params.expiringBefore = now.Add(s.opts.Windows.Warning)
	}
	return s.repo.List(ctx, tenantID, params)
}

func (s *Service) UpdateMedicine(
	ctx context.Context,
	tenantID, id string,
	req UpdateMedicineRequest,
) (*Medicine, error) {
	m, err := s.GetMedicine(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	applyString(&m.Name, req.Name)
	applyString(&m.GenericName, req.GenericName)
	applyString(&m.Manufacturer, req.Manufacturer)
	applyString(&m.Category, req.Category)
	applyString(&m.SKU, req.SKU)
	applyString(&m.BatchNumber, req.BatchNumber)
	if req.Description != nil {
		m.Description = *req.Description
	}
	if req.RequiresPrescription != nil {
		m.RequiresPrescription = *req.RequiresPrescription
	}

	if st := req.Stock; st != nil {
		applyInt(&m.StockCurrent, st.Current)
		applyInt(&m.StockMinimum, st.Minimum)
		applyInt(&m.StockMaximum, st.Maximum)
		applyInt(&m.StockReserved, st.Reserved)
	}
	if pr := req.Pricing; pr != nil {
		applyFloat(&m.CostPrice, pr.CostPrice)
		applyFloat(&m.SellingPrice, pr.SellingPrice)
		applyFloat(&m.MRP, pr.MRP)
	}
	if d := req.Dates; d != nil {
		if d.ManufactureDate != nil {
			m.ManufactureDate = d.ManufactureDate
		}
		if d.ExpiryDate != nil {
			m.ExpiryDate = *d.ExpiryDate
		}
	}

	if err := validate(m); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

func (s *Service) DeleteMedicine(ctx context.Context, tenantID, id string) error {
	if err := core.CheckIDs("medicine", id); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, tenantID, id)
}

// AdjustStock moves on-hand stock by delta. A decrement that would leave
// less on hand than is reserved is refused rather than clamped.
func (s *Service) AdjustStock(
	ctx context.Context,
	tenantID, id string,
	delta int,
	reason string,
) (*Medicine, error) {
	if err := core.CheckIDs("medicine", id); err != nil {
		return nil, err
	}
	if delta == 0 {
		return nil, fmt.Errorf("adjust stock: zero delta: %w", core.ErrInvalidInput)
	}

	m, err := s.repo.AdjustStock(ctx, tenantID, id, delta)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "stock adjusted",
		"tenant_id", tenantID,
		"medicine_id", id,
		"delta", delta,
		"reason", reason,
		"stock", m.StockCurrent,
	)

	return m, nil
}

func validate(m *Medicine) error {
	switch {
	case m.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidMedicine)
	case m.ExpiryDate.IsZero():
		return fmt.Errorf("%w: expiry date is required", ErrInvalidMedicine)
	case m.ManufactureDate != nil && !m.ManufactureDate.Before(m.ExpiryDate):
		return fmt.Errorf("%w: manufacture date must precede expiry", ErrInvalidMedicine)
	case m.StockCurrent < 0 || m.StockMinimum < 0 || m.StockMaximum < 0 || m.StockReserved < 0:
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidMedicine)
	case m.StockReserved > m.StockCurrent:
		return fmt.Errorf("%w: reserved exceeds current stock", ErrInvalidMedicine)
	case m.StockMaximum > 0 && m.StockMinimum > m.StockMaximum:
		return fmt.Errorf("%w: minimum exceeds maximum", ErrInvalidMedicine)
	case m.CostPrice < 0 || m.SellingPrice < 0 || m.MRP < 0:
		return fmt.Errorf("%w: prices cannot be negative", ErrInvalidMedicine)
	case m.MRP > 0 && m.SellingPrice > m.MRP:
		return fmt.Errorf("%w: selling price exceeds MRP", ErrInvalidMedicine)
	}
	return nil
}

func applyString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func applyInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func applyFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
