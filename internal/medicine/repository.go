// AngelaMos | 2026
// repository.go

package medicine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/pharmahub/internal/core"
)

var ErrInsufficientStock = errors.New("insufficient stock")

type Repository interface {
	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, tenantID, id string) (*Medicine, error)
	List(ctx context.Context, tenantID string, params ListMedicinesParams) ([]Medicine, int, error)
	ListAll(ctx context.Context, tenantID string) ([]Medicine, error)
	Update(ctx context.Context, m *Medicine) error
	SoftDelete(ctx context.Context, tenantID, id string) error
	AdjustStock(ctx context.Context, tenantID, id string, delta int) (*Medicine, error)
	WithTenantLock(ctx context.Context, tenantID string, fn func(Repository) error) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const medicineColumns = `
	id, tenant_id, name, generic_name, manufacturer, category, sku,
	batch_number, description, requires_prescription,
	stock_current, stock_minimum, stock_maximum, stock_reserved,
	cost_price::float8 AS cost_price, selling_price::float8 AS selling_price,
	mrp::float8 AS mrp, manufacture_date, expiry_date, status,
	last_updated, created_at`

func (r *repository) Create(ctx context.Context, m *Medicine) error {
	query := `
		INSERT INTO medicines (
			id, tenant_id, name, generic_name, manufacturer, category, sku,
			batch_number, description, requires_prescription,
			stock_current, stock_minimum, stock_maximum, stock_reserved,
			cost_price, selling_price, mrp, manufacture_date, expiry_date, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING last_updated, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		m.ID, m.TenantID, m.Name, m.GenericName, m.Manufacturer, m.Category, m.SKU,
		m.BatchNumber, m.Description, m.RequiresPrescription,
		m.StockCurrent, m.StockMinimum, m.StockMaximum, m.StockReserved,
		m.CostPrice, m.SellingPrice, m.MRP, m.ManufactureDate, m.ExpiryDate, m.Status,
	).Scan(&m.LastUpdated, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create medicine: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, tenantID, id string) (*Medicine, error) {
	query := `SELECT ` + medicineColumns + `
		FROM medicines
		WHERE tenant_id = $1 AND id = $2 AND status = $3`

	var m Medicine
	err := r.db.GetContext(ctx, &m, query, tenantID, id, core.LifecycleActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get medicine: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get medicine: %w", err)
	}

	return &m, nil
}

func (r *repository) List(
	ctx context.Context,
	tenantID string,
	params ListMedicinesParams,
) ([]Medicine, int, error) {
	params.Normalize()

	conditions := []string{"tenant_id = $1", "status = $2"}
	args := []any{tenantID, core.LifecycleActive}
	argIdx := 3

	if params.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, params.Category)
		argIdx++
	}

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR generic_name ILIKE $%d OR sku ILIKE $%d OR manufacturer ILIKE $%d)",
			argIdx, argIdx, argIdx, argIdx))
		args = append(args, "%"+core.EscapeLike(params.Search)+"%")
		argIdx++
	}

	if params.LowStock {
		conditions = append(conditions, "stock_current <= stock_minimum")
	}

	if params.Expiring {
		conditions = append(conditions, fmt.Sprintf(
			"expiry_date > $%d AND expiry_date <= $%d", argIdx, argIdx+1))
		args = append(args, params.expiringAfter, params.expiringBefore)
		argIdx += 2
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM medicines WHERE "+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("count medicines: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s
		FROM medicines
		WHERE %s
		ORDER BY name ASC, id ASC
		LIMIT $%d OFFSET $%d`,
		medicineColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.Limit, params.Offset)

	var meds []Medicine
	if err := r.db.SelectContext(ctx, &meds, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list medicines: %w", err)
	}

	return meds, total, nil
}

func (r *repository) ListAll(ctx context.Context, tenantID string) ([]Medicine, error) {
	query := `SELECT ` + medicineColumns + `
		FROM medicines
		WHERE tenant_id = $1 AND status = $2
		ORDER BY category ASC, name ASC`

	var meds []Medicine
	if err := r.db.SelectContext(ctx, &meds, query, tenantID, core.LifecycleActive); err != nil {
		return nil, fmt.Errorf("list all medicines: %w", err)
	}
	return meds, nil
}

func (r *repository) Update(ctx context.Context, m *Medicine) error {
	query := `
		UPDATE medicines
		SET name = $3, generic_name = $4, manufacturer = $5, category = $6,
		    sku = $7, batch_number = $8, description = $9,
		    requires_prescription = $10, stock_current = $11,
		    stock_minimum = $12, stock_maximum = $13, stock_reserved = $14,
		    cost_price = $15, selling_price = $16, mrp = $17,
		    manufacture_date = $18, expiry_date = $19, last_updated = NOW()
		WHERE tenant_id = $1 AND id = $2 AND status = $20
		RETURNING last_updated`

	err := r.db.GetContext(ctx, &m.LastUpdated, query,
		m.TenantID, m.ID, m.Name, m.GenericName, m.Manufacturer, m.Category,
		m.SKU, m.BatchNumber, m.Description, m.RequiresPrescription,
		m.StockCurrent, m.StockMinimum, m.StockMaximum, m.StockReserved,
		m.CostPrice, m.SellingPrice, m.MRP, m.ManufactureDate, m.ExpiryDate,
		core.LifecycleActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update medicine: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update medicine: %w", err)
	}

	return nil
}

func (r *repository) SoftDelete(ctx context.Context, tenantID, id string) error {
	query := `
		UPDATE medicines
		SET status = $3, last_updated = NOW()
		WHERE tenant_id = $1 AND id = $2 AND status = $4`

	result, err := r.db.ExecContext(ctx, query,
		tenantID, id, core.LifecycleDeactivated, core.LifecycleActive)
	if err != nil {
		return fmt.Errorf("delete medicine: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete medicine: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete medicine: %w", core.ErrNotFound)
	}

	return nil
}

// AdjustStock applies delta in one statement. The guard in the WHERE
// clause keeps concurrent decrements from taking on-hand stock below what
// is reserved, and so never below zero.
func (r *repository) AdjustStock(
	ctx context.Context,
	tenantID, id string,
	delta int,
) (*Medicine, error) {
	query := `
		UPDATE medicines
		SET stock_current = stock_current + $3, last_updated = NOW()
		WHERE tenant_id = $1 AND id = $2 AND status = $4
		  AND stock_current + $3 >= stock_reserved
		RETURNING ` + medicineColumns

	var m Medicine
	err := r.db.GetContext(ctx, &m, query, tenantID, id, delta, core.LifecycleActive)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, tenantID, id); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("adjust stock: %w", ErrInsufficientStock)
	}
	if err != nil {
		return nil, fmt.Errorf("adjust stock: %w", err)
	}

	return &m, nil
}

func (r *repository) WithTenantLock(
	ctx context.Context,
	tenantID string,
	fn func(Repository) error,
) error {
	return core.WithTenantLock(ctx, r.db, tenantID, func(tx core.DBTX) error {
		return fn(NewRepository(tx))
	})
}
