// AngelaMos | 2026
// repository.go

package prescription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/pharmahub/internal/core"
)

var ErrNumberTaken = fmt.Errorf("prescription number taken: %w", core.ErrDuplicateKey)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, tenantID, id string) (*Prescription, error)
	List(ctx context.Context, tenantID string, params ListPrescriptionsParams) ([]Prescription, int, error)
	Update(ctx context.Context, p *Prescription) error
	UpdateStatus(ctx context.Context, p *Prescription, from Status) error
	WithTenantLock(ctx context.Context, tenantID string, fn func(Repository) error) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const prescriptionColumns = `
	id, tenant_id, prescription_number, patient, doctor, lines,
	subtotal::float8 AS subtotal, discount::float8 AS discount,
	tax::float8 AS tax, tax_override, total::float8 AS total, status, notes,
	created_by, dispensed_by, dispensed_at, created_at, updated_at`

func (r *repository) Create(ctx context.Context, p *Prescription) error {
	query := `
		INSERT INTO prescriptions (
			id, tenant_id, prescription_number, patient, doctor, lines,
			subtotal, discount, tax, tax_override, total, status, notes, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID, p.TenantID, p.Number, p.Patient, p.Doctor, p.Lines,
		p.Subtotal, p.Discount, p.Tax, p.TaxOverride, p.Total, p.Status, p.Notes, p.CreatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create prescription: %w", ErrNumberTaken)
		}
		return fmt.Errorf("create prescription: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, tenantID, id string) (*Prescription, error) {
	query := `SELECT ` + prescriptionColumns + `
		FROM prescriptions
		WHERE tenant_id = $1 AND id = $2`

	var p Prescription
	err := r.db.GetContext(ctx, &p, query, tenantID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get prescription: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get prescription: %w", err)
	}

	return &p, nil
}

func (r *repository) List(
	ctx context.Context,
	tenantID string,
	params ListPrescriptionsParams,
) ([]Prescription, int, error) {
	params.Normalize()

	conditions := []string{"tenant_id = $1"}
	args := []any{tenantID}
	argIdx := 2

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(prescription_number ILIKE $%d OR patient->>'name' ILIKE $%d OR doctor->>'name' ILIKE $%d)",
			argIdx, argIdx, argIdx))
		args = append(args, "%"+core.EscapeLike(params.Search)+"%")
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM prescriptions WHERE "+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("count prescriptions: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s
		FROM prescriptions
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`,
		prescriptionColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.Limit, params.Offset)

	var out []Prescription
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list prescriptions: %w", err)
	}

	return out, total, nil
}

// Update rewrites a prescription that is still pending. A row that left
// pending since it was read reports ErrNotEditable.
func (r *repository) Update(ctx context.Context, p *Prescription) error {
	query := `
		UPDATE prescriptions
		SET patient = $3, doctor = $4, lines = $5, subtotal = $6,
		    discount = $7, tax = $8, tax_override = $9, total = $10,
		    notes = $11, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND status = $12
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &p.UpdatedAt, query,
		p.TenantID, p.ID, p.Patient, p.Doctor, p.Lines,
		p.Subtotal, p.Discount, p.Tax, p.TaxOverride, p.Total, p.Notes,
		StatusPending,
	)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, p.TenantID, p.ID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("update prescription: %w", ErrNotEditable)
	}
	if err != nil {
		return fmt.Errorf("update prescription: %w", err)
	}

	return nil
}

// UpdateStatus moves p to p.Status only if the row is still in from, so a
// concurrent transition makes this one fail instead of overwriting it.
func (r *repository) UpdateStatus(ctx context.Context, p *Prescription, from Status) error {
	query := `
		UPDATE prescriptions
		SET status = $3, dispensed_by = $4, dispensed_at = $5, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND status = $6
		RETURNING updated_at`

	var updatedAt time.Time
	err := r.db.GetContext(ctx, &updatedAt, query,
		p.TenantID, p.ID, p.Status, p.DispensedBy, p.DispensedAt, from)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, p.TenantID, p.ID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("update prescription status: %w", ErrInvalidTransition)
	}
	if err != nil {
		return fmt.Errorf("update prescription status: %w", err)
	}

	p.UpdatedAt = updatedAt
	return nil
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
