// AngelaMos | 2026
// repository.go

package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/pharmahub/internal/core"
	"github.com/carterperez-dev/pharmahub/internal/user"
)

type Repository interface {
	Create(ctx context.Context, t *Tenant) error
	CreateWithAdmin(ctx context.Context, t *Tenant, admin *user.User) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
	SubdomainExists(ctx context.Context, subdomain string) (bool, error)
	Update(ctx context.Context, t *Tenant) error
	List(ctx context.Context, params ListTenantsParams) ([]Tenant, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const tenantColumns = `
	id, name, subdomain, subscription_plan, subscription_status,
	contact, settings, branding, owner_id, status, created_at, updated_at`

func (r *repository) Create(ctx context.Context, t *Tenant) error {
	query := `
		INSERT INTO tenants (
			id, name, subdomain, subscription_plan, subscription_status,
			contact, settings, branding, owner_id, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		t.ID,
		t.Name,
		t.Subdomain,
		t.SubscriptionPlan,
		t.SubscriptionStatus,
		t.Contact,
		t.Settings,
		t.Branding,
		t.OwnerID,
		t.Status,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create tenant: %w", ErrSubdomainTaken)
		}
		return fmt.Errorf("create tenant: %w", err)
	}

	return nil
}

// CreateWithAdmin inserts the tenant, its first admin and the owner link in
// one transaction. Any failure leaves no trace of either row.
func (r *repository) CreateWithAdmin(
	ctx context.Context,
	t *Tenant,
	admin *user.User,
) error {
	return core.RunInTx(ctx, r.db, func(tx core.DBTX) error {
		txRepo := &repository{db: tx}
		if err := txRepo.Create(ctx, t); err != nil {
			return err
		}

		if err := user.NewRepository(tx).Create(ctx, admin); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`UPDATE tenants SET owner_id = $2, updated_at = NOW() WHERE id = $1`,
			t.ID, admin.ID)
		if err != nil {
			return fmt.Errorf("set tenant owner: %w", err)
		}

		t.OwnerID = &admin.ID
		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, id string) (*Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`

	var t Tenant
	err := r.db.GetContext(ctx, &t, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get tenant: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}

	return &t, nil
}

func (r *repository) GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE subdomain = $1`

	var t Tenant
	err := r.db.GetContext(ctx, &t, query, subdomain)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get tenant by subdomain: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant by subdomain: %w", err)
	}

	return &t, nil
}

// SubdomainExists counts deactivated tenants too; a subdomain is never
// reused.
func (r *repository) SubdomainExists(ctx context.Context, subdomain string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM tenants WHERE subdomain = $1)`, subdomain)
	if err != nil {
		return false, fmt.Errorf("check subdomain: %w", err)
	}
	return exists, nil
}

func (r *repository) Update(ctx context.Context, t *Tenant) error {
	query := `
		UPDATE tenants
		SET name = $2, subscription_plan = $3, subscription_status = $4,
		    contact = $5, settings = $6, branding = $7, status = $8,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &t.UpdatedAt, query,
		t.ID,
		t.Name,
		t.SubscriptionPlan,
		t.SubscriptionStatus,
		t.Contact,
		t.Settings,
		t.Branding,
		t.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update tenant: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListTenantsParams,
) ([]Tenant, int, error) {
	params.Normalize()

	conditions := []string{"1=1"}
	args := []any{}
	argIdx := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR subdomain ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+core.EscapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Plan != "" {
		conditions = append(conditions, fmt.Sprintf("subscription_plan = $%d", argIdx))
		args = append(args, params.Plan)
		argIdx++
	}

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM tenants WHERE "+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("count tenants: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s
		FROM tenants
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		tenantColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var tenants []Tenant
	if err := r.db.SelectContext(ctx, &tenants, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list tenants: %w", err)
	}

	return tenants, total, nil
}
