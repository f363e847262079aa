// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/pharmahub/internal/core"
	"github.com/carterperez-dev/pharmahub/internal/role"
)

// Repository is scoped by tenant on every method. tenantID "" addresses the
// platform scope (tenant_id IS NULL), where only the super admin lives.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, tenantID, id string) (*User, error)
	GetByEmail(ctx context.Context, tenantID, email string) (*User, error)
	FindLoginCandidates(ctx context.Context, email string) ([]User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, tenantID, id, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, tenantID, id string) error
	RecordLoginFailure(
		ctx context.Context,
		tenantID, id string,
		now time.Time,
		threshold int,
		lockUntil time.Time,
	) (*LoginFailure, error)
	RecordLoginSuccess(ctx context.Context, tenantID, id string, now time.Time) error
	CountOtherActiveAdmins(ctx context.Context, tenantID, excludeID string) (int, error)
	HardDelete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, params ListUsersParams) ([]User, int, error)
	WithTenantLock(ctx context.Context, tenantID string, fn func(Repository) error) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const userColumns = `
	id, tenant_id, email, username, password_hash, first_name, last_name,
	phone, role, status, failed_login_attempts, locked_until, last_login_at,
	token_version, created_at, updated_at`

const tenantScope = `tenant_id IS NOT DISTINCT FROM $1::uuid`

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (
			id, tenant_id, email, username, password_hash,
			first_name, last_name, phone, role, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at, token_version`

	err := r.db.QueryRowxContext(ctx, query,
		user.ID,
		user.TenantID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Role,
		user.Status,
	).Scan(&user.CreatedAt, &user.UpdatedAt, &user.TokenVersion)
	if err != nil {
		return fmt.Errorf("create user: %w", classifyWriteError(err))
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	tenantID, id string,
) (*User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE ` + tenantScope + ` AND id = $2`

	var user User
	err := r.db.GetContext(ctx, &user, query, core.NullableID(tenantID), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	tenantID, email string,
) (*User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE ` + tenantScope + ` AND email = $2`

	var user User
	err := r.db.GetContext(ctx, &user, query, core.NullableID(tenantID), email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

// FindLoginCandidates returns every account registered under email in an
// active tenant, plus a platform account with that email.
func (r *repository) FindLoginCandidates(
	ctx context.Context,
	email string,
) ([]User, error) {
	query := `
		SELECT u.id, u.tenant_id, u.email, u.username, u.password_hash,
		       u.first_name, u.last_name, u.phone, u.role, u.status,
		       u.failed_login_attempts, u.locked_until, u.last_login_at,
		       u.token_version, u.created_at, u.updated_at
		FROM users u
		LEFT JOIN tenants t ON t.id = u.tenant_id
		WHERE u.email = $1
		  AND (u.tenant_id IS NULL OR t.status = $2)
		ORDER BY u.created_at
		LIMIT 20`

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, email, core.LifecycleActive); err != nil {
		return nil, fmt.Errorf("find login candidates: %w", err)
	}

	return users, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET username = $3, first_name = $4, last_name = $5, phone = $6,
		    role = $7, status = $8, updated_at = NOW()
		WHERE ` + tenantScope + ` AND id = $2
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		core.NullableID(user.Tenant()),
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Role,
		user.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", classifyWriteError(err))
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	tenantID, id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $3, updated_at = NOW()
		WHERE ` + tenantScope + ` AND id = $2`

	result, err := r.db.ExecContext(ctx, query,
		core.NullableID(tenantID), id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return requireRow(result, "update password")
}

func (r *repository) IncrementTokenVersion(
	ctx context.Context,
	tenantID, id string,
) error {
	query := `
		UPDATE users
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE ` + tenantScope + ` AND id = $2`

	result, err := r.db.ExecContext(ctx, query, core.NullableID(tenantID), id)
	if err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	return requireRow(result, "increment token version")
}

// RecordLoginFailure counts a failed attempt in one statement. An expired
// lock restarts the count at 1; reaching threshold sets locked_until.
// Every CASE reads the pre-update row, so concurrent failures each land.
func (r *repository) RecordLoginFailure(
	ctx context.Context,
	tenantID, id string,
	now time.Time,
	threshold int,
	lockUntil time.Time,
) (*LoginFailure, error) {
	query := `
		UPDATE users
		SET failed_login_attempts = CASE
		        WHEN locked_until IS NOT NULL AND locked_until <= $3 THEN 1
		        ELSE failed_login_attempts + 1
		    END,
		    locked_until = CASE
		        WHEN (CASE
		                WHEN locked_until IS NOT NULL AND locked_until <= $3 THEN 1
		                ELSE failed_login_attempts + 1
		              END) >= $4 THEN $5::timestamptz
		        WHEN locked_until IS NOT NULL AND locked_until <= $3 THEN NULL
		        ELSE locked_until
		    END,
		    updated_at = $3
		WHERE ` + tenantScope + ` AND id = $2
		RETURNING failed_login_attempts, locked_until`

	var failure LoginFailure
	err := r.db.GetContext(ctx, &failure, query,
		core.NullableID(tenantID), id, now, threshold, lockUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record login failure: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("record login failure: %w", err)
	}

	return &failure, nil
}

func (r *repository) RecordLoginSuccess(
	ctx context.Context,
	tenantID, id string,
	now time.Time,
) error {
	query := `
		UPDATE users
		SET failed_login_attempts = 0, locked_until = NULL,
		    last_login_at = $3, updated_at = $3
		WHERE ` + tenantScope + ` AND id = $2`

	result, err := r.db.ExecContext(ctx, query, core.NullableID(tenantID), id, now)
	if err != nil {
		return fmt.Errorf("record login success: %w", err)
	}

	return requireRow(result, "record login success")
}

func (r *repository) CountOtherActiveAdmins(
	ctx context.Context,
	tenantID, excludeID string,
) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM users
		WHERE ` + tenantScope + `
		  AND id <> $2
		  AND status = $3
		  AND role = ANY($4)`

	var n int
	err := r.db.GetContext(ctx, &n, query,
		core.NullableID(tenantID),
		excludeID,
		core.LifecycleActive,
		role.AdminEquivalents(),
	)
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}

	return n, nil
}

// HardDelete removes the row and hands tenant ownership to another active
// admin when the deleted user owned the tenant.
func (r *repository) HardDelete(ctx context.Context, tenantID, id string) error {
	if tenantID != "" {
		reassign := `
			UPDATE tenants
			SET owner_id = (
				SELECT u.id FROM users u
				WHERE u.tenant_id = $1 AND u.id <> $2
				  AND u.status = $3 AND u.role = ANY($4)
				ORDER BY u.created_at
				LIMIT 1
			), updated_at = NOW()
			WHERE id = $1 AND owner_id = $2`

		if _, err := r.db.ExecContext(ctx, reassign,
			tenantID, id, core.LifecycleActive, role.AdminEquivalents(),
		); err != nil {
			return fmt.Errorf("reassign tenant owner: %w", err)
		}
	}

	query := `DELETE FROM users WHERE ` + tenantScope + ` AND id = $2`

	result, err := r.db.ExecContext(ctx, query, core.NullableID(tenantID), id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return requireRow(result, "delete user")
}

func (r *repository) List(
	ctx context.Context,
	tenantID string,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	conditions := []string{tenantScope}
	args := []any{core.NullableID(tenantID)}
	argIdx := 2

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR username ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)",
			argIdx, argIdx, argIdx, argIdx))
		args = append(args, "%"+core.EscapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := "SELECT COUNT(*) FROM users WHERE " + whereClause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
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

func requireRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return nil
}

func classifyWriteError(err error) error {
	if !core.IsDuplicateKeyError(err) {
		return err
	}

	switch core.ConstraintName(err) {
	case "users_tenant_username_key":
		return ErrUsernameTaken
	default:
		return ErrEmailTaken
	}
}
