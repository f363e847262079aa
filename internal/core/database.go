// AngelaMos | 2026
// database.go

package core

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"sort"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/pharmahub/internal/config"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type Database struct {
	DB *sqlx.DB
}

func NewDatabase(
	ctx context.Context,
	cfg config.DatabaseConfig,
) (*Database, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(jitteredDuration(cfg.ConnMaxLifetime))
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close() //nolint:errcheck // cleanup on connection failure
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

func (d *Database) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := d.DB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

func (d *Database) Stats() sql.DBStats {
	return d.DB.Stats()
}

// Migrate applies the embedded schema files in lexical order. Every statement
// is idempotent, so running it on each boot is safe.
func (d *Database) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		body, readErr := migrationFiles.ReadFile(name)
		if readErr != nil {
			return fmt.Errorf("read migration %s: %w", name, readErr)
		}

		if _, execErr := d.DB.ExecContext(ctx, string(body)); execErr != nil {
			return fmt.Errorf("apply migration %s: %w", name, execErr)
		}
	}

	return nil
}

type DBTX interface {
	sqlx.ExtContext
	sqlx.ExecerContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(
		ctx context.Context,
		dest any,
		query string,
		args ...any,
	) error
}

func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback() //nolint:errcheck // best-effort rollback on panic
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// RunInTx opens a transaction when db is a pool and reuses the caller's
// transaction when db already is one, so repository methods compose.
func RunInTx(ctx context.Context, db DBTX, fn func(tx DBTX) error) error {
	if pool, ok := db.(*sqlx.DB); ok {
		return InTx(ctx, pool, func(tx *sqlx.Tx) error {
			return fn(tx)
		})
	}
	return fn(db)
}

// platformLockKey serializes admin-affecting writes on platform users,
// which have no tenant row to lock.
const platformLockKey int64 = 0x70686172

// LockTenant takes a row lock on the tenant for the remainder of tx, so
// read-then-write invariants over the tenant's rows cannot interleave.
func LockTenant(ctx context.Context, tx DBTX, tenantID string) error {
	if tenantID == "" {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, platformLockKey); err != nil {
			return fmt.Errorf("lock platform scope: %w", err)
		}
		return nil
	}

	var id string
	err := tx.GetContext(ctx, &id,
		`SELECT id FROM tenants WHERE id = $1 FOR UPDATE`, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lock tenant: %w", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock tenant: %w", err)
	}

	return nil
}

// WithTenantLock runs fn inside a transaction that holds the tenant lock.
func WithTenantLock(
	ctx context.Context,
	db DBTX,
	tenantID string,
	fn func(tx DBTX) error,
) error {
	return RunInTx(ctx, db, func(tx DBTX) error {
		if err := LockTenant(ctx, tx, tenantID); err != nil {
			return err
		}
		return fn(tx)
	})
}

func jitteredDuration(base time.Duration) time.Duration {
	if base <= 0 {
		return base
	}
	//nolint:gosec // G404: non-security-sensitive jitter for connection pool
	jitter := time.Duration(rand.Int64N(int64(base/7) + 1))
	return base + jitter
}
