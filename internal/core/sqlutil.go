// AngelaMos | 2026
// sqlutil.go

package core

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

func IsDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

// ConstraintName returns the violated constraint, or "" when err is not a
// Postgres error.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

// CheckIDs rejects ids that cannot name a row before they reach a uuid
// column. A malformed id is reported as ErrNotFound, the same as an unknown
// one.
func CheckIDs(resource string, ids ...string) error {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("%s %q: %w", resource, id, ErrNotFound)
		}
	}
	return nil
}

// NullableID maps the empty string to SQL NULL so platform-level rows
// (tenant_id IS NULL) share query shapes with tenant rows.
func NullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

// ScanJSON decodes a JSONB column into dst. NULL leaves dst untouched.
func ScanJSON(src, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("scan jsonb: unsupported source %T", src)
	}
}

func JSONValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode jsonb: %w", err)
	}
	return string(b), nil
}
