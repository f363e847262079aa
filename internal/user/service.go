// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/pharmahub/internal/core"
	"github.com/carterperez-dev/pharmahub/internal/metrics"
	"github.com/carterperez-dev/pharmahub/internal/plan"
	"github.com/carterperez-dev/pharmahub/internal/role"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is temporarily locked")
	ErrLastAdmin          = errors.New("tenant must keep at least one active admin")
	ErrProtectedUser      = errors.New("user is protected")
	ErrEmailTaken         = fmt.Errorf("email already registered: %w", core.ErrDuplicateKey)
	ErrUsernameTaken      = fmt.Errorf("username already registered: %w", core.ErrDuplicateKey)
	ErrInvalidRole        = errors.New("role cannot be assigned")
	ErrWeakPassword       = errors.New("password does not meet strength requirements")
)

// WeakPasswordError carries the failed rules for the client.
type WeakPasswordError struct {
	Validation core.PasswordValidation
}

func (e *WeakPasswordError) Error() string {
	return ErrWeakPassword.Error() + ": " + strings.Join(e.Validation.Errors, "; ")
}

func (e *WeakPasswordError) Unwrap() error {
	return ErrWeakPassword
}

type CapacityChecker interface {
	EnsureCapacity(ctx context.Context, tenantID string, resource plan.Resource) error
}

type Options struct {
	LockoutThreshold int
	LockoutDuration  time.Duration
	SuperAdminEmail  string
	Metrics          *metrics.Metrics
	Now              func() time.Time
}

type Service struct {
	repo     Repository
	capacity CapacityChecker
	opts     Options
}

func NewService(repo Repository, capacity CapacityChecker, opts Options) *Service {
	if opts.LockoutThreshold < 1 {
		opts.LockoutThreshold = 5
	}
	if opts.LockoutDuration <= 0 {
		opts.LockoutDuration = 30 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.SuperAdminEmail = normalizeEmail(opts.SuperAdminEmail)

	return &Service{repo: repo, capacity: capacity, opts: opts}
}

// NewMember validates and hashes a new account without persisting it, so
// tenant registration can insert the first admin inside its own
// transaction.
func NewMember(tenantID string, req CreateUserRequest) (*User, error) {
	if !role.IsTenantRole(req.Role) {
		return nil, fmt.Errorf("new member: %w", ErrInvalidRole)
	}

	if v := core.ValidatePassword(req.Password); !v.IsValid {
		return nil, &WeakPasswordError{Validation: v}
	}

	hash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	tid := tenantID
	return &User{
		ID:           uuid.New().String(),
		TenantID:     &tid,
		Email:        normalizeEmail(req.Email),
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         req.Role,
		Status:       core.LifecycleActive,
	}, nil
}

func (s *Service) CreateUser(
	ctx context.Context,
	tenantID string,
	req CreateUserRequest,
) (*User, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("create user: tenant required: %w", core.ErrInvalidInput)
	}

	user, err := NewMember(tenantID, req)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTenantLock(ctx, tenantID, func(repo Repository) error {
		if err := s.capacity.EnsureCapacity(ctx, tenantID, plan.Users); err != nil {
			if errors.Is(err, core.ErrLimitExceeded) {
				s.opts.Metrics.LimitRejected(string(plan.Users))
			}
			return err
		}
		return repo.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) GetUser(ctx context.Context, tenantID, id string) (*User, error) {
	if err := checkIDs(tenantID, id); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, tenantID, id)
}

// checkIDs validates a tenant and user id pair. An empty tenant is the
// platform scope and passes.
func checkIDs(tenantID, id string) error {
	if tenantID != "" {
		if err := core.CheckIDs("tenant", tenantID); err != nil {
			return err
		}
	}
	return core.CheckIDs("user", id)
}

func (s *Service) ListUsers(
	ctx context.Context,
	tenantID string,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, tenantID, params)
}

// Authenticate checks a credential pair inside one tenant. The lookup uses
// tenant and email only; the password is compared after the fetch.
func (s *Service) Authenticate(
	ctx context.Context,
	tenantID, email, password string,
) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, tenantID, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention
			_, _, _ = core.VerifyPasswordTimingSafe(password, nil)
			s.opts.Metrics.LoginAttempt("unknown")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return s.authenticateUser(ctx, user, password)
}

// AuthenticateAnyTenant serves logins that name no tenant. Candidates come
// from one indexed email lookup across active tenants; the first account
// whose password matches wins.
func (s *Service) AuthenticateAnyTenant(
	ctx context.Context,
	email, password string,
) (*User, error) {
	candidates, err := s.repo.FindLoginCandidates(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		//nolint:errcheck // timing attack prevention
		_, _, _ = core.VerifyPasswordTimingSafe(password, nil)
		s.opts.Metrics.LoginAttempt("unknown")
		return nil, ErrInvalidCredentials
	}

	if len(candidates) == 1 {
		return s.authenticateUser(ctx, &candidates[0], password)
	}

	now := s.opts.Now()
	for i := range candidates {
		u := &candidates[i]
		if !u.IsActive() {
			continue
		}
		valid, newHash, verr := core.VerifyPasswordTimingSafe(password, &u.PasswordHash)
		if verr != nil || !valid {
			continue
		}
		if u.IsLocked(now) {
			s.opts.Metrics.LoginAttempt("locked")
			return nil, ErrAccountLocked
		}
		return s.completeLogin(ctx, u, newHash, now)
	}

	for i := range candidates {
		u := &candidates[i]
		if u.IsActive() && !u.IsLocked(now) {
			if err := s.recordFailure(ctx, u, now); err != nil {
				return nil, err
			}
		}
	}

	s.opts.Metrics.LoginAttempt("failure")
	return nil, ErrInvalidCredentials
}

func (s *Service) authenticateUser(
	ctx context.Context,
	user *User,
	password string,
) (*User, error) {
	now := s.opts.Now()

	if !user.IsActive() {
		//nolint:errcheck // timing attack prevention
		_, _, _ = core.VerifyPasswordTimingSafe(password, nil)
		s.opts.Metrics.LoginAttempt("inactive")
		return nil, ErrInvalidCredentials
	}

	if user.IsLocked(now) {
		s.opts.Metrics.LoginAttempt("locked")
		return nil, ErrAccountLocked
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(password, &user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		if err := s.recordFailure(ctx, user, now); err != nil {
			return nil, err
		}
		s.opts.Metrics.LoginAttempt("failure")
		return nil, ErrInvalidCredentials
	}

	return s.completeLogin(ctx, user, newHash, now)
}

func (s *Service) completeLogin(
	ctx context.Context,
	user *User,
	newHash string,
	now time.Time,
) (*User, error) {
	if err := s.repo.RecordLoginSuccess(ctx, user.Tenant(), user.ID, now); err != nil {
		return nil, err
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.repo.UpdatePassword(ctx, user.Tenant(), user.ID, newHash)
	}

	s.opts.Metrics.LoginAttempt("success")
	return user, nil
}

func (s *Service) recordFailure(ctx context.Context, user *User, now time.Time) error {
	failure, err := s.repo.RecordLoginFailure(
		ctx,
		user.Tenant(),
		user.ID,
		now,
		s.opts.LockoutThreshold,
		now.Add(s.opts.LockoutDuration),
	)
	if err != nil {
		return err
	}

	user.FailedLoginAttempts = failure.Attempts
	user.LockedUntil = failure.LockedUntil

	if failure.Attempts >= s.opts.LockoutThreshold && user.IsLocked(now) {
		s.opts.Metrics.AccountLocked()
		core.AddSpanEvent(ctx, "account_locked",
			attribute.String("user_id", user.ID),
			attribute.Int("failed_attempts", failure.Attempts),
		)
		slog.WarnContext(ctx, "account locked after repeated failures",
			"user_id", user.ID,
			"tenant_id", user.Tenant(),
			"attempts", failure.Attempts,
			"locked_until", failure.LockedUntil,
		)
	}

	return nil
}

func (s *Service) UpdateUser(
	ctx context.Context,
	tenantID, id string,
	req UpdateUserRequest,
) (*User, error) {
	if err := checkIDs(tenantID, id); err != nil {
		return nil, err
	}
	if req.Role != nil && !role.IsTenantRole(*req.Role) {
		return nil, fmt.Errorf("update user: %w", ErrInvalidRole)
	}

	var updated *User
	err := s.repo.WithTenantLock(ctx, tenantID, func(repo Repository) error {
		user, err := repo.GetByID(ctx, tenantID, id)
		if err != nil {
			return err
		}

		next := *user
		if req.Username != nil {
			next.Username = strings.TrimSpace(*req.Username)
		}
		if req.FirstName != nil {
			next.FirstName = strings.TrimSpace(*req.FirstName)
		}
		if req.LastName != nil {
			next.LastName = strings.TrimSpace(*req.LastName)
		}
		if req.Phone != nil {
			next.Phone = strings.TrimSpace(*req.Phone)
		}
		if req.Role != nil {
			next.Role = *req.Role
		}
		if req.Status != nil {
			next.Status = core.Lifecycle(*req.Status)
		}

		losesAdmin := user.IsAdminEquivalent() && user.IsActive() &&
			(!next.IsAdminEquivalent() || !next.IsActive())

		if losesAdmin || user.Role != next.Role || !next.IsActive() {
			if err := s.guard(ctx, repo, tenantID, user, losesAdmin); err != nil {
				return err
			}
		}

		if err := repo.Update(ctx, &next); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeactivateUser soft deletes a member. Deactivating an inactive member is
// a no-op and skips the admin guards.
func (s *Service) DeactivateUser(ctx context.Context, tenantID, id string) error {
	if err := checkIDs(tenantID, id); err != nil {
		return err
	}

	return s.repo.WithTenantLock(ctx, tenantID, func(repo Repository) error {
		user, err := repo.GetByID(ctx, tenantID, id)
		if err != nil {
			return err
		}

		if !user.IsActive() {
			return nil
		}

		if err := s.guard(ctx, repo, tenantID, user, user.IsAdminEquivalent()); err != nil {
			return err
		}

		user.Status = core.LifecycleDeactivated
		return repo.Update(ctx, user)
	})
}

// DeleteUser permanently removes a member under the same guards as
// DeactivateUser.
func (s *Service) DeleteUser(ctx context.Context, tenantID, id string) error {
	if err := checkIDs(tenantID, id); err != nil {
		return err
	}

	return s.repo.WithTenantLock(ctx, tenantID, func(repo Repository) error {
		user, err := repo.GetByID(ctx, tenantID, id)
		if err != nil {
			return err
		}

		if err := s.guard(ctx, repo, tenantID, user, user.IsAdminEquivalent()); err != nil {
			return err
		}

		return repo.HardDelete(ctx, tenantID, id)
	})
}

// guard runs inside the tenant lock. Protection by identity is checked
// before the admin count so a protected account is never counted away.
func (s *Service) guard(
	ctx context.Context,
	repo Repository,
	tenantID string,
	target *User,
	removesAdmin bool,
) error {
	if s.IsProtected(target) {
		slog.WarnContext(ctx, "refused change to protected user",
			"user_id", target.ID,
		)
		return fmt.Errorf("modify user %s: %w", target.ID, ErrProtectedUser)
	}

	if !removesAdmin {
		return nil
	}

	others, err := repo.CountOtherActiveAdmins(ctx, tenantID, target.ID)
	if err != nil {
		return err
	}

	if others == 0 {
		s.opts.Metrics.LastAdminRefused()
		slog.WarnContext(ctx, "refused removal of last admin",
			"user_id", target.ID,
			"tenant_id", tenantID,
		)
		return fmt.Errorf("modify user %s: %w", target.ID, ErrLastAdmin)
	}

	return nil
}

// IsProtected reports whether u is the platform super admin, either by
// role or by the configured identity.
func (s *Service) IsProtected(u *User) bool {
	if u.Role == role.SuperAdmin {
		return true
	}
	return s.opts.SuperAdminEmail != "" && normalizeEmail(u.Email) == s.opts.SuperAdminEmail
}

func (s *Service) ChangePassword(
	ctx context.Context,
	tenantID, userID, currentPassword, newPassword string,
) error {
	user, err := s.GetUser(ctx, tenantID, userID)
	if err != nil {
		return err
	}

	valid, err := core.VerifyPassword(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return ErrInvalidCredentials
	}

	if v := core.ValidatePassword(newPassword); !v.IsValid {
		return &WeakPasswordError{Validation: v}
	}

	hash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, tenantID, userID, hash); err != nil {
		return err
	}

	return s.repo.IncrementTokenVersion(ctx, tenantID, userID)
}

func (s *Service) IncrementTokenVersion(ctx context.Context, tenantID, userID string) error {
	if err := checkIDs(tenantID, userID); err != nil {
		return err
	}
	return s.repo.IncrementTokenVersion(ctx, tenantID, userID)
}

// EnsureSuperAdmin creates the platform super admin on first boot. An
// existing platform account with that email is left untouched.
func (s *Service) EnsureSuperAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}

	_, err := s.repo.GetByEmail(ctx, "", email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return err
	}

	if v := core.ValidatePassword(password); !v.IsValid {
		return &WeakPasswordError{Validation: v}
	}

	hash, err := core.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin := &User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     "superadmin",
		PasswordHash: hash,
		FirstName:    "Super",
		LastName:     "Admin",
		Role:         role.SuperAdmin,
		Status:       core.LifecycleActive,
	}

	if err := s.repo.Create(ctx, admin); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil
		}
		return err
	}

	slog.InfoContext(ctx, "super admin provisioned", "user_id", admin.ID)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
