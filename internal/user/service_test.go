// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/pharmahub/internal/core"
	"github.com/carterperez-dev/pharmahub/internal/plan"
	"github.com/carterperez-dev/pharmahub/internal/role"
)

const (
	tenantA      = "11111111-1111-1111-1111-111111111111"
	tenantB      = "22222222-2222-2222-2222-222222222222"
	goodPassword = "Pharm@cy2026"
)

type memRepo struct {
	mu    sync.Mutex
	users map[string]*User
	seq   int
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[string]*User{}}
}

func (m *memRepo) find(tenantID, id string) (*User, bool) {
	u, ok := m.users[id]
	if !ok || u.Tenant() != tenantID {
		return nil, false
	}
	return u, true
}

func (m *memRepo) Create(_ context.Context, user *User) error {
	for _, u := range m.users {
		if u.Tenant() != user.Tenant() {
			continue
		}
		if u.Email == user.Email {
			return ErrEmailTaken
		}
		if u.Username == user.Username && user.TenantID != nil {
			return ErrUsernameTaken
		}
	}
	m.seq++
	user.CreatedAt = time.Unix(int64(m.seq), 0)
	user.UpdatedAt = user.CreatedAt
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, tenantID, id string) (*User, error) {
	u, ok := m.find(tenantID, id)
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) GetByEmail(_ context.Context, tenantID, email string) (*User, error) {
	for _, u := range m.users {
		if u.Tenant() == tenantID && u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
}

func (m *memRepo) FindLoginCandidates(_ context.Context, email string) ([]User, error) {
	var out []User
	for _, u := range m.users {
		if u.Email == email {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memRepo) Update(_ context.Context, user *User) error {
	u, ok := m.find(user.Tenant(), user.ID)
	if !ok {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	*u = *user
	return nil
}

func (m *memRepo) UpdatePassword(_ context.Context, tenantID, id, hash string) error {
	u, ok := m.find(tenantID, id)
	if !ok {
		return core.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *memRepo) IncrementTokenVersion(_ context.Context, tenantID, id string) error {
	u, ok := m.find(tenantID, id)
	if !ok {
		return core.ErrNotFound
	}
	u.TokenVersion++
	return nil
}

func (m *memRepo) RecordLoginFailure(
	_ context.Context,
	tenantID, id string,
	now time.Time,
	threshold int,
	lockUntil time.Time,
) (*LoginFailure, error) {
	u, ok := m.find(tenantID, id)
	if !ok {
		return nil, core.ErrNotFound
	}

	expired := u.LockedUntil != nil && !u.LockedUntil.After(now)
	if expired {
		u.FailedLoginAttempts = 1
		u.LockedUntil = nil
	} else {
		u.FailedLoginAttempts++
	}
	if u.FailedLoginAttempts >= threshold {
		lu := lockUntil
		u.LockedUntil = &lu
	}

	return &LoginFailure{Attempts: u.FailedLoginAttempts, LockedUntil: u.LockedUntil}, nil
}

func (m *memRepo) RecordLoginSuccess(_ context.Context, tenantID, id string, now time.Time) error {
	u, ok := m.find(tenantID, id)
	if !ok {
		return core.ErrNotFound
	}
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.LastLoginAt = &now
	return nil
}

func (m *memRepo) CountOtherActiveAdmins(_ context.Context, tenantID, excludeID string) (int, error) {
	n := 0
	for _, u := range m.users {
		if u.Tenant() == tenantID && u.ID != excludeID && u.IsActive() && u.IsAdminEquivalent() {
			n++
		}
	}
	return n, nil
}

func (m *memRepo) HardDelete(_ context.Context, tenantID, id string) error {
	if _, ok := m.find(tenantID, id); !ok {
		return core.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memRepo) List(_ context.Context, tenantID string, _ ListUsersParams) ([]User, int, error) {
	var out []User
	for _, u := range m.users {
		if u.Tenant() == tenantID {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (m *memRepo) WithTenantLock(_ context.Context, _ string, fn func(Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m)
}

func (m *memRepo) count(tenantID string) int {
	n := 0
	for _, u := range m.users {
		if u.Tenant() == tenantID {
			n++
		}
	}
	return n
}

type memCapacity struct {
	repo  *memRepo
	limit int
}

func (c *memCapacity) EnsureCapacity(_ context.Context, tenantID string, _ plan.Resource) error {
	if c.limit > 0 && c.repo.count(tenantID) >= c.limit {
		return fmt.Errorf("users: %w", core.ErrLimitExceeded)
	}
	return nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService(t *testing.T) (*Service, *memRepo, *clock) {
	t.Helper()

	repo := newMemRepo()
	clk := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := NewService(repo, &memCapacity{repo: repo}, Options{
		LockoutThreshold: 5,
		LockoutDuration:  30 * time.Minute,
		SuperAdminEmail:  "root@pharmahub.io",
		Now:              clk.now,
	})
	return svc, repo, clk
}

func createMember(t *testing.T, svc *Service, tenantID, email, r string) *User {
	t.Helper()

	u, err := svc.CreateUser(context.Background(), tenantID, CreateUserRequest{
		Email:    email,
		Username: email[:len(email)-len("@example.com")],
		Password: goodPassword,
		Role:     r,
	})
	require.NoError(t, err)
	return u
}

func TestCreateUser_HashesAndNormalizes(t *testing.T) {
	svc, _, _ := newTestService(t)

	u := createMember(t, svc, tenantA, "Alice@Example.com", role.Pharmacist)

	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, tenantA, u.Tenant())
	assert.NotContains(t, u.PasswordHash, goodPassword)
	assert.Equal(t, core.LifecycleActive, u.Status)
}

func TestCreateUser_WeakPassword(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateUser(context.Background(), tenantA, CreateUserRequest{
		Email:    "weak@example.com",
		Username: "weak",
		Password: "password",
		Role:     role.Cashier,
	})

	var weak *WeakPasswordError
	require.ErrorAs(t, err, &weak)
	assert.NotEmpty(t, weak.Validation.Errors)
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestCreateUser_RejectsSuperAdminRole(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateUser(context.Background(), tenantA, CreateUserRequest{
		Email:    "x@example.com",
		Username: "x-user",
		Password: goodPassword,
		Role:     role.SuperAdmin,
	})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestCreateUser_EmailUniquePerTenant(t *testing.T) {
	svc, _, _ := newTestService(t)
	createMember(t, svc, tenantA, "bob@example.com", role.Cashier)

	_, err := svc.CreateUser(context.Background(), tenantA, CreateUserRequest{
		Email: "bob@example.com", Username: "bob2", Password: goodPassword, Role: role.Cashier,
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.ErrorIs(t, err, core.ErrDuplicateKey)

	_, err = svc.CreateUser(context.Background(), tenantB, CreateUserRequest{
		Email: "bob@example.com", Username: "bob", Password: goodPassword, Role: role.Cashier,
	})
	assert.NoError(t, err)
}

func TestCreateUser_SubscriptionLimit(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, &memCapacity{repo: repo, limit: 2}, Options{})

	createMember(t, svc, tenantA, "one@example.com", role.Admin)
	createMember(t, svc, tenantA, "two@example.com", role.Cashier)

	_, err := svc.CreateUser(context.Background(), tenantA, CreateUserRequest{
		Email: "three@example.com", Username: "three", Password: goodPassword, Role: role.Cashier,
	})
	assert.ErrorIs(t, err, core.ErrLimitExceeded)
	assert.Equal(t, 2, repo.count(tenantA))
}

func TestGetUser_OtherTenantIsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	u := createMember(t, svc, tenantA, "carol@example.com", role.Pharmacist)

	_, err := svc.GetUser(context.Background(), tenantB, u.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.UpdateUser(context.Background(), tenantB, u.ID, UpdateUserRequest{})
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, svc.DeactivateUser(context.Background(), tenantB, u.ID), core.ErrNotFound)

	got, err := svc.GetUser(context.Background(), tenantA, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestAuthenticate_Lockout(t *testing.T) {
	svc, repo, clk := newTestService(t)
	ctx := context.Background()
	u := createMember(t, svc, tenantA, "dave@example.com", role.Pharmacist)

	for i := 0; i < 4; i++ {
		_, err := svc.Authenticate(ctx, tenantA, "dave@example.com", "Wrong@pass1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	assert.Nil(t, repo.users[u.ID].LockedUntil)

	_, err := svc.Authenticate(ctx, tenantA, "dave@example.com", "Wrong@pass1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	stored := repo.users[u.ID]
	require.NotNil(t, stored.LockedUntil)
	assert.Equal(t, clk.t.Add(30*time.Minute), *stored.LockedUntil)
	assert.Equal(t, 5, stored.FailedLoginAttempts)

	_, err = svc.Authenticate(ctx, tenantA, "dave@example.com", goodPassword)
	assert.ErrorIs(t, err, ErrAccountLocked)

	clk.t = clk.t.Add(31 * time.Minute)

	got, err := svc.Authenticate(ctx, tenantA, "dave@example.com", goodPassword)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, 0, repo.users[u.ID].FailedLoginAttempts)
	assert.Nil(t, repo.users[u.ID].LockedUntil)
	assert.NotNil(t, repo.users[u.ID].LastLoginAt)
}

func TestAuthenticate_ExpiredLockRestartsCounter(t *testing.T) {
	svc, repo, clk := newTestService(t)
	ctx := context.Background()
	u := createMember(t, svc, tenantA, "erin@example.com", role.Cashier)

	for i := 0; i < 5; i++ {
		_, _ = svc.Authenticate(ctx, tenantA, "erin@example.com", "Wrong@pass1")
	}
	clk.t = clk.t.Add(time.Hour)

	_, err := svc.Authenticate(ctx, tenantA, "erin@example.com", "Wrong@pass1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 1, repo.users[u.ID].FailedLoginAttempts)
	assert.Nil(t, repo.users[u.ID].LockedUntil)
}

func TestAuthenticate_DeactivatedAndUnknown(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	u := createMember(t, svc, tenantA, "finn@example.com", role.Cashier)
	repo.users[u.ID].Status = core.LifecycleDeactivated

	_, err := svc.Authenticate(ctx, tenantA, "finn@example.com", goodPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, tenantA, "nobody@example.com", goodPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, tenantB, "finn@example.com", goodPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateAnyTenant(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	createMember(t, svc, tenantA, "gail@example.com", role.Admin)
	_, err := svc.CreateUser(ctx, tenantB, CreateUserRequest{
		Email: "gail@example.com", Username: "gail", Password: "Other@pass99", Role: role.Cashier,
	})
	require.NoError(t, err)

	got, err := svc.AuthenticateAnyTenant(ctx, "gail@example.com", "Other@pass99")
	require.NoError(t, err)
	assert.Equal(t, tenantB, got.Tenant())

	_, err = svc.AuthenticateAnyTenant(ctx, "gail@example.com", "Nope@pass99")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDeactivateUser_LastAdmin(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	a1 := createMember(t, svc, tenantA, "admin1@example.com", role.TenantAdmin)

	err := svc.DeactivateUser(ctx, tenantA, a1.ID)
	require.ErrorIs(t, err, ErrLastAdmin)
	assert.True(t, repo.users[a1.ID].IsActive())

	a2 := createMember(t, svc, tenantA, "admin2@example.com", role.Admin)

	require.NoError(t, svc.DeactivateUser(ctx, tenantA, a1.ID))
	assert.False(t, repo.users[a1.ID].IsActive())

	assert.ErrorIs(t, svc.DeactivateUser(ctx, tenantA, a2.ID), ErrLastAdmin)
	assert.ErrorIs(t, svc.DeleteUser(ctx, tenantA, a2.ID), ErrLastAdmin)
}

func TestDeactivateUser_InactiveIsNoop(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	a1 := createMember(t, svc, tenantA, "admin1@example.com", role.Admin)
	a2 := createMember(t, svc, tenantA, "admin2@example.com", role.Admin)
	require.NoError(t, svc.DeactivateUser(ctx, tenantA, a1.ID))

	// a1 is now an inactive admin with no other active admin beside it.
	repo.users[a2.ID].Role = role.Cashier

	require.NoError(t, svc.DeactivateUser(ctx, tenantA, a1.ID))
	assert.False(t, repo.users[a1.ID].IsActive())
	assert.True(t, repo.users[a2.ID].IsActive())
}

func TestService_MalformedIDIsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	u := createMember(t, svc, tenantA, "hana@example.com", role.Cashier)

	_, err := svc.GetUser(ctx, tenantA, "abc")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.GetUser(ctx, "abc", u.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, svc.DeleteUser(ctx, tenantA, "abc"), core.ErrNotFound)
	assert.ErrorIs(t, svc.IncrementTokenVersion(ctx, tenantA, "abc"), core.ErrNotFound)
}

func TestDeactivateUser_ConcurrentAdminsKeepOne(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	a1 := createMember(t, svc, tenantA, "admin1@example.com", role.Admin)
	a2 := createMember(t, svc, tenantA, "admin2@example.com", role.Admin)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{a1.ID, a2.ID} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			errs[i] = svc.DeactivateUser(ctx, tenantA, id)
		}(i, id)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrLastAdmin)
			failures++
		}
	}
	assert.Equal(t, 1, failures)

	others, err := repo.CountOtherActiveAdmins(ctx, tenantA, "")
	require.NoError(t, err)
	assert.Equal(t, 1, others)
}

func TestUpdateUser_DemotingLastAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	a := createMember(t, svc, tenantA, "hank@example.com", role.Admin)

	demoted := role.Pharmacist
	_, err := svc.UpdateUser(ctx, tenantA, a.ID, UpdateUserRequest{Role: &demoted})
	assert.ErrorIs(t, err, ErrLastAdmin)

	name := "Henry"
	got, err := svc.UpdateUser(ctx, tenantA, a.ID, UpdateUserRequest{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Henry", got.FirstName)
}

func TestDeleteUser_ProtectedIdentity(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	createMember(t, svc, tenantA, "ivy@example.com", role.Admin)
	root := &User{
		ID:       "root-in-tenant",
		TenantID: func() *string { s := tenantA; return &s }(),
		Email:    "root@pharmahub.io",
		Username: "root",
		Role:     role.Admin,
		Status:   core.LifecycleActive,
	}
	require.NoError(t, repo.Create(ctx, root))

	assert.ErrorIs(t, svc.DeleteUser(ctx, tenantA, root.ID), ErrProtectedUser)
	assert.ErrorIs(t, svc.DeactivateUser(ctx, tenantA, root.ID), ErrProtectedUser)
	assert.Contains(t, repo.users, root.ID)
}

func TestDeleteUser_RemovesNonAdmin(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	createMember(t, svc, tenantA, "jo@example.com", role.Admin)
	c := createMember(t, svc, tenantA, "kim@example.com", role.Cashier)

	require.NoError(t, svc.DeleteUser(ctx, tenantA, c.ID))
	assert.NotContains(t, repo.users, c.ID)
}

func TestEnsureSuperAdmin_Idempotent(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureSuperAdmin(ctx, "Root@PharmaHub.io", goodPassword))
	require.NoError(t, svc.EnsureSuperAdmin(ctx, "root@pharmahub.io", goodPassword))
	assert.Equal(t, 1, repo.count(""))

	admin, err := repo.GetByEmail(ctx, "", "root@pharmahub.io")
	require.NoError(t, err)
	assert.Equal(t, role.SuperAdmin, admin.Role)
	assert.Nil(t, admin.TenantID)

	got, err := svc.AuthenticateAnyTenant(ctx, "root@pharmahub.io", goodPassword)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, got.ID)
}

func TestChangePassword_BumpsTokenVersion(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	u := createMember(t, svc, tenantA, "lee@example.com", role.Cashier)

	err := svc.ChangePassword(ctx, tenantA, u.ID, "Wrong@pass1", "N3w@Password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, tenantA, u.ID, goodPassword, "N3w@Password"))
	assert.Equal(t, 1, repo.users[u.ID].TokenVersion)

	_, err = svc.Authenticate(ctx, tenantA, "lee@example.com", "N3w@Password")
	assert.NoError(t, err)
}
