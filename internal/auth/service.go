// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/pharmahub/internal/core"
	"github.com/carterperez-dev/pharmahub/internal/middleware"
	"github.com/carterperez-dev/pharmahub/internal/plan"
	"github.com/carterperez-dev/pharmahub/internal/tenant"
	"github.com/carterperez-dev/pharmahub/internal/user"
)

var (
	ErrTokenReuse       = errors.New("token reuse detected")
	ErrPasswordMismatch = fmt.Errorf("passwords do not match: %w", core.ErrInvalidInput)
)

// Accounts is the slice of the user service that auth depends on.
type Accounts interface {
	Authenticate(ctx context.Context, tenantID, email, password string) (*user.User, error)
	AuthenticateAnyTenant(ctx context.Context, email, password string) (*user.User, error)
	GetUser(ctx context.Context, tenantID, id string) (*user.User, error)
	ChangePassword(ctx context.Context, tenantID, userID, currentPassword, newPassword string) error
	IncrementTokenVersion(ctx context.Context, tenantID, userID string) error
}

// Tenants is the slice of the tenant directory that auth depends on.
type Tenants interface {
	Register(ctx context.Context, in tenant.RegisterInput) (*tenant.Tenant, *user.User, error)
	Resolve(ctx context.Context, ref string) (*tenant.Tenant, error)
	GetTenantByID(ctx context.Context, id string) (*tenant.Tenant, error)
}

// ClientInfo describes the device a session was opened from.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

type Service struct {
	repo      Repository
	jwt       *JWTManager
	accounts  Accounts
	tenants   Tenants
	blacklist Blacklist
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	accounts Accounts,
	tenants Tenants,
	blacklist Blacklist,
) *Service {
	return &Service{
		repo:      repo,
		jwt:       jwt,
		accounts:  accounts,
		tenants:   tenants,
		blacklist: blacklist,
	}
}

// Register signs up a pharmacy: the tenant and its first admin are created
// in one transaction, then a session is opened for that admin.
func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
	client ClientInfo,
) (*AuthResponse, error) {
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	t, admin, err := s.tenants.Register(ctx, tenant.RegisterInput{
		Name:      req.PharmacyName,
		Subdomain: req.Subdomain,
		Plan:      plan.Plan(req.Plan),
		Contact: tenant.Contact{
			Email:   strings.ToLower(strings.TrimSpace(req.Email)),
			Phone:   strings.TrimSpace(req.Phone),
			Address: strings.TrimSpace(req.Address),
		},
		Admin: user.CreateUserRequest{
			Email:     req.Email,
			Username:  req.Username,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     req.Phone,
		},
	})
	if err != nil {
		return nil, err
	}

	return s.openSession(ctx, admin, t, client)
}

// Login authenticates inside the named tenant, or across every active
// tenant when none is named. tenantRef may be a subdomain or an id.
func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	tenantRef string,
	client ClientInfo,
) (*AuthResponse, error) {
	ref := firstNonEmpty(req.Subdomain, req.TenantID, tenantRef)

	var (
		u   *user.User
		t   *tenant.Tenant
		err error
	)

	if ref != "" {
		t, err = s.tenants.Resolve(ctx, ref)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				//nolint:errcheck // timing attack prevention
				_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
				return nil, user.ErrInvalidCredentials
			}
			return nil, fmt.Errorf("resolve tenant: %w", err)
		}

		u, err = s.accounts.Authenticate(ctx, t.ID, req.Email, req.Password)
		if err != nil {
			return nil, err
		}
	} else {
		u, err = s.accounts.AuthenticateAnyTenant(ctx, req.Email, req.Password)
		if err != nil {
			return nil, err
		}

		if u.Tenant() != "" {
			t, err = s.tenants.GetTenantByID(ctx, u.Tenant())
			if err != nil {
				if errors.Is(err, core.ErrNotFound) {
					return nil, user.ErrInvalidCredentials
				}
				return nil, fmt.Errorf("load tenant: %w", err)
			}
		}
	}

	return s.openSession(ctx, u, t, client)
}

// Refresh rotates a refresh token. Presenting a token that was already
// rotated revokes its whole family.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken string,
	client ClientInfo,
) (*AuthResponse, error) {
	stored, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if stored.IsUsed {
		s.revokeFamily(ctx, stored)
		return nil, ErrTokenReuse
	}

	if !stored.IsValid(time.Now()) {
		if stored.IsRevoked() {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	u, err := s.accounts.GetUser(ctx, stored.Tenant(), stored.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !u.IsActive() {
		s.revokeFamily(ctx, stored)
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
	}

	var t *tenant.Tenant
	if stored.Tenant() != "" {
		t, err = s.tenants.GetTenantByID(ctx, stored.Tenant())
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
			}
			return nil, fmt.Errorf("load tenant: %w", err)
		}
	}

	resp, newID, err := s.issue(ctx, u, t, client, stored.FamilyID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkAsUsed(ctx, stored.ID, newID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.revokeFamily(ctx, stored)
			return nil, ErrTokenReuse
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	return resp, nil
}

func (s *Service) revokeFamily(ctx context.Context, stored *RefreshToken) {
	if err := s.repo.RevokeByFamilyID(ctx, stored.FamilyID); err != nil {
		slog.ErrorContext(ctx, "revoke token family failed",
			"family_id", stored.FamilyID,
			"error", err,
		)
		return
	}
	slog.WarnContext(ctx, "refresh token reuse, family revoked",
		"user_id", stored.UserID,
		"tenant_id", stored.Tenant(),
		"family_id", stored.FamilyID,
	)
}

// Logout revokes the presented refresh token and blacklists the access
// token that made the call.
func (s *Service) Logout(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
	refreshToken string,
) error {
	if refreshToken != "" {
		stored, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
		switch {
		case errors.Is(err, core.ErrNotFound):
		case err != nil:
			return fmt.Errorf("find token: %w", err)
		case stored.UserID != claims.UserID:
			return fmt.Errorf("logout: %w", core.ErrForbidden)
		default:
			if err := s.repo.RevokeByID(ctx, stored.ID); err != nil &&
				!errors.Is(err, core.ErrNotFound) {
				return fmt.Errorf("revoke token: %w", err)
			}
		}
	}

	if err := s.blacklist.Revoke(ctx, claims.JTI, s.jwt.AccessTokenTTL()); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}

	return nil
}

// LogoutAll ends every session of the user. Bumping the token version
// invalidates outstanding access tokens too.
func (s *Service) LogoutAll(ctx context.Context, tenantID, userID string) error {
	if err := s.repo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	if err := s.accounts.IncrementTokenVersion(ctx, tenantID, userID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	return nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	tenantID, userID string,
	req ChangePasswordRequest,
) error {
	if err := s.accounts.ChangePassword(
		ctx, tenantID, userID, req.CurrentPassword, req.NewPassword,
	); err != nil {
		return err
	}

	if err := s.repo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	return nil
}

func (s *Service) GetActiveSessions(
	ctx context.Context,
	userID string,
) ([]SessionInfo, error) {
	tokens, err := s.repo.GetActiveSessionsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, SessionInfo{
			ID:        t.ID,
			UserAgent: t.UserAgent,
			IPAddress: t.IPAddress,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}

	return sessions, nil
}

func (s *Service) RevokeSession(
	ctx context.Context,
	userID, sessionID string,
) error {
	token, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if token.UserID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrNotFound)
	}

	if err := s.repo.RevokeByID(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (s *Service) Me(ctx context.Context, tenantID, userID string) (*MeResponse, error) {
	u, err := s.accounts.GetUser(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	resp := &MeResponse{User: user.ToUserResponse(u)}
	if tenantID != "" {
		t, err := s.tenants.GetTenantByID(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		tr := tenant.ToTenantResponse(t)
		resp.Tenant = &tr
	}

	return resp, nil
}

// VerifyAccessToken implements middleware.TokenVerifier. Beyond the
// signature it rejects blacklisted ids, stale token versions and
// deactivated accounts, and refreshes the role from the store.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, _, err := s.jwt.ParseAccessToken(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.JTI)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	u, err := s.accounts.GetUser(ctx, claims.TenantID, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
		}
		return nil, err
	}

	if !u.IsActive() || claims.TokenVersion < u.TokenVersion {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	claims.Role = u.Role
	return claims, nil
}

func (s *Service) openSession(
	ctx context.Context,
	u *user.User,
	t *tenant.Tenant,
	client ClientInfo,
) (*AuthResponse, error) {
	resp, _, err := s.issue(ctx, u, t, client, "")
	return resp, err
}

func (s *Service) issue(
	ctx context.Context,
	u *user.User,
	t *tenant.Tenant,
	client ClientInfo,
	familyID string,
) (*AuthResponse, string, error) {
	claims := AccessTokenClaims{
		UserID:       u.ID,
		Role:         u.Role,
		TenantID:     u.Tenant(),
		TokenVersion: u.TokenVersion,
	}
	if t != nil {
		claims.Plan = string(t.SubscriptionPlan)
	}

	accessToken, expiresAt, err := s.jwt.CreateAccessToken(claims)
	if err != nil {
		return nil, "", fmt.Errorf("create access token: %w", err)
	}

	refreshData, err := s.jwt.CreateRefreshToken(familyID)
	if err != nil {
		return nil, "", fmt.Errorf("create refresh token: %w", err)
	}

	entity := &RefreshToken{
		ID:        uuid.New().String(),
		UserID:    u.ID,
		TenantID:  u.TenantID,
		TokenHash: refreshData.Hash,
		FamilyID:  refreshData.FamilyID,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: client.UserAgent,
		IPAddress: client.IPAddress,
	}

	if err := s.repo.Create(ctx, entity); err != nil {
		return nil, "", fmt.Errorf("store refresh token: %w", err)
	}

	resp := &AuthResponse{
		User: user.ToUserResponse(u),
		Tokens: TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshData.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(s.jwt.AccessTokenTTL() / time.Second),
			ExpiresAt:    expiresAt,
		},
	}
	if t != nil {
		tr := tenant.ToTenantResponse(t)
		resp.Tenant = &tr
	}

	return resp, entity.ID, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
