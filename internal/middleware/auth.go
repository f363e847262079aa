// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/carterperez-dev/pharmahub/internal/core"
	"github.com/carterperez-dev/pharmahub/internal/role"
)

const (
	UserIDKey     contextKey = "user_id"
	UserRoleKey   contextKey = "user_role"
	UserTenantKey contextKey = "user_tenant_id"
	UserPlanKey   contextKey = "user_plan"
	ClaimsKey     contextKey = "jwt_claims"
)

type TokenVerifier interface {
	VerifyAccessToken(
		ctx context.Context,
		token string,
	) (*AccessTokenClaims, error)
}

// AccessTokenClaims is the verified identity of a caller. TenantID is empty
// only for the platform super admin.
type AccessTokenClaims struct {
	UserID       string
	Role         string
	TenantID     string
	Plan         string
	TokenVersion int
	JTI          string
}

func Authenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("missing authorization token"),
				)
				return
			}

			claims, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userRole := GetUserRole(r.Context())

			if userRole == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			if _, ok := roleSet[userRole]; !ok {
				core.JSONError(
					w,
					core.ForbiddenError("insufficient permissions"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin admits tenant admins and the platform super admin.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(role.AdminEquivalents()...)(next)
}

func RequireSuperAdmin(next http.Handler) http.Handler {
	return RequireRole(role.SuperAdmin)(next)
}

// WithClaims stores verified claims on ctx. Tests use it to impersonate a
// caller without minting a token.
func WithClaims(ctx context.Context, claims *AccessTokenClaims) context.Context {
	noteRequestAttrs(ctx, func(a *requestAttrs) { a.userID = claims.UserID })
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
	ctx = context.WithValue(ctx, UserTenantKey, claims.TenantID)
	ctx = context.WithValue(ctx, UserPlanKey, claims.Plan)
	ctx = context.WithValue(ctx, ClaimsKey, claims)
	return ctx
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	case errors.Is(err, core.ErrTokenInvalid):
		core.JSONError(w, core.TokenInvalidError())
	default:
		core.JSONError(w, core.TokenInvalidError())
	}
}

func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

func GetUserRole(ctx context.Context) string {
	if role, ok := ctx.Value(UserRoleKey).(string); ok {
		return role
	}
	return ""
}

// GetUserTenantID returns the tenant the caller belongs to, not the tenant
// addressed by the request path. See GetTenantID for the latter.
func GetUserTenantID(ctx context.Context) string {
	if id, ok := ctx.Value(UserTenantKey).(string); ok {
		return id
	}
	return ""
}

func GetUserPlan(ctx context.Context) string {
	if p, ok := ctx.Value(UserPlanKey).(string); ok {
		return p
	}
	return ""
}

func GetClaims(ctx context.Context) *AccessTokenClaims {
	if claims, ok := ctx.Value(ClaimsKey).(*AccessTokenClaims); ok {
		return claims
	}
	return nil
}

func IsSuperAdmin(ctx context.Context) bool {
	return GetUserRole(ctx) == role.SuperAdmin
}
