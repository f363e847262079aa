// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/pharmahub/internal/core"
	"github.com/carterperez-dev/pharmahub/internal/role"
)

type stubVerifier struct {
	claims *AccessTokenClaims
	err    error
}

func (s stubVerifier) VerifyAccessToken(
	_ context.Context,
	_ string,
) (*AccessTokenClaims, error) {
	return s.claims, s.err
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthenticator(t *testing.T) {
	claims := &AccessTokenClaims{UserID: "u1", Role: role.Pharmacist, TenantID: "t1"}

	tests := []struct {
		name     string
		header   string
		verifier stubVerifier
		want     int
	}{
		{name: "missing token", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", want: http.StatusUnauthorized},
		{
			name:     "expired",
			header:   "Bearer tok",
			verifier: stubVerifier{err: fmt.Errorf("verify: %w", core.ErrTokenExpired)},
			want:     http.StatusUnauthorized,
		},
		{
			name:     "valid",
			header:   "Bearer tok",
			verifier: stubVerifier{claims: claims},
			want:     http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen context.Context
			h := Authenticator(tt.verifier)(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					seen = r.Context()
					okHandler(w, r)
				},
			))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, "u1", GetUserID(seen))
				assert.Equal(t, "t1", GetUserTenantID(seen))
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{role: "", want: http.StatusUnauthorized},
		{role: role.Cashier, want: http.StatusForbidden},
		{role: role.Admin, want: http.StatusOK},
		{role: role.TenantAdmin, want: http.StatusOK},
		{role: role.SuperAdmin, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.role != "" {
				req = req.WithContext(WithClaims(req.Context(), &AccessTokenClaims{
					UserID: "u1",
					Role:   tt.role,
				}))
			}
			rec := httptest.NewRecorder()
			RequireAdmin(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCanAccessTenant(t *testing.T) {
	member := WithClaims(context.Background(), &AccessTokenClaims{
		UserID: "u1", Role: role.Admin, TenantID: "t1",
	})
	root := WithClaims(context.Background(), &AccessTokenClaims{
		UserID: "root", Role: role.SuperAdmin,
	})

	assert.True(t, CanAccessTenant(member, "t1"))
	assert.False(t, CanAccessTenant(member, "t2"))
	assert.True(t, CanAccessTenant(root, "t2"))
	assert.False(t, CanAccessTenant(context.Background(), ""))
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
}
