// AngelaMos | 2026
// handler_test.go

package tenant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/pharmahub/internal/middleware"
	"github.com/carterperez-dev/pharmahub/internal/role"
)

func routerAs(h *Handler, claims *middleware.AccessTokenClaims) http.Handler {
	r := chi.NewRouter()
	h.RegisterPublicRoutes(r)
	r.Route("/tenant/{tenantRef}", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.WithClaims(req.Context(), claims)))
			})
		})
		r.Use(h.Resolver)
		h.RegisterRoutes(r, middleware.RequireAdmin, middleware.RequireSuperAdmin)
	})
	return r
}

func TestResolver_TenantIsolation(t *testing.T) {
	svc := NewService(newMemRepo(), Options{})
	ctx := context.Background()

	a, _, err := svc.Register(ctx, registerInput("A", "alpha-meds"))
	require.NoError(t, err)
	b, _, err := svc.Register(ctx, registerInput("B", "beta-meds"))
	require.NoError(t, err)

	router := routerAs(NewHandler(svc), &middleware.AccessTokenClaims{
		UserID: "u1", Role: role.Pharmacist, TenantID: a.ID,
	})

	tests := []struct {
		path string
		want int
	}{
		{"/tenant/alpha-meds", http.StatusOK},
		{"/tenant/" + a.ID, http.StatusOK},
		{"/tenant/beta-meds", http.StatusNotFound},
		{"/tenant/" + b.ID, http.StatusNotFound},
		{"/tenant/missing-meds", http.StatusNotFound},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.want, rec.Code, tt.path)
	}
}

func TestUpdateTenant_PlanChangeNeedsSuperAdmin(t *testing.T) {
	svc := NewService(newMemRepo(), Options{})
	a, _, err := svc.Register(context.Background(), registerInput("A", "alpha-meds"))
	require.NoError(t, err)

	admin := routerAs(NewHandler(svc), &middleware.AccessTokenClaims{
		UserID: "u1", Role: role.TenantAdmin, TenantID: a.ID,
	})

	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/tenant/alpha-meds",
		strings.NewReader(`{"plan":"enterprise"}`)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/tenant/alpha-meds",
		strings.NewReader(`{"name":"Alpha Pharmacy"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alpha Pharmacy")

	root := routerAs(NewHandler(svc), &middleware.AccessTokenClaims{UserID: "root", Role: role.SuperAdmin})
	rec = httptest.NewRecorder()
	root.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/tenant/alpha-meds",
		strings.NewReader(`{"plan":"enterprise"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckSubdomainEndpoint(t *testing.T) {
	router := routerAs(NewHandler(NewService(newMemRepo(), Options{})), &middleware.AccessTokenClaims{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/tenants/check-subdomain?subdomain=City+Pharmacy%21", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"subdomain":"city-pharmacy"`)
	assert.Contains(t, rec.Body.String(), `"available":true`)
}
