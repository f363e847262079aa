// AngelaMos | 2026
// handler_test.go

package user

import (
	"encoding/json"
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

func impersonate(claims *middleware.AccessTokenClaims) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithClaims(r.Context(), claims)))
		})
	}
}

func newTestRouter(svc *Service, claims *middleware.AccessTokenClaims) http.Handler {
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r, impersonate(claims), middleware.RequireAdmin)
	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestHandler_CreateUser_DefaultsToCallerTenant(t *testing.T) {
	svc, repo, _ := newTestService(t)
	router := newTestRouter(svc, &middleware.AccessTokenClaims{
		UserID: "caller", Role: role.TenantAdmin, TenantID: tenantA,
	})

	body := `{"email":"new@example.com","username":"newbie","password":"Pharm@cy2026","role":"cashier"}`
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.NotContains(t, string(env.Data), "password")
	assert.Equal(t, 1, repo.count(tenantA))
}

func TestHandler_CrossTenantIsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	target := createMember(t, svc, tenantB, "other@example.com", role.Cashier)

	router := newTestRouter(svc, &middleware.AccessTokenClaims{
		UserID: "caller", Role: role.Admin, TenantID: tenantA,
	})

	req := httptest.NewRequest(http.MethodGet, "/users/"+target.ID+"?tenantId="+tenantB, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/users/"+target.ID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_SuperAdminReachesAnyTenant(t *testing.T) {
	svc, _, _ := newTestService(t)
	target := createMember(t, svc, tenantB, "other@example.com", role.Cashier)

	router := newTestRouter(svc, &middleware.AccessTokenClaims{
		UserID: "root", Role: role.SuperAdmin,
	})

	req := httptest.NewRequest(http.MethodGet, "/users/"+target.ID+"?tenantId="+tenantB, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_LastAdminConflict(t *testing.T) {
	svc, _, _ := newTestService(t)
	admin := createMember(t, svc, tenantA, "solo@example.com", role.TenantAdmin)

	router := newTestRouter(svc, &middleware.AccessTokenClaims{
		UserID: "root", Role: role.SuperAdmin,
	})

	req := httptest.NewRequest(http.MethodDelete, "/users/"+admin.ID+"?tenantId="+tenantA, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "LAST_ADMIN", env.Error.Code)
}

func TestHandler_NonAdminForbidden(t *testing.T) {
	svc, _, _ := newTestService(t)
	router := newTestRouter(svc, &middleware.AccessTokenClaims{
		UserID: "caller", Role: role.Cashier, TenantID: tenantA,
	})

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandler_MalformedIDIsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	target := createMember(t, svc, tenantA, "ivy@example.com", role.Cashier)

	admin := newTestRouter(svc, &middleware.AccessTokenClaims{
		UserID: "caller", Role: role.TenantAdmin, TenantID: tenantA,
	})
	root := newTestRouter(svc, &middleware.AccessTokenClaims{
		UserID: "root", Role: role.SuperAdmin,
	})

	cases := []struct {
		name   string
		router http.Handler
		method string
		target string
	}{
		{"get user", admin, http.MethodGet, "/users/abc"},
		{"deactivate user", admin, http.MethodDelete, "/users/abc"},
		{"delete user", admin, http.MethodDelete, "/users/auto-delete/abc"},
		{"tenant query", root, http.MethodGet, "/users/" + target.ID + "?tenantId=abc"},
		{"tenant list", root, http.MethodGet, "/users?tenantId=abc"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.target, nil)
			rec := httptest.NewRecorder()
			tc.router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}
