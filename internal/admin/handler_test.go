// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/pharmahub/internal/core"
	"github.com/carterperez-dev/pharmahub/internal/middleware"
	"github.com/carterperez-dev/pharmahub/internal/role"
)

type fakeRepo struct {
	totals PlatformTotals
	byPlan []PlanCount
	err    error
}

func (f *fakeRepo) Totals(context.Context) (*PlatformTotals, error) {
	if f.err != nil {
		return nil, f.err
	}
	t := f.totals
	return &t, nil
}

func (f *fakeRepo) TenantsByPlan(context.Context) ([]PlanCount, error) {
	return f.byPlan, f.err
}

type fakeJanitor struct{ deleted int64 }

func (f *fakeJanitor) DeleteExpired(context.Context) (int64, error) { return f.deleted, nil }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(cfg HandlerConfig, callerRole, extra string) http.Handler {
	claims := &middleware.AccessTokenClaims{UserID: "caller", Role: callerRole}
	impersonate := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithClaims(r.Context(), claims)))
		})
	}

	r := chi.NewRouter()
	NewHandler(cfg).RegisterRoutes(r, impersonate, middleware.RequireSuperAdmin,
		func(r chi.Router) {
			r.Get("/tenants", func(w http.ResponseWriter, _ *http.Request) { core.OK(w, extra) })
		})
	return r
}

func get(router http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHandler_SuperAdminOnly(t *testing.T) {
	cfg := HandlerConfig{Repo: &fakeRepo{}}

	for _, r := range []string{role.TenantAdmin, role.Admin, role.Pharmacist} {
		router := newTestRouter(cfg, r, "")
		assert.Equal(t, http.StatusForbidden, get(router, http.MethodGet, "/admin/stats").Code, r)
		assert.Equal(t, http.StatusForbidden, get(router, http.MethodGet, "/admin/tenants").Code, r)
	}

	router := newTestRouter(cfg, role.SuperAdmin, "directory")
	assert.Equal(t, http.StatusOK, get(router, http.MethodGet, "/admin/tenants").Code)
}

func TestHandler_PlatformStats(t *testing.T) {
	repo := &fakeRepo{
		totals: PlatformTotals{Tenants: 3, ActiveTenants: 2, Users: 7, Medicines: 40, Prescriptions: 12},
		byPlan: []PlanCount{{Plan: "professional", Tenants: 1}, {Plan: "starter", Tenants: 1}},
	}
	router := newTestRouter(HandlerConfig{Repo: repo}, role.SuperAdmin, "")

	rec := get(router, http.MethodGet, "/admin/stats/platform")
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var stats PlatformStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 2, stats.Totals.ActiveTenants)
	assert.Equal(t, 40, stats.Totals.Medicines)
	assert.Len(t, stats.ByPlan, 2)
}

func TestHandler_SystemStatsSurvivesStoreErrors(t *testing.T) {
	cfg := HandlerConfig{
		Repo:   &fakeRepo{err: errors.New("db down")},
		DBPing: func(context.Context) error { return errors.New("db down") },
	}
	router := newTestRouter(cfg, role.SuperAdmin, "")

	rec := get(router, http.MethodGet, "/admin/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var stats SystemStatsResponse
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Nil(t, stats.Platform)
	assert.False(t, stats.Database.Healthy)
	assert.True(t, stats.Redis.Healthy)
	assert.NotEmpty(t, stats.Runtime.GoVersion)

	assert.Equal(t, http.StatusInternalServerError,
		get(router, http.MethodGet, "/admin/stats/platform").Code)
}

func TestHandler_PurgeExpiredSessions(t *testing.T) {
	router := newTestRouter(HandlerConfig{Janitor: &fakeJanitor{deleted: 4}}, role.SuperAdmin, "")

	rec := get(router, http.MethodDelete, "/admin/sessions/expired")
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var resp PurgeResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, int64(4), resp.Deleted)
}
