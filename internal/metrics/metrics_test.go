// AngelaMos | 2026
// metrics_test.go

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New("test")

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/tenant/{tenantRef}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, ref := range []string{"alpha", "beta"} {
		req := httptest.NewRequest(http.MethodGet, "/tenant/"+ref, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(
		m.requestTotal.WithLabelValues(http.MethodGet, "/tenant/{tenantRef}", "418"),
	)
	assert.Equal(t, float64(2), got)
}

func TestDomainCounters(t *testing.T) {
	m := New("test")

	m.LoginAttempt("failure")
	m.LoginAttempt("failure")
	m.AccountLocked()
	m.LimitRejected("medicines")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.loginAttempts.WithLabelValues("failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.accountLockouts))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.limitRejections.WithLabelValues("medicines")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.LoginAttempt("success")
		m.AccountLocked()
		m.TenantRegistered()
		m.LimitRejected("users")
		m.LastAdminRefused()
	})
}

func TestHandler_ExposesRegistry(t *testing.T) {
	m := New("test")
	m.TenantRegistered()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_tenant_registrations_total 1")
}
