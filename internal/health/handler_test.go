// AngelaMos | 2026
// handler_test.go

package health

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
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var (
	up   = pingFunc(func(context.Context) error { return nil })
	down = pingFunc(func(context.Context) error { return errors.New("connection refused") })
)

func readyz(t *testing.T, h *Handler) (int, ReadinessResponse) {
	t.Helper()

	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		probes     []Probe
		wantCode   int
		wantStatus string
	}{
		{
			name: "all healthy",
			probes: []Probe{
				{Name: "database", Checker: up, Critical: true},
				{Name: "redis", Checker: up},
			},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
		},
		{
			name: "optional dependency down",
			probes: []Probe{
				{Name: "database", Checker: up, Critical: true},
				{Name: "redis", Checker: down},
			},
			wantCode:   http.StatusOK,
			wantStatus: "degraded",
		},
		{
			name: "critical dependency down",
			probes: []Probe{
				{Name: "database", Checker: down, Critical: true},
				{Name: "redis", Checker: up},
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unavailable",
		},
		{
			name:       "critical dependency missing",
			probes:     []Probe{{Name: "database", Critical: true}},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := readyz(t, NewHandler(tt.probes...))
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, body.Status)
			require.Len(t, body.Checks, len(tt.probes))
			for i, p := range tt.probes {
				assert.Equal(t, p.Name, body.Checks[i].Name)
			}
		})
	}
}

func TestShutdownFailsProbes(t *testing.T) {
	h := NewHandler(Probe{Name: "database", Checker: up, Critical: true})
	h.SetShutdown(true)

	r := chi.NewRouter()
	h.RegisterRoutes(r)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}
