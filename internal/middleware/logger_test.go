// AngelaMos | 2026
// logger_test.go

package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestLogger_RecordsInnerIdentity(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	claims := &AccessTokenClaims{UserID: "u1", TenantID: "t1"}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = WithTenantID(WithClaims(r.Context(), claims), "t1")
		w.WriteHeader(http.StatusTeapot)
	})

	h := RequestID(Logger(logger)(inner))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/x", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, "t1", entry["tenant_id"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestTracing_NamesSpanAfterRoute(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	r := chi.NewRouter()
	r.Use(Tracing(tp.Tracer("test")))
	r.Get("/medicines/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/medicines/42", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /medicines/{id}", spans[0].Name())
	assert.Equal(t, "Error", spans[0].Status().Code.String())
}
