// AngelaMos | 2026
// handler_test.go

package prescription

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

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newTestRouter(svc *Service, tenantID, callerRole string) http.Handler {
	claims := &middleware.AccessTokenClaims{UserID: "caller-1", Role: callerRole, TenantID: tenantID}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithTenantID(middleware.WithClaims(r.Context(), claims), tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	NewHandler(svc).RegisterRoutes(r,
		middleware.RequireRole(role.TenantAdmin, role.Admin, role.Pharmacist, role.SuperAdmin))
	return r
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

const saleBody = `{
	"patient": {"name": "Asha", "age": 40},
	"doctor": {"name": "Dr. Rao"},
	"lines": [
		{"medicine_id": "33333333-3333-3333-3333-333333333333", "name": "Amoxicillin",
		 "quantity": 2, "unit_price": 10, "line_total": 9999}
	]
}`

func TestHandler_CreateIgnoresClientTotals(t *testing.T) {
	svc, _ := newTestService(t, 0)
	router := newTestRouter(svc, tenantA, role.Cashier)

	rec := serve(router, http.MethodPost, "/prescriptions", saleBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got PrescriptionResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &got))
	assert.InDelta(t, 20, got.Lines[0].LineTotal, 1e-9)
	assert.InDelta(t, 22, got.Totals.Total, 1e-9)
	assert.Equal(t, StatusPending, got.Status)
}

func TestHandler_ValidationErrors(t *testing.T) {
	svc, _ := newTestService(t, 0)
	router := newTestRouter(svc, tenantA, role.Cashier)

	rec := serve(router, http.MethodPost, "/prescriptions", `{"patient":{"name":"Asha"},"lines":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(router, http.MethodPost, "/prescriptions", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_StatusNeedsDispenser(t *testing.T) {
	svc, _ := newTestService(t, 0)
	p := createPrescription(t, svc, tenantA, saleRequest("Asha"))

	cashier := newTestRouter(svc, tenantA, role.Cashier)
	rec := serve(cashier, http.MethodPatch, "/prescriptions/"+p.ID+"/status", `{"status":"dispensed"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	pharmacist := newTestRouter(svc, tenantA, role.Pharmacist)
	rec = serve(pharmacist, http.MethodPatch, "/prescriptions/"+p.ID+"/status", `{"status":"dispensed"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got PrescriptionResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &got))
	require.NotNil(t, got.DispensedBy)
	assert.Equal(t, "caller-1", *got.DispensedBy)

	rec = serve(pharmacist, http.MethodPatch, "/prescriptions/"+p.ID+"/status", `{"status":"pending"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_TRANSITION", decode(t, rec).Error.Code)
}

func TestHandler_CrossTenantNotFound(t *testing.T) {
	svc, _ := newTestService(t, 0)
	p := createPrescription(t, svc, tenantA, saleRequest("Asha"))

	router := newTestRouter(svc, tenantB, role.Admin)
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/prescriptions/"+p.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/prescriptions/"+p.ID+"/receipt", "").Code)
}

func TestHandler_MalformedIDIsNotFound(t *testing.T) {
	svc, _ := newTestService(t, 0)
	router := newTestRouter(svc, tenantA, role.Pharmacist)

	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/prescriptions/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/prescriptions/abc/receipt", "").Code)
	assert.Equal(t, http.StatusNotFound,
		serve(router, http.MethodPatch, "/prescriptions/abc/status", `{"status":"cancelled"}`).Code)
}

func TestHandler_DuplicateNumber(t *testing.T) {
	svc, _ := newTestService(t, 0)
	router := newTestRouter(svc, tenantA, role.Cashier)
	body := strings.Replace(saleBody, `"patient"`, `"prescription_number": "RX-7", "patient"`, 1)

	require.Equal(t, http.StatusCreated, serve(router, http.MethodPost, "/prescriptions", body).Code)

	rec := serve(router, http.MethodPost, "/prescriptions", body)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DUPLICATE", decode(t, rec).Error.Code)
}

func TestHandler_Receipt(t *testing.T) {
	svc, _ := newTestService(t, 0)
	p := createPrescription(t, svc, tenantA, saleRequest("Asha"))
	router := newTestRouter(svc, tenantA, role.Cashier)

	rec := serve(router, http.MethodGet, "/prescriptions/"+p.ID+"/receipt", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), p.Number+".pdf")
}
