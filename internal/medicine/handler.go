// AngelaMos | 2026
// handler.go

package medicine

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/pharmahub/internal/core"
	"github.com/carterperez-dev/pharmahub/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts on a router already scoped to one tenant.
// Writes need staff that handle stock.
func (h *Handler) RegisterRoutes(r chi.Router, staffOnly func(http.Handler) http.Handler) {
	r.Route("/medicines", func(r chi.Router) {
		r.Get("/", h.ListMedicines)
		r.Get("/export", h.ExportInventory)
		r.Get("/{medicineID}", h.GetMedicine)

		r.Group(func(r chi.Router) {
			r.Use(staffOnly)
			r.Post("/", h.CreateMedicine)
			r.Put("/{medicineID}", h.UpdateMedicine)
			r.Delete("/{medicineID}", h.DeleteMedicine)
			r.Post("/{medicineID}/stock", h.AdjustStock)
		})
	})
}

func (h *Handler) ListMedicines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListMedicinesParams{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		LowStock: parseBoolQuery(r, "lowStock"),
		Expiring: parseBoolQuery(r, "expiring"),
		Limit:    parseIntQuery(r, "limit", 50),
		Offset:   parseIntQuery(r, "offset", 0),
	}
	params.Normalize()

	meds, total, err := h.service.ListMedicines(r.Context(), middleware.GetTenantID(r.Context()), params)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Windowed(w,
		ToMedicineResponseList(meds, h.service.Now(), h.service.Windows()),
		params.Limit, params.Offset, total)
}

func (h *Handler) GetMedicine(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.GetMedicine(r.Context(),
		middleware.GetTenantID(r.Context()), chi.URLParam(r, "medicineID"))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToMedicineResponse(m, h.service.Now(), h.service.Windows()))
}

func (h *Handler) CreateMedicine(w http.ResponseWriter, r *http.Request) {
	var req CreateMedicineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	m, err := h.service.CreateMedicine(r.Context(), middleware.GetTenantID(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, ToMedicineResponse(m, h.service.Now(), h.service.Windows()))
}

func (h *Handler) UpdateMedicine(w http.ResponseWriter, r *http.Request) {
	var req UpdateMedicineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	m, err := h.service.UpdateMedicine(r.Context(),
		middleware.GetTenantID(r.Context()), chi.URLParam(r, "medicineID"), req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToMedicineResponse(m, h.service.Now(), h.service.Windows()))
}

func (h *Handler) DeleteMedicine(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteMedicine(r.Context(),
		middleware.GetTenantID(r.Context()), chi.URLParam(r, "medicineID"))
	if err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req AdjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	m, err := h.service.AdjustStock(r.Context(),
		middleware.GetTenantID(r.Context()), chi.URLParam(r, "medicineID"), req.Delta, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToMedicineResponse(m, h.service.Now(), h.service.Windows()))
}

func (h *Handler) ExportInventory(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())

	buf, err := h.service.ExportInventory(r.Context(), tenantID)
	if err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("inventory-%s.xlsx", h.service.Now().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w) //nolint:errcheck // client may disconnect
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidMedicine):
		core.JSONError(w, core.ValidationError(err.Error()))
	case errors.Is(err, ErrInsufficientStock):
		core.JSONError(w, core.ConflictError("insufficient stock for this adjustment", "INSUFFICIENT_STOCK"))
	case errors.Is(err, core.ErrLimitExceeded):
		core.JSONError(w, core.LimitExceededError("medicines"))
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, "invalid request")
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "medicine")
	default:
		core.InternalServerError(w, err)
	}
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}

func parseBoolQuery(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}
