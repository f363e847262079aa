// AngelaMos | 2026
// handler.go

package prescription

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

// RegisterRoutes mounts on a tenant-scoped router. Any member may record a
// sale; moving a prescription through its lifecycle needs dispensing staff.
func (h *Handler) RegisterRoutes(r chi.Router, dispenserOnly func(http.Handler) http.Handler) {
	r.Route("/prescriptions", func(r chi.Router) {
		r.Get("/", h.ListPrescriptions)
		r.Post("/", h.CreatePrescription)
		r.Get("/{prescriptionID}", h.GetPrescription)
		r.Put("/{prescriptionID}", h.UpdatePrescription)
		r.Get("/{prescriptionID}/receipt", h.Receipt)
		r.With(dispenserOnly).Patch("/{prescriptionID}/status", h.UpdateStatus)
	})
}

func (h *Handler) ListPrescriptions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListPrescriptionsParams{
		Status: Status(q.Get("status")),
		Search: q.Get("search"),
		Limit:  parseIntQuery(r, "limit", 50),
		Offset: parseIntQuery(r, "offset", 0),
	}
	params.Normalize()

	ps, total, err := h.service.ListPrescriptions(r.Context(), middleware.GetTenantID(r.Context()), params)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Windowed(w, ToPrescriptionResponseList(ps), params.Limit, params.Offset, total)
}

func (h *Handler) CreatePrescription(w http.ResponseWriter, r *http.Request) {
	var req CreatePrescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	ctx := r.Context()
	p, err := h.service.CreatePrescription(ctx,
		middleware.GetTenantID(ctx), middleware.GetUserID(ctx), req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, ToPrescriptionResponse(p))
}

func (h *Handler) GetPrescription(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPrescription(r.Context(),
		middleware.GetTenantID(r.Context()), chi.URLParam(r, "prescriptionID"))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToPrescriptionResponse(p))
}

func (h *Handler) UpdatePrescription(w http.ResponseWriter, r *http.Request) {
	var req UpdatePrescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.service.UpdatePrescription(r.Context(),
		middleware.GetTenantID(r.Context()), chi.URLParam(r, "prescriptionID"), req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToPrescriptionResponse(p))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	ctx := r.Context()
	p, err := h.service.UpdateStatus(ctx, middleware.GetTenantID(ctx),
		chi.URLParam(r, "prescriptionID"), req.Status, middleware.GetUserID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToPrescriptionResponse(p))
}

func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	buf, p, err := h.service.Receipt(r.Context(),
		middleware.GetTenantID(r.Context()), chi.URLParam(r, "prescriptionID"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, p.Number))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w) //nolint:errcheck // client may disconnect
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidPrescription):
		core.JSONError(w, core.ValidationError(err.Error()))
	case errors.Is(err, ErrNumberTaken):
		core.JSONError(w, core.DuplicateError("prescription number"))
	case errors.Is(err, ErrInvalidTransition):
		core.JSONError(w, core.ConflictError(err.Error(), "INVALID_TRANSITION"))
	case errors.Is(err, ErrNotEditable):
		core.JSONError(w, core.ConflictError("only pending prescriptions can be edited", "NOT_EDITABLE"))
	case errors.Is(err, core.ErrLimitExceeded):
		core.JSONError(w, core.LimitExceededError("prescriptions"))
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "prescription")
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
