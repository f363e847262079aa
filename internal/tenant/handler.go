// AngelaMos | 2026
// handler.go

package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/pharmahub/internal/core"
	"github.com/carterperez-dev/pharmahub/internal/middleware"
	"github.com/carterperez-dev/pharmahub/internal/user"
)

type ctxKey struct{}

// FromContext returns the tenant resolved by Resolver.
func FromContext(ctx context.Context) *Tenant {
	t, _ := ctx.Value(ctxKey{}).(*Tenant)
	return t
}

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

// RegisterPublicRoutes mounts endpoints that need no session.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/tenants/check-subdomain", h.CheckSubdomain)
}

// RegisterRoutes mounts on a router already scoped to /tenant/{tenantRef}
// and guarded by Resolver.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	adminOnly, superAdminOnly func(http.Handler) http.Handler,
) {
	r.Get("/", h.GetTenant)
	r.With(adminOnly).Patch("/", h.UpdateTenant)
	r.With(superAdminOnly).Delete("/", h.DeactivateTenant)
}

// RegisterAdminRoutes mounts the super admin tenant directory.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/tenants", h.ListTenants)
	r.Post("/tenants", h.CreateTenant)
}

// Resolver looks up {tenantRef} and admits the caller only when it belongs
// to that tenant. Unknown and foreign tenants answer the same 404.
func (h *Handler) Resolver(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		t, err := h.service.Resolve(ctx, chi.URLParam(r, "tenantRef"))
		if err != nil {
			writeError(w, err)
			return
		}

		if !middleware.CanAccessTenant(ctx, t.ID) {
			core.NotFound(w, "tenant")
			return
		}

		ctx = middleware.WithTenantID(ctx, t.ID)
		ctx = context.WithValue(ctx, ctxKey{}, t)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	t := FromContext(r.Context())
	if t == nil {
		core.NotFound(w, "tenant")
		return
	}

	core.OK(w, ToTenantResponse(t))
}

func (h *Handler) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	var req UpdateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	// plan and subscription state are billing decisions
	if (req.Plan != nil || req.SubscriptionStatus != nil) && !middleware.IsSuperAdmin(r.Context()) {
		core.Forbidden(w, "only the platform admin can change the subscription")
		return
	}

	t, err := h.service.UpdateTenant(r.Context(), middleware.GetTenantID(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToTenantResponse(t))
}

func (h *Handler) DeactivateTenant(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeactivateTenant(r.Context(), middleware.GetTenantID(r.Context())); err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) CheckSubdomain(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("subdomain")
	if raw == "" {
		core.BadRequest(w, "subdomain is required")
		return
	}

	res, err := h.service.CheckSubdomain(r.Context(), raw)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, res)
}

func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	params := ListTenantsParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
		Plan:     r.URL.Query().Get("plan"),
		Status:   r.URL.Query().Get("status"),
	}
	params.Normalize()

	tenants, total, err := h.service.ListTenants(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Paginated(w, ToTenantResponseList(tenants), params.Page, params.PageSize, total)
}

func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	t, err := h.service.CreateTenant(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, ToTenantResponse(t))
}

// WriteError renders tenant directory failures, including those raised
// while registering the first admin.
func WriteError(w http.ResponseWriter, err error) {
	writeError(w, err)
}

func writeError(w http.ResponseWriter, err error) {
	var weak *user.WeakPasswordError
	switch {
	case errors.As(err, &weak):
		core.JSONError(w, core.WeakPasswordError(weak.Validation))
	case errors.Is(err, ErrInvalidSubdomain):
		core.JSONError(w, core.ValidationError(err.Error()))
	case errors.Is(err, ErrInvalidPlan):
		core.JSONError(w, core.ValidationError("unknown subscription plan"))
	case errors.Is(err, ErrSubdomainTaken):
		core.JSONError(w, core.DuplicateError("subdomain"))
	case errors.Is(err, user.ErrEmailTaken):
		core.JSONError(w, core.DuplicateError("email"))
	case errors.Is(err, user.ErrUsernameTaken):
		core.JSONError(w, core.DuplicateError("username"))
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, "invalid request")
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "tenant")
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
