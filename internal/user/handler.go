// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"errors"
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

// RegisterRoutes mounts tenant user management. Every route requires an
// admin-equivalent caller.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/users", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.ListUsers)
		r.Post("/", h.CreateUser)
		r.Get("/{userID}", h.GetUser)
		r.Put("/{userID}", h.UpdateUser)
		r.Delete("/{userID}", h.DeactivateUser)
		r.Delete("/auto-delete/{userID}", h.DeleteUser)
	})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := resolveTenant(w, r, "")
	if !ok {
		return
	}

	params := ListUsersParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
		Role:     r.URL.Query().Get("role"),
		Status:   r.URL.Query().Get("status"),
	}
	params.Normalize()

	users, total, err := h.service.ListUsers(r.Context(), tenantID, params)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Paginated(w, ToUserResponseList(users), params.Page, params.PageSize, total)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	tenantID, ok := resolveTenant(w, r, req.TenantID)
	if !ok {
		return
	}

	user, err := h.service.CreateUser(r.Context(), tenantID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, ToUserResponse(user))
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := resolveTenant(w, r, "")
	if !ok {
		return
	}

	user, err := h.service.GetUser(r.Context(), tenantID, chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	tenantID, ok := resolveTenant(w, r, req.TenantID)
	if !ok {
		return
	}

	user, err := h.service.UpdateUser(
		r.Context(),
		tenantID,
		chi.URLParam(r, "userID"),
		req,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

// DeactivateUser is the soft delete.
func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := resolveTenant(w, r, "")
	if !ok {
		return
	}

	targetID := chi.URLParam(r, "userID")
	if targetID == middleware.GetUserID(r.Context()) {
		core.BadRequest(w, "cannot deactivate your own account")
		return
	}

	if err := h.service.DeactivateUser(r.Context(), tenantID, targetID); err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := resolveTenant(w, r, "")
	if !ok {
		return
	}

	targetID := chi.URLParam(r, "userID")
	if targetID == middleware.GetUserID(r.Context()) {
		core.BadRequest(w, "cannot delete your own account")
		return
	}

	if err := h.service.DeleteUser(r.Context(), tenantID, targetID); err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

// resolveTenant picks the tenant a request targets: query parameter first,
// then the body field, then the caller's own tenant. A tenant the caller
// cannot reach answers 404 so other tenants' ids are not confirmed.
func resolveTenant(w http.ResponseWriter, r *http.Request, bodyTenant string) (string, bool) {
	ctx := r.Context()

	tenantID := r.URL.Query().Get("tenantId")
	if tenantID == "" {
		tenantID = r.URL.Query().Get("tenant_id")
	}
	if tenantID == "" {
		tenantID = bodyTenant
	}
	if tenantID == "" {
		tenantID = middleware.GetTenantID(ctx)
	}
	if tenantID == "" {
		tenantID = middleware.GetUserTenantID(ctx)
	}

	if tenantID == "" {
		if middleware.IsSuperAdmin(ctx) {
			return "", true
		}
		core.NotFound(w, "tenant")
		return "", false
	}

	if core.CheckIDs("tenant", tenantID) != nil || !middleware.CanAccessTenant(ctx, tenantID) {
		core.NotFound(w, "tenant")
		return "", false
	}

	return tenantID, true
}

func writeError(w http.ResponseWriter, err error) {
	var weak *WeakPasswordError
	switch {
	case errors.As(err, &weak):
		core.JSONError(w, core.WeakPasswordError(weak.Validation))
	case errors.Is(err, ErrLastAdmin):
		core.JSONError(w, core.ConflictError(ErrLastAdmin.Error(), "LAST_ADMIN"))
	case errors.Is(err, ErrProtectedUser):
		core.JSONError(w, core.NewAppError(
			ErrProtectedUser,
			"this user cannot be modified",
			http.StatusBadRequest,
			"PROTECTED_USER",
		))
	case errors.Is(err, ErrInvalidRole):
		core.BadRequest(w, "role cannot be assigned")
	case errors.Is(err, ErrEmailTaken):
		core.JSONError(w, core.DuplicateError("email"))
	case errors.Is(err, ErrUsernameTaken):
		core.JSONError(w, core.DuplicateError("username"))
	case errors.Is(err, core.ErrLimitExceeded):
		core.JSONError(w, core.LimitExceededError("users"))
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, "invalid request")
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "user")
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
