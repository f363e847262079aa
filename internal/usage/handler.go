// AngelaMos | 2026
// handler.go

package usage

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/pharmahub/internal/core"
	"github.com/carterperez-dev/pharmahub/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts on a router already scoped to one tenant.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stats", h.GetStats)
	r.Get("/limits", h.GetLimits)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetTenantStats(r.Context(), middleware.GetTenantID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, stats)
}

func (h *Handler) GetLimits(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.CheckTenantLimits(r.Context(), middleware.GetTenantID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, report)
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, core.ErrNotFound) {
		core.NotFound(w, "tenant")
		return
	}
	core.InternalServerError(w, err)
}
