// AngelaMos | 2026
// handler.go

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

const probeTimeout = 5 * time.Second

type Checker interface {
	Ping(ctx context.Context) error
}

// Probe is one dependency checked by /readyz. A failing critical probe
// takes the instance out of rotation; a failing optional one only marks
// it degraded.
type Probe struct {
	Name     string
	Checker  Checker
	Critical bool
}

type Handler struct {
	probes   []Probe
	shutdown atomic.Bool
}

func NewHandler(probes ...Probe) *Handler {
	return &Handler{probes: probes}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Liveness)
	r.Get("/livez", h.Liveness)
	r.Get("/readyz", h.Readiness)
}

func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	if h.shutdown.Load() {
		writeStatus(w, http.StatusServiceUnavailable, StatusResponse{Status: "shutting_down"})
		return
	}

	writeStatus(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.shutdown.Load() {
		writeStatus(w, http.StatusServiceUnavailable, StatusResponse{Status: "shutting_down"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	checks := h.runProbes(ctx)

	status, code := "ok", http.StatusOK
	for i, check := range checks {
		if check.Healthy {
			continue
		}
		if h.probes[i].Critical {
			status, code = "unavailable", http.StatusServiceUnavailable
			break
		}
		status = "degraded"
	}

	writeStatus(w, code, ReadinessResponse{Status: status, Checks: checks})
}

func (h *Handler) runProbes(ctx context.Context) []HealthCheck {
	checks := make([]HealthCheck, len(h.probes))

	var g errgroup.Group
	for i, p := range h.probes {
		g.Go(func() error {
			checks[i] = runProbe(ctx, p)
			return nil
		})
	}
	//nolint:errcheck // probes report through checks, never through the group
	_ = g.Wait()

	return checks
}

func runProbe(ctx context.Context, p Probe) HealthCheck {
	check := HealthCheck{Name: p.Name, Critical: p.Critical, Healthy: true}

	if p.Checker == nil {
		check.Healthy = false
		check.Message = "not configured"
		return check
	}

	start := time.Now()
	err := p.Checker.Ping(ctx)
	check.Latency = time.Since(start).String()

	if err != nil {
		check.Healthy = false
		check.Message = "ping failed"
	}

	return check
}

func (h *Handler) SetShutdown(shutdown bool) {
	h.shutdown.Store(shutdown)
}

func writeStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort response
	_ = json.NewEncoder(w).Encode(data)
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ReadinessResponse struct {
	Status string        `json:"status"`
	Checks []HealthCheck `json:"checks"`
}

type HealthCheck struct {
	Name     string `json:"name"`
	Critical bool   `json:"critical"`
	Healthy  bool   `json:"healthy"`
	Latency  string `json:"latency,omitempty"`
	Message  string `json:"message,omitempty"`
}
