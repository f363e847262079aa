// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/pharmahub/internal/core"
)

// SessionJanitor drops refresh tokens that can no longer be used.
type SessionJanitor interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type HandlerConfig struct {
	Repo       Repository
	Janitor    SessionJanitor
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	DBPing     func(ctx context.Context) error
	RedisPing  func(ctx context.Context) error
}

type Handler struct {
	cfg HandlerConfig
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{cfg: cfg}
}

// RegisterRoutes mounts /admin behind authenticator and superAdminOnly.
// Each mount adds more super admin routes, such as the tenant directory.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, superAdminOnly func(http.Handler) http.Handler,
	mounts ...func(chi.Router),
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(superAdminOnly)

		r.Get("/stats", h.GetSystemStats)
		r.Get("/stats/platform", h.GetPlatformStats)
		r.Get("/stats/db", h.GetDatabaseStats)
		r.Get("/stats/redis", h.GetRedisStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
		r.Delete("/sessions/expired", h.PurgeExpiredSessions)

		for _, mount := range mounts {
			mount(r)
		}
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	platform, err := h.platformStats(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "platform stats unavailable", "error", err)
	}

	core.OK(w, SystemStatsResponse{
		Platform: platform,
		Database: DatabaseStatus{
			Healthy: pingOK(ctx, h.cfg.DBPing),
			Stats:   h.dbStats(),
		},
		Redis: RedisStatus{
			Healthy: pingOK(ctx, h.cfg.RedisPing),
			Stats:   h.redisStats(),
		},
		Runtime: runtimeStats(),
	})
}

func (h *Handler) GetPlatformStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.platformStats(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, stats)
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.dbStats())
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.redisStats())
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, runtimeStats())
}

func (h *Handler) PurgeExpiredSessions(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Janitor == nil {
		core.OK(w, PurgeResponse{})
		return
	}

	n, err := h.cfg.Janitor.DeleteExpired(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "expired sessions purged", "deleted", n)
	core.OK(w, PurgeResponse{Deleted: n})
}

func (h *Handler) platformStats(ctx context.Context) (*PlatformStats, error) {
	if h.cfg.Repo == nil {
		return nil, nil
	}

	totals, err := h.cfg.Repo.Totals(ctx)
	if err != nil {
		return nil, err
	}

	byPlan, err := h.cfg.Repo.TenantsByPlan(ctx)
	if err != nil {
		return nil, err
	}
	if byPlan == nil {
		byPlan = []PlanCount{}
	}

	return &PlatformStats{Totals: *totals, ByPlan: byPlan}, nil
}

func (h *Handler) dbStats() *DBPoolStats {
	if h.cfg.DBStats == nil {
		return nil
	}

	stats := h.cfg.DBStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

func (h *Handler) redisStats() *RedisPoolStats {
	if h.cfg.RedisStats == nil {
		return nil
	}

	stats := h.cfg.RedisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
	}
}

func pingOK(ctx context.Context, ping func(context.Context) error) bool {
	return ping == nil || ping(ctx) == nil
}

func runtimeStats() RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     mem.Alloc,
		NumGC:        mem.NumGC,
	}
}
