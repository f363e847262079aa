// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/pharmahub/internal/admin"
	"github.com/carterperez-dev/pharmahub/internal/auth"
	"github.com/carterperez-dev/pharmahub/internal/config"
	"github.com/carterperez-dev/pharmahub/internal/core"
	"github.com/carterperez-dev/pharmahub/internal/health"
	"github.com/carterperez-dev/pharmahub/internal/medicine"
	"github.com/carterperez-dev/pharmahub/internal/metrics"
	"github.com/carterperez-dev/pharmahub/internal/middleware"
	"github.com/carterperez-dev/pharmahub/internal/plan"
	"github.com/carterperez-dev/pharmahub/internal/prescription"
	"github.com/carterperez-dev/pharmahub/internal/role"
	"github.com/carterperez-dev/pharmahub/internal/server"
	"github.com/carterperez-dev/pharmahub/internal/tenant"
	"github.com/carterperez-dev/pharmahub/internal/usage"
	"github.com/carterperez-dev/pharmahub/internal/user"
)

const (
	drainDelay = 5 * time.Second

	loginRequestsPerMinute = 10
	loginBurst             = 5
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		logger.Warn("failed to initialize telemetry", "error", err)
		telemetry = core.NoopTelemetry(cfg.Otel.ServiceName)
	} else if cfg.Otel.Enabled {
		logger.Info("OpenTelemetry tracer initialized",
			"endpoint", cfg.Otel.Endpoint,
		)
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("database schema applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	if err := ensureSigningKey(cfg); err != nil {
		return err
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	var appMetrics *metrics.Metrics
	if cfg.Metrics.Enabled {
		appMetrics = metrics.New("pharmahub")
	}

	usageSvc := usage.NewService(usage.NewRepository(db.DB), usage.Options{
		ExpiringWindow: cfg.Tenancy.ExpiringWindow,
		Metrics:        appMetrics,
	})

	userSvc := user.NewService(user.NewRepository(db.DB), usageSvc, user.Options{
		LockoutThreshold: cfg.Security.LockoutThreshold,
		LockoutDuration:  cfg.Security.LockoutDuration,
		SuperAdminEmail:  cfg.Security.SuperAdminEmail,
		Metrics:          appMetrics,
	})

	tenantSvc := tenant.NewService(tenant.NewRepository(db.DB), tenant.Options{
		DefaultPlan:     plan.Plan(cfg.Tenancy.DefaultPlan),
		DefaultCurrency: cfg.Tenancy.DefaultCurrency,
		DefaultTimezone: cfg.Tenancy.DefaultTimezone,
		Metrics:         appMetrics,
	})

	medicineSvc := medicine.NewService(medicine.NewRepository(db.DB), usageSvc, medicine.Options{
		Windows: medicine.ExpiryWindows{
			Warning: cfg.Tenancy.ExpiringWindow,
			Soon:    cfg.Tenancy.ExpiringSoonWindow,
		},
	})

	prescriptionSvc := prescription.NewService(
		prescription.NewRepository(db.DB),
		usageSvc,
		tenantSvc,
		prescription.Options{},
	)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(
		authRepo,
		jwtManager,
		userSvc,
		tenantSvc,
		auth.NewRedisBlacklist(redis.Client),
	)

	if err := userSvc.EnsureSuperAdmin(
		ctx,
		cfg.Security.SuperAdminEmail,
		cfg.Security.SuperAdminPassword,
	); err != nil {
		return err
	}

	if n, purgeErr := authRepo.DeleteExpired(ctx); purgeErr != nil {
		logger.Warn("expired session purge failed", "error", purgeErr)
	} else if n > 0 {
		logger.Info("expired sessions purged", "deleted", n)
	}

	tenantHandler := tenant.NewHandler(tenantSvc)
	userHandler := user.NewHandler(userSvc)
	usageHandler := usage.NewHandler(usageSvc)
	medicineHandler := medicine.NewHandler(medicineSvc)
	prescriptionHandler := prescription.NewHandler(prescriptionSvc)
	authHandler := auth.NewHandler(authSvc)

	healthHandler := health.NewHandler(
		health.Probe{Name: "database", Checker: db, Critical: true},
		health.Probe{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Repo:       admin.NewRepository(db.DB),
		Janitor:    authRepo,
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing(telemetry.Tracer))
	router.Use(middleware.Logger(logger))
	if appMetrics != nil {
		router.Use(appMetrics.Middleware)
	}
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())
	if appMetrics != nil {
		router.Handle(cfg.Metrics.Path, appMetrics.Handler())
	}

	authenticator := middleware.Authenticator(authSvc)
	planLimiter := middleware.PlanRateLimiter(redis.Client, middleware.DefaultPlanLimits)
	loginLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit:    middleware.PerMinute(loginRequestsPerMinute, loginBurst),
		KeyFunc:  middleware.KeyByIP,
		FailOpen: true,
	}).Handler

	adminOnly := middleware.RequireAdmin
	superAdminOnly := middleware.RequireSuperAdmin
	staffOnly := middleware.RequireRole(
		role.SuperAdmin, role.TenantAdmin, role.Admin, role.Pharmacist,
	)

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator, loginLimiter)
		tenantHandler.RegisterPublicRoutes(r)

		userHandler.RegisterRoutes(r, authenticator, adminOnly)

		r.Route("/tenant/{tenantRef}", func(r chi.Router) {
			r.Use(authenticator)
			r.Use(planLimiter)
			r.Use(tenantHandler.Resolver)

			tenantHandler.RegisterRoutes(r, adminOnly, superAdminOnly)
			usageHandler.RegisterRoutes(r)
			medicineHandler.RegisterRoutes(r, staffOnly)
			prescriptionHandler.RegisterRoutes(r, staffOnly)
		})

		adminHandler.RegisterRoutes(r, authenticator, superAdminOnly,
			tenantHandler.RegisterAdminRoutes,
		)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

// ensureSigningKey creates a key pair on first boot outside production.
func ensureSigningKey(cfg *config.Config) error {
	_, err := os.Stat(cfg.JWT.PrivateKeyPath)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if cfg.IsProduction() {
		return err
	}

	slog.Warn("signing key missing, generating a development key pair",
		"path", cfg.JWT.PrivateKeyPath,
	)
	return auth.GenerateKeyPair(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath)
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
