// AngelaMos | 2026
// serve.go

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/carterperez-dev/affiliate-backend/internal/accrual"
	"github.com/carterperez-dev/affiliate-backend/internal/admin"
	"github.com/carterperez-dev/affiliate-backend/internal/affiliate"
	"github.com/carterperez-dev/affiliate-backend/internal/auth"
	"github.com/carterperez-dev/affiliate-backend/internal/config"
	"github.com/carterperez-dev/affiliate-backend/internal/core"
	"github.com/carterperez-dev/affiliate-backend/internal/dashboard"
	"github.com/carterperez-dev/affiliate-backend/internal/health"
	"github.com/carterperez-dev/affiliate-backend/internal/ledger"
	"github.com/carterperez-dev/affiliate-backend/internal/metrics"
	"github.com/carterperez-dev/affiliate-backend/internal/middleware"
	"github.com/carterperez-dev/affiliate-backend/internal/notify"
	"github.com/carterperez-dev/affiliate-backend/internal/server"
)

const (
	drainDelay = 5 * time.Second
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), config.Get(), slog.Default())
		},
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func runServe(parent context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		_ = db.Close() //nolint:errcheck // startup failure cleanup
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.NewDefault()
	}

	sender, kafkaSender := newSender(cfg.Notify, logger)
	dispatcher := notify.NewDispatcher(sender, notify.DispatcherConfig{
		QueueSize:   cfg.Notify.QueueSize,
		Workers:     cfg.Notify.Workers,
		SendTimeout: cfg.Notify.SendTimeout,
		Logger:      logger,
		Metrics:     m,
	})
	dispatcher.Start()
	logger.Info("notification dispatcher started",
		"driver", cfg.Notify.Driver,
		"workers", cfg.Notify.Workers,
	)

	affiliateRepo := affiliate.NewRepository(db.DB)
	affiliateSvc := affiliate.NewService(affiliateRepo, nil, logger)
	affiliateHandler := affiliate.NewHandler(affiliateSvc)

	sessions := auth.NewSessionStore(auth.NewRepository(db.DB), auth.StoreConfig{
		TTL:          cfg.Session.TTL,
		PurgeOnIssue: cfg.Session.PurgeOnIssue,
		Logger:       logger,
		Metrics:      m,
	})
	authSvc := auth.NewService(sessions, affiliateSvc, auth.ServiceConfig{
		AdminEmail: cfg.Notify.AdminEmail,
		Notifier:   dispatcher,
		Logger:     logger,
		Metrics:    m,
	})
	authHandler := auth.NewHandler(authSvc)

	engine := accrual.NewEngine(accrual.NewSQLUnitOfWork(db.DB), accrual.Config{
		Notifier: dispatcher,
		Logger:   logger,
		Metrics:  m,
	})
	accrualHandler := accrual.NewHandler(engine)

	aggregator := dashboard.NewAggregator(
		affiliateRepo,
		ledger.NewRepository(db.DB),
		core.SystemClock{},
	)
	dashboardHandler := dashboard.NewHandler(aggregator)

	deps := []health.Dependency{
		{Name: "database", Checker: db},
		{Name: "redis", Checker: redis},
	}
	if kafkaSender != nil {
		deps = append(deps, health.Dependency{Name: "kafka", Checker: kafkaSender})
	}
	healthHandler := health.NewHandler(cfg.App.Version, deps...)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:      db.Stats,
		RedisStats:   redis.PoolStats,
		DBPing:       db.Ping,
		RedisPing:    redis.Ping,
		NotifyQueued: dispatcher.Pending,
		Sessions:     sessions,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit:      middleware.LimitFromConfig(cfg.RateLimit),
			FailOpen:   true,
			BypassFunc: isProbe(cfg.Metrics.Path),
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)
	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, m.Handler())
	}

	authenticator := middleware.Authenticator(authSvc)
	loginLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit:    middleware.LimitFromConfig(cfg.LoginRateLimit),
		KeyFunc:  middleware.KeyByIPAndEndpoint,
		FailOpen: true,
	}).Handler
	clickLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit:    middleware.LimitFromConfig(cfg.RateLimit),
		KeyFunc:  middleware.KeyByIPAndEndpoint,
		FailOpen: true,
	}).Handler
	tierLimiter := middleware.TieredRateLimiter(
		redis.Client,
		middleware.TierLimitsFromConfig(cfg.TierRateLimits),
	)
	ingestOnly := middleware.RequireAPIKey(cfg.APIKeys.Ingest)
	adminOnly := middleware.RequireAPIKey(cfg.APIKeys.Admin)

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator, loginLimiter)
		dashboardHandler.RegisterRoutes(r, authenticator, tierLimiter)
		accrualHandler.RegisterRoutes(r, clickLimiter, ingestOnly)

		affiliateHandler.RegisterAdminRoutes(r, adminOnly)
		accrualHandler.RegisterAdminRoutes(r, adminOnly)
		adminHandler.RegisterRoutes(r, adminOnly)
	})

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		auth.NewSweeper(sessions, cfg.Session.SweepInterval, logger).Run(sweepCtx)
	}()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	var runErr error
	select {
	case runErr = <-errChan:
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if runErr == nil {
		if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}

	cancelSweep()
	<-sweepDone

	if err := dispatcher.Stop(shutdownCtx); err != nil {
		logger.Error("notification dispatcher stop error", "error", err)
	}

	if kafkaSender != nil {
		if err := kafkaSender.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return runErr
}

func openDatabase(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (*core.Database, error) {
	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		version, err := core.MigrateUp(db.DB)
		if err != nil {
			_ = db.Close() //nolint:errcheck // startup failure cleanup
			return nil, err
		}
		logger.Info("database migrated", "version", version)
	}

	return db, nil
}

func newSender(
	cfg config.NotifyConfig,
	logger *slog.Logger,
) (notify.Sender, *notify.KafkaSender) {
	if cfg.Driver == "kafka" {
		s := notify.NewKafkaSender(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		return s, s
	}
	return notify.NewLogSender(logger), nil
}

func isProbe(metricsPath string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		switch r.URL.Path {
		case "/healthz", "/livez", "/readyz":
			return true
		}
		return metricsPath != "" && strings.HasPrefix(r.URL.Path, metricsPath)
	}
}
