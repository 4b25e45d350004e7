package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/aicc6/weather-flick-admin-gateway/internal/access"
	"github.com/aicc6/weather-flick-admin-gateway/internal/api"
	"github.com/aicc6/weather-flick-admin-gateway/internal/app"
	"github.com/aicc6/weather-flick-admin-gateway/internal/audit"
	"github.com/aicc6/weather-flick-admin-gateway/internal/auth"
	"github.com/aicc6/weather-flick-admin-gateway/internal/console"
	"github.com/aicc6/weather-flick-admin-gateway/internal/credential"
	"github.com/aicc6/weather-flick-admin-gateway/internal/observability"
	"github.com/aicc6/weather-flick-admin-gateway/internal/platform/cache"
	"github.com/aicc6/weather-flick-admin-gateway/internal/platform/db"
	"github.com/aicc6/weather-flick-admin-gateway/internal/route"
	"github.com/aicc6/weather-flick-admin-gateway/internal/session"
	"github.com/aicc6/weather-flick-admin-gateway/internal/view"
	"github.com/aicc6/weather-flick-admin-gateway/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var trail audit.Recorder = audit.NewMemoryRecorder()
	if cfg.PGDSN != "" {
		pool, err := db.New(ctx, cfg.PGDSN, 4)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		trail = audit.NewPostgresRecorder(pool)
	}

	metrics := observability.NewMetrics()
	creds := credential.NewStore(redisClient, cfg.CredentialSecret)
	apiClient := api.NewClient(cfg.APIBaseURL, cfg.LoginPath, creds, logger, metrics)
	sessions := session.NewStore(apiClient, creds, logger, metrics)

	// Restore before serving: a persisted credential from a previous run
	// turns back into an authenticated session, anything else starts
	// anonymous. No screen exists yet, so navigation requests are dropped.
	state := sessions.Restore(ctx)
	logger.Info("session restored", slog.String("state", state.String()))

	evaluator := access.NewEvaluator(sessions)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}
	csrf, err := auth.NewCSRF()
	if err != nil {
		logger.Error("init csrf", slog.Any("error", err))
		os.Exit(1)
	}

	authHandler := auth.NewHandler(logger, sessions, templates, csrf, trail)
	consoleHandler := console.NewHandler(logger, sessions, evaluator, apiClient, templates, csrf.Token())

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobsClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(asynq.NewInspector(redisOpts), jobsClient, logger)

	routes := route.Middleware{
		Evaluator:        evaluator,
		Logger:           logger,
		LoginPath:        cfg.LoginPath,
		UnauthorizedPath: cfg.UnauthorizedPath,
		Metrics:          metrics,
	}

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		AuthHandler:    authHandler,
		ConsoleHandler: consoleHandler,
		JobsHandler:    jobsHandler,
		Routes:         routes,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
