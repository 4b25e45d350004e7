package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/aicc6/weather-flick-admin-gateway/internal/api"
	"github.com/aicc6/weather-flick-admin-gateway/internal/app"
	"github.com/aicc6/weather-flick-admin-gateway/internal/credential"
	jobmetrics "github.com/aicc6/weather-flick-admin-gateway/internal/jobs"
	"github.com/aicc6/weather-flick-admin-gateway/internal/platform/cache"
	"github.com/aicc6/weather-flick-admin-gateway/internal/session"
	"github.com/aicc6/weather-flick-admin-gateway/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	// The worker holds its own view of the shared session: same persisted
	// credential, no navigator. An eviction here simply clears the
	// credential; the next console request lands on the login page.
	creds := credential.NewStore(redisClient, cfg.CredentialSecret)
	apiClient := api.NewClient(cfg.APIBaseURL, cfg.LoginPath, creds, logger, nil)
	sessions := session.NewStore(apiClient, creds, logger, nil)
	sessions.Restore(ctx)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Sessions:  sessions,
		Metrics:   jobmetrics.NewMetrics(nil),
		Cron: []jobs.CronRegistration{
			{
				Spec:    "@every " + cfg.RevalidateInterval.String(),
				Task:    jobs.NewSessionRevalidateTask(),
				Options: []asynq.Option{asynq.MaxRetry(1)},
			},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
