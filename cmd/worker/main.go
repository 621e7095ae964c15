package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/hibiken/asynq"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-boka/internal/common"
	"github.com/noah-isme/backend-boka/internal/config"
	"github.com/noah-isme/backend-boka/internal/notify"
	"github.com/noah-isme/backend-boka/internal/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	var sender common.EmailSender = common.NopEmailSender{}
	if cfg.NotifyEmailEnabled {
		// Delivery still goes through the in-memory sender until an SMTP
		// integration lands; the job pipeline and templates are exercised
		// end to end either way.
		sender = &common.InMemoryEmail{}
	}

	worker := notify.NewWorker(notify.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{
			Addr:     redisOpts.Addr,
			Username: redisOpts.Username,
			Password: redisOpts.Password,
			DB:       redisOpts.DB,
		},
		Handler: notify.TaskHandler{
			Sender: sender,
			Logger: logger,
		},
		Logger:      logger,
		Concurrency: envInt("WORKER_CONCURRENCY", 5),
	})

	logger.Info().Str("from_address", cfg.NotifyFromAddress).Msg("worker starting")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("worker stopped with error")
	} else {
		logger.Info().Msg("worker shutdown complete")
	}
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}
