// Package main runs the expedition daemon: one dungeon expedition per
// configured interval, persisted to PostgreSQL and streamed to Redis.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/guildmanager/internal/config"
	"github.com/cory-johannsen/guildmanager/internal/observability"
	"github.com/cory-johannsen/guildmanager/internal/scheduler"
	"github.com/cory-johannsen/guildmanager/internal/server"
	"github.com/cory-johannsen/guildmanager/internal/storage/postgres"
	"github.com/cory-johannsen/guildmanager/internal/storage/redis"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	envFile := flag.String("env", ".env", "optional dotenv file loaded before the configuration")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("no env file loaded from %s: %v", *envFile, err)
	}

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, cfg.Telemetry.ServiceName)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Telemetry)
	if err != nil {
		logger.Fatal("initializing tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("flushing traces", zap.Error(err))
		}
	}()

	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	var feed scheduler.Feed
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal("connecting to redis", zap.Error(err))
		}
		defer func() { _ = client.Close() }()
		feed = redis.NewFeedPublisher(client, cfg.Redis, logger)
		logger.Info("live feed enabled",
			zap.String("addr", cfg.Redis.Addr),
			zap.String("stream", cfg.Redis.StreamKey),
		)
	}

	svc := scheduler.New(
		cfg.Expedition,
		postgres.NewGuildRepository(pool.DB()),
		postgres.NewExpeditionRepository(pool.DB()),
		feed,
		logger,
	)
	svc.Preflight = func(ctx context.Context) error {
		return pool.Health(ctx, 5*time.Second)
	}

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("scheduler", svc)

	logger.Info("expedition daemon ready", zap.Duration("startup", time.Since(start)))
	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("daemon stopped with error", zap.Error(err))
	}
}
