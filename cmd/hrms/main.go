package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/platinummonkey/hrms-lite/pkg/config"
	"github.com/platinummonkey/hrms-lite/pkg/database"
	"github.com/platinummonkey/hrms-lite/pkg/frontend"
	"github.com/platinummonkey/hrms-lite/pkg/observability"
	"github.com/platinummonkey/hrms-lite/pkg/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const startupPingTimeout = 5 * time.Second

func main() {
	envFile := flag.String("env-file", ".env", "Optional dotenv file loaded before reading the environment")
	flag.Parse()

	// Variables already set in the environment win over the file
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "hrms: failed to read %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hrms: configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("hrms exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.UsesInsecureSecretKey() && !cfg.Security.Debug {
		logger.Warn("SECRET_KEY is not set; sessions and CSRF tokens are signed with a publicly known key")
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)

	providers, err := observability.InitOTel(ctx, cfg.Observability.OTel, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	if providers != nil {
		shutdown.Register("otel", providers.Shutdown)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	shutdown.Register("database", func(context.Context) error { return db.Close() })

	// The pool connects lazily; an unreachable database degrades readiness
	// instead of preventing startup.
	if err := db.Ping(ctx, startupPingTimeout); err != nil {
		logger.WithError(err).Warn("database is not reachable yet")
	} else {
		logger.WithField("database", cfg.Database.String()).Info("database connected")
	}

	var redisClient *redis.Client
	if opts := cfg.Session.Redis; opts != nil {
		redisClient = redis.NewClient(opts)
		shutdown.Register("redis", func(context.Context) error { return redisClient.Close() })
		logger.WithField("addr", opts.Addr).Info("sessions stored in redis")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv, err := server.New(cfg, server.Deps{
		DB:       db,
		Redis:    redisClient,
		Logger:   logger,
		Registry: registry,
	})
	if err != nil {
		return err
	}

	sampler, err := observability.NewPoolSampler(observability.DefaultPoolSampleSchedule, srv.Metrics(), db, logger)
	if err != nil {
		return err
	}
	sampler.Start()
	shutdown.Register("pool sampler", func(context.Context) error {
		sampler.Stop()
		return nil
	})

	if !cfg.Security.Debug {
		watcher, err := frontend.NewWatcher(srv.Renderer(), logger)
		if err != nil {
			logger.WithError(err).Warn("template watcher disabled")
		} else {
			shutdown.Register("template watcher", func(context.Context) error { return watcher.Close() })
			go func() {
				defer observability.RecoverPanic(logger, "template watcher")
				watcher.Run(ctx)
			}()
		}
	}

	logger.WithFields(map[string]interface{}{
		"version": server.Version,
		"debug":   cfg.Security.Debug,
		"port":    cfg.Server.Port,
	}).Info("starting hrms")

	serveErr := srv.Run(ctx)

	if err := shutdown.Shutdown(context.Background()); err != nil {
		logger.WithError(err).Warn("shutdown incomplete")
	}
	return serveErr
}
