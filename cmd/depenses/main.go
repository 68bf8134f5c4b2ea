package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"depenses/internal/cli"
	apphttp "depenses/internal/http"
	"depenses/internal/log"
	"depenses/internal/metrics"
	"depenses/internal/persistence"
	"depenses/internal/services"
	"depenses/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg)

	if cfg.MetricsEnabled {
		metrics.Init()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := cli.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open storage backend", log.FieldError, err, "backend", cfg.DataBackend)
		return err
	}
	defer func() {
		if err := env.Close(); err != nil {
			logger.Error("Backend close failed", log.FieldError, err)
		}
	}()
	if err := env.LockWriter(); err != nil {
		logger.Error("Another process is writing the ledger store", log.FieldError, err)
		return err
	}

	origin, err := env.Ledger.Load(ctx)
	switch {
	case errors.Is(err, persistence.ErrCorruptSnapshot):
		logger.Warn("Stored ledger is unreadable, serving a zero ledger until the next change",
			log.FieldStoreKey, cfg.StoreKey)
	case err != nil:
		return err
	default:
		logger.Info("Ledger loaded", "origin", origin, log.FieldStoreKey, cfg.StoreKey)
	}

	srv, err := apphttp.NewServer(cfg.Addr(), env.Ledger, apphttp.Options{
		Logger:             logger,
		Pinger:             env.Backend.Backend,
		CacheVersion:       cfg.CacheVersion,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		MetricsEnabled:     cfg.MetricsEnabled,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting depenses server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return worker.NewAutosaver(env.Ledger, cfg.AutosaveInterval, services.TriggerAutosave, logger).Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	runErr := g.Wait()

	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := env.Ledger.Save(saveCtx, services.TriggerShutdown); err != nil {
		logger.Error("Final save failed", log.FieldError, err)
	}

	if runErr != nil {
		return runErr
	}
	logger.Info("Server stopped gracefully")
	return nil
}
