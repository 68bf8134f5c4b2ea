// Package cli provides common initialization shared by cmd/depenses and
// cmd/depensesctl.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"depenses/internal/backend"
	"depenses/internal/config"
	"depenses/internal/lock"
	"depenses/internal/log"
	"depenses/internal/persistence"
	"depenses/internal/services"
)

// SetupLogger builds the process logger from config and installs it as the
// slog default. An unknown level falls back to info.
func SetupLogger(cfg *config.Config) *log.Logger {
	lc := log.DefaultConfig()
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		lc.Level = level
	}
	lc.Format = cfg.LogFormat
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. A malformed file is
// reported on stderr and otherwise ignored.
func LoadEnvFile() {
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "ignoring .env: %v\n", err)
	}
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Env bundles the opened store and the services built on it.
type Env struct {
	Config  *config.Config
	Logger  *log.Logger
	Backend *backend.BackendResult
	Adapter *persistence.Adapter
	Ledger  *services.LedgerService

	// LockPath is the writer lock of the store; empty disables locking.
	LockPath string
	writer   *lock.Lock
}

// Open creates the configured backend and a ledger service on top of it.
// The ledger is not loaded; callers decide how to treat a corrupt document.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Env, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", bcfg.Type, err)
	}

	adapter := persistence.NewAdapter(res.Backend, persistence.WithKey(cfg.StoreKey))
	return &Env{
		Config:   cfg,
		Logger:   logger,
		Backend:  res,
		Adapter:  adapter,
		Ledger:   services.NewLedgerService(adapter, logger.WithComponent(log.ComponentLedger)),
		LockPath: cfg.LockPath(),
	}, nil
}

// LockWriter makes this process the only writer of the store until Close.
// It fails with lock.ErrLocked while another process, typically a running
// server, holds it.
func (e *Env) LockWriter() error {
	if e.LockPath == "" || e.writer != nil {
		return nil
	}
	l, err := lock.Acquire(e.LockPath)
	if err != nil {
		return err
	}
	e.writer = l
	return nil
}

// Close releases the writer lock and the backend.
func (e *Env) Close() error {
	if e == nil {
		return nil
	}
	return errors.Join(e.writer.Release(), e.Backend.Close())
}
