package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fraudmesh/ruleshift/internal/application/handlers"
	"github.com/fraudmesh/ruleshift/internal/infrastructure/backups"
	"github.com/fraudmesh/ruleshift/internal/infrastructure/config"
	"github.com/fraudmesh/ruleshift/internal/infrastructure/relationaldb/postgres"
	"github.com/fraudmesh/ruleshift/internal/infrastructure/staging"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - stores and repositories are internal.
type Deps struct {
	Config         *config.Config
	Env            string
	FetchHandler   *handlers.FetchHandler
	ApplyHandler   *handlers.ApplyHandler
	RestoreHandler *handlers.RestoreHandler
}

// withDeps loads config, opens the environment's database session, and calls
// the provided function. The session is closed on every exit path.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	cfg, err := config.Load(globalConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if globalEnv == "" {
		return errors.New("environment is required (use --env flag)")
	}

	db, err := cfg.Environment(globalEnv)
	if err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	repo, err := postgres.NewRepository(ctx, db.DSN())
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", globalEnv, err)
	}
	defer func() {
		repo.Close()
		fmt.Println("Database connection closed.")
	}()

	snapshots := staging.NewStore(cfg.OutputDir)
	backupStore := backups.NewStore(cfg.BackupRoot)

	deps := &Deps{
		Config:         cfg,
		Env:            globalEnv,
		FetchHandler:   handlers.NewFetchHandler(repo, snapshots, log),
		ApplyHandler:   handlers.NewApplyHandler(repo, snapshots, backupStore, log),
		RestoreHandler: handlers.NewRestoreHandler(repo, backupStore, log),
	}

	return fn(deps)
}

// newLogger builds the logger used for per-record diagnostics. Summary output
// stays on plain stdout prints; the logger carries the skip and warning
// details.
func newLogger() (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return log.Sugar(), nil
}
