package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/vistoriaapp/core/internal/config"
	"github.com/vistoriaapp/core/internal/db"
	"github.com/vistoriaapp/core/internal/logging"
	"github.com/vistoriaapp/core/internal/reconcile"
	"github.com/vistoriaapp/core/internal/store"
	syncpkg "github.com/vistoriaapp/core/internal/sync"
)

// app wires the component graph in dependency order: store, sync
// client, reconciliation engine. The legacy namespace migration and a
// ghost sweep run on every startup before anything else touches the
// store.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *db.DB
	store  *store.Store
	remote *syncpkg.Client
	engine *reconcile.Engine
}

func newApp() (*app, error) {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, "vistoria")
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	database, err := db.Open(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	st := store.New(database, store.NamespaceFor(cfg.UserID), logger)
	if err := st.MigrateLegacyNamespace(); err != nil {
		logger.Warn("legacy namespace migration failed", zap.Error(err))
	}

	remote := syncpkg.NewClient(cfg.APIBaseURL, cfg.APIToken, logger)
	engine := reconcile.New(st, remote, logger)
	engine.SweepGhosts()

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     database,
		store:  st,
		remote: remote,
		engine: engine,
	}, nil
}

func (a *app) close() {
	a.engine.Wait()
	a.db.Close()
	_ = a.logger.Sync()
}
