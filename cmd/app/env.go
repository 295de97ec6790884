package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/starford/raido/internal"
	"github.com/starford/raido/internal/docservice"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/registry"
	"github.com/starford/raido/internal/storage"
)

// cliEnv bundles the layers a local (non-server) command needs.
type cliEnv struct {
	cfg   *internal.Config
	store storage.Provider
	db    *index.DB
	reg   *registry.Store
	svc   *docservice.Service
}

// openEnv opens storage, registry, and catalog from the config and runs a
// sync so the catalog reflects the on-disk documents. Callers must Close.
func openEnv(cmd *cli.Command) (*cliEnv, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Store.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	reg, err := registry.Open(cfg.Registry.Path)
	if err != nil {
		return nil, fmt.Errorf("init registry: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	if err := index.Sync(db, store, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("sync index: %w", err)
	}

	return &cliEnv{
		cfg:   cfg,
		store: store,
		db:    db,
		reg:   reg,
		svc:   docservice.NewService(store, db, reg, time.Now),
	}, nil
}

func (e *cliEnv) Close() error {
	return e.db.Close()
}
