package main

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// store is the opened ticket backend and its teardown.
type store struct {
	Name    string
	Tickets repository.TicketRepository
	close   func()
}

func (s *store) Close() {
	if s.close != nil {
		s.close()
	}
}

// openStore connects the configured driver and applies its migrations.
// Postgres without a DSN falls back to the in-memory store.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store, error) {
	driver := cfg.Store.Driver
	if driver == config.StoreDriverPostgres && cfg.Postgres.DSN == "" {
		logger.Warn("POSTGRES_DSN not provided; using in-memory ticket store")
		driver = config.StoreDriverMemory
	}

	migrations := filepath.Join(cfg.Store.MigrationsDir, driver)

	switch driver {
	case config.StoreDriverPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Store.RunMigrations {
			if err := persistence.RunMigrations(ctx, migrations, pg.Exec, logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		return &store{Name: driver, Tickets: repository.NewPostgresTicketRepository(pg.PoolHandle()), close: pg.Close}, nil
	case config.StoreDriverSQLite:
		db, err := persistence.NewSQLite(ctx, cfg.SQLite, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Store.RunMigrations {
			if err := persistence.RunMigrations(ctx, migrations, db.Exec, logger); err != nil {
				db.Close()
				return nil, err
			}
		}
		return &store{Name: driver, Tickets: repository.NewSQLiteTicketRepository(db.DB), close: db.Close}, nil
	default:
		return &store{Name: config.StoreDriverMemory, Tickets: repository.NewMemoryTicketRepository()}, nil
	}
}
