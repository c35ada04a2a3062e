package commands

import (
	"context"
	"fmt"

	"github.com/marshallshelly/superheroes/internal/config"
	"github.com/marshallshelly/superheroes/internal/models"
	"github.com/marshallshelly/superheroes/internal/store"
	"github.com/marshallshelly/superheroes/internal/store/memstore"
	"github.com/marshallshelly/superheroes/internal/store/pgstore"
	"github.com/marshallshelly/superheroes/pkg/migration"
	"github.com/marshallshelly/superheroes/pkg/registry"
	"github.com/marshallshelly/superheroes/pkg/runtime"
	"github.com/marshallshelly/superheroes/pkg/schema"
)

func connect(ctx context.Context) (*runtime.DB, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database url is required: set --db, %s or database.url", config.EnvDatabaseURL)
	}
	db, err := runtime.Connect(ctx, &runtime.Config{
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// openStore opens the configured store. close releases its resources.
func openStore(ctx context.Context) (s store.Store, close func(), err error) {
	if cfg.Store == config.StoreMemory {
		logger.Info("using in-memory store")
		return memstore.New(logger), func() {}, nil
	}

	db, err := connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	pg, err := pgstore.New(db, logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return pg, db.Close, nil
}

// tables returns the model tables in dependency order.
func tables() ([]*schema.TableMetadata, error) {
	reg := registry.NewRegistry()
	if err := models.RegisterAll(reg); err != nil {
		return nil, fmt.Errorf("failed to register models: %w", err)
	}
	return reg.All(), nil
}

func loadMigrations() ([]migration.Migration, error) {
	migrations, err := migration.NewGenerator(cfg.MigrationsDir).LoadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations from %s: %w", cfg.MigrationsDir, err)
	}
	return migrations, nil
}
