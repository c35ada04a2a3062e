package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/marshallshelly/superheroes/internal/api"
	"github.com/marshallshelly/superheroes/internal/config"
	"github.com/marshallshelly/superheroes/pkg/migration"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var (
		addr      string
		storeKind string
		migrate   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the heroes, powers and hero_powers routes, /healthz and /metrics.

Examples:
  superheroes serve --db postgres://localhost/superheroes --migrate
  superheroes serve --store memory --addr :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("store") {
				cfg.Store = storeKind
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return runServe(cmd.Context(), migrate)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :5555)")
	cmd.Flags().StringVar(&storeKind, "store", "", "Store backend: postgres or memory")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving (postgres only)")
	return cmd
}

func runServe(ctx context.Context, migrate bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if migrate && cfg.Store == config.StorePostgres {
		if err := migrateUp(ctx); err != nil {
			return err
		}
	}

	s, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if !logger.Enabled(ctx, slog.LevelDebug) {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewServer(s, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "store", cfg.Store)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// migrateUp applies every pending migration.
func migrateUp(ctx context.Context) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}
	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	executor := migration.NewExecutor(db.Pool(), logger)
	if err := executor.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	n, err := executor.ApplyAll(ctx, migrations)
	if err != nil {
		return err
	}
	logger.Info("migrations applied", "count", n)
	return nil
}
