// Package commands implements the superheroes command line.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/marshallshelly/superheroes/cmd/superheroes/output"
	"github.com/marshallshelly/superheroes/internal/config"
	"github.com/marshallshelly/superheroes/internal/logging"
)

var (
	// Global flags
	configPath    string
	dbURL         string
	migrationsDir string
	logLevel      string
	jsonOutput    bool

	// Set by PersistentPreRunE.
	cfg    *config.Config
	logger *slog.Logger
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "superheroes",
		Short: "Heroes, powers and the strengths that join them",
		Long: `superheroes serves a catalogue of heroes and their powers over HTTP,
backed by PostgreSQL or an in-memory store.

Every power description and hero power strength is validated before it is
written. Deleting a hero or a power deletes its hero powers.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default $SUPERHEROES_CONFIG or ./superheroes.yaml)")
	root.PersistentFlags().StringVar(&dbURL, "db", "", "Database connection URL")
	root.PersistentFlags().StringVar(&migrationsDir, "migrations-dir", "", "Directory for migration files")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newGenerateCmd(),
		newSchemaCmd(),
		newBrowseCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		output.Error("%v", err)
		os.Exit(1)
	}
}

// setup loads the configuration, lets explicit flags override it, and
// builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	output.Writer = cmd.OutOrStdout()

	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		loaded.Database.URL = dbURL
	}
	if flags.Changed("migrations-dir") {
		loaded.MigrationsDir = migrationsDir
	}
	if flags.Changed("log-level") {
		loaded.Log.Level = logLevel
	}

	l, err := logging.New(cmd.ErrOrStderr(), loaded.Log.Level, loaded.Log.Format)
	if err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}
	slog.SetDefault(l)

	cfg, logger = loaded, l
	return nil
}
