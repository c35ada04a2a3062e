package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marshallshelly/superheroes/cmd/superheroes/output"
	"github.com/marshallshelly/superheroes/pkg/migration"
)

func newGenerateCmd() *cobra.Command {
	var (
		name  string
		empty bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate migration files",
		Long: `Generate a timestamped up/down migration pair.

Without --empty the up migration creates the heroes, powers and hero_powers
tables with their foreign keys, and the down migration drops them.

Examples:
  superheroes generate --name create_superheroes
  superheroes generate --name backfill --empty`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(name, empty)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Migration name (required)")
	cmd.Flags().BoolVar(&empty, "empty", false, "Generate empty migration for manual editing")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func runGenerate(name string, empty bool) error {
	generator := migration.NewGenerator(cfg.MigrationsDir)

	if empty {
		file, err := generator.GenerateEmpty(name)
		if err != nil {
			return fmt.Errorf("failed to generate empty migration: %w", err)
		}
		output.Success("Created empty migration: %s", file.Version)
		output.Muted("  Up:   %s", file.UpPath)
		output.Muted("  Down: %s", file.DownPath)
		output.Info("Edit the SQL files manually to add your migration logic.")
		return nil
	}

	ts, err := tables()
	if err != nil {
		return err
	}
	file, err := generator.Generate(name, ts)
	if err != nil {
		return fmt.Errorf("failed to generate migration: %w", err)
	}
	output.Success("Created migration: %s (%d tables)", file.Version, len(ts))
	output.Muted("  Up:   %s", file.UpPath)
	output.Muted("  Down: %s", file.DownPath)
	return nil
}
