package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/marshallshelly/superheroes/cmd/superheroes/output"
	"github.com/marshallshelly/superheroes/pkg/migration"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Run database migrations to keep the database schema in sync with the models.

Subcommands:
  up      - Apply pending migrations
  down    - Rollback migrations
  status  - Show migration status`,
	}

	var dryRun bool
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Long: `Apply every pending migration in version order.

Examples:
  superheroes migrate up               # Apply all pending migrations
  superheroes migrate up --dry-run     # Preview migrations without applying`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrateUp(cmd.Context(), dryRun)
		},
	}
	up.Flags().BoolVar(&dryRun, "dry-run", false, "Preview migrations without applying")

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		Long: `Rollback the most recently applied migrations.

Examples:
  superheroes migrate down             # Rollback last migration
  superheroes migrate down --steps 2   # Rollback the last two`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrateDown(cmd.Context(), steps)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to rollback")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrateStatus(cmd)
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}

// withExecutor connects, initializes the tracking table and runs fn.
func withExecutor(ctx context.Context, fn func(*migration.Executor, []migration.Migration) error) error {
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
	return fn(executor, migrations)
}

func runMigrateUp(ctx context.Context, dryRun bool) error {
	return withExecutor(ctx, func(executor *migration.Executor, migrations []migration.Migration) error {
		if len(migrations) == 0 {
			output.Warning("No migrations found in %s", cfg.MigrationsDir)
			return nil
		}

		if dryRun {
			status, err := executor.GetStatus(ctx, migrations)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			output.Section("DRY RUN - Preview")
			pending := 0
			for _, r := range status {
				if r.Status != migration.StatusApplied {
					output.Muted("  %s %s - %s", output.StatusIcon("pending"), r.Version, r.Name)
					pending++
				}
			}
			if pending == 0 {
				output.Info("No pending migrations")
			}
			return nil
		}

		output.Section("Applying Migrations")
		n, err := executor.ApplyAll(ctx, migrations)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if n == 0 {
			output.Info("No pending migrations")
			return nil
		}
		output.Success("Successfully applied %d migration(s)", n)
		return nil
	})
}

func runMigrateDown(ctx context.Context, steps int) error {
	if steps < 1 {
		return fmt.Errorf("--steps must be at least 1")
	}
	return withExecutor(ctx, func(executor *migration.Executor, migrations []migration.Migration) error {
		output.Section("Rolling Back Migrations")
		done := 0
		for range steps {
			m, err := executor.RollbackLast(ctx, migrations)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			if m == nil {
				break
			}
			output.Success("Rolled back %s - %s", m.Version, m.Name)
			done++
		}
		if done == 0 {
			output.Info("No migrations to rollback")
		}
		return nil
	})
}

func runMigrateStatus(cmd *cobra.Command) error {
	return withExecutor(cmd.Context(), func(executor *migration.Executor, migrations []migration.Migration) error {
		status, err := executor.GetStatus(cmd.Context(), migrations)
		if err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(status)
		}
		if len(status) == 0 {
			output.Warning("No migrations found in %s", cfg.MigrationsDir)
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "VERSION\tNAME\tSTATUS\tAPPLIED AT")
		counts := map[migration.MigrationStatus]int{}
		for _, r := range status {
			appliedAt := "N/A"
			if r.AppliedAt != nil {
				appliedAt = r.AppliedAt.Format("2006-01-02 15:04:05")
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\n", r.Version, r.Name, output.StatusIcon(string(r.Status)), r.Status, appliedAt)
			counts[r.Status]++
		}
		_ = w.Flush()

		summary := fmt.Sprintf("\nSummary: %d applied, %d pending", counts[migration.StatusApplied], counts[migration.StatusPending])
		if n := counts[migration.StatusFailed]; n > 0 {
			summary += fmt.Sprintf(", %d failed", n)
		}
		_, _ = fmt.Fprintln(out, summary)
		return nil
	})
}
