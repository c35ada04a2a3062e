package migration

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/marshallshelly/superheroes/pkg/runtime"
)

// defaultLockID is the advisory lock key held while migrating.
const defaultLockID int64 = 5_318_008_001

// Executor applies and tracks migrations.
type Executor struct {
	conn   *pgxpool.Pool
	lockID int64
	logger *slog.Logger
}

// NewExecutor creates a new migration executor.
func NewExecutor(conn *pgxpool.Pool, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{conn: conn, lockID: defaultLockID, logger: logger}
}

// WithLockID sets a custom advisory lock ID.
func (e *Executor) WithLockID(lockID int64) *Executor {
	e.lockID = lockID
	return e
}

// Initialize creates the schema_migrations table if it doesn't exist.
func (e *Executor) Initialize(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(14) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			applied_at TIMESTAMPTZ,
			error TEXT
		)`
	if _, err := e.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	return nil
}

// withLock runs fn while holding the advisory lock. Session-level advisory
// locks belong to one connection, so lock and unlock share a dedicated one.
func (e *Executor) withLock(ctx context.Context, fn func() error) error {
	conn, err := e.conn.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", e.lockID); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer func() {
		var released bool
		if err := conn.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", e.lockID).Scan(&released); err != nil || !released {
			e.logger.WarnContext(ctx, "failed to release migration lock", "error", err)
		}
	}()
	return fn()
}

// GetAllMigrations returns every row of schema_migrations in version order.
func (e *Executor) GetAllMigrations(ctx context.Context) ([]MigrationRecord, error) {
	rows, err := e.conn.Query(ctx, `
		SELECT version, name, status, applied_at, error
		FROM schema_migrations
		ORDER BY version ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var records []MigrationRecord
	for rows.Next() {
		var record MigrationRecord
		if err := rows.Scan(&record.Version, &record.Name, &record.Status, &record.AppliedAt, &record.Error); err != nil {
			return nil, fmt.Errorf("failed to scan migration record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// GetAppliedMigrations returns applied migrations in version order.
func (e *Executor) GetAppliedMigrations(ctx context.Context) ([]MigrationRecord, error) {
	all, err := e.GetAllMigrations(ctx)
	if err != nil {
		return nil, err
	}
	applied := all[:0]
	for _, r := range all {
		if r.Status == StatusApplied {
			applied = append(applied, r)
		}
	}
	return applied, nil
}

// Apply executes a migration's up SQL in a transaction. A failure is
// recorded in schema_migrations after the transaction rolls back.
func (e *Executor) Apply(ctx context.Context, m Migration) error {
	err := e.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version, name, status) VALUES ($1, $2, 'pending')
			 ON CONFLICT (version) DO UPDATE SET status = 'pending', error = NULL`,
			m.Version, m.Name,
		); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		if err := execStatements(ctx, tx, m.UpSQL); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			"UPDATE schema_migrations SET status = 'applied', applied_at = $1, error = NULL WHERE version = $2",
			time.Now().UTC(), m.Version,
		)
		return err
	})
	if err != nil {
		e.recordFailure(ctx, m, err)
		return &runtime.MigrationError{Version: m.Version, Message: "apply failed", Err: err}
	}
	e.logger.InfoContext(ctx, "migration applied", "version", m.Version, "name", m.Name)
	return nil
}

// Rollback executes a migration's down SQL and removes its record.
func (e *Executor) Rollback(ctx context.Context, m Migration) error {
	err := e.inTx(ctx, func(tx pgx.Tx) error {
		if err := execStatements(ctx, tx, m.DownSQL); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, "DELETE FROM schema_migrations WHERE version = $1", m.Version)
		return err
	})
	if err != nil {
		return &runtime.MigrationError{Version: m.Version, Message: "rollback failed", Err: err}
	}
	e.logger.InfoContext(ctx, "migration rolled back", "version", m.Version, "name", m.Name)
	return nil
}

// ApplyAll applies pending migrations in order under the advisory lock and
// returns how many were applied.
func (e *Executor) ApplyAll(ctx context.Context, migrations []Migration) (int, error) {
	count := 0
	err := e.withLock(ctx, func() error {
		applied, err := e.GetAppliedMigrations(ctx)
		if err != nil {
			return err
		}
		done := make(map[string]bool, len(applied))
		for _, r := range applied {
			done[r.Version] = true
		}
		for _, m := range migrations {
			if done[m.Version] {
				continue
			}
			if err := e.Apply(ctx, m); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}

// RollbackLast rolls back the most recently applied migration and returns
// it, or nil when nothing is applied.
func (e *Executor) RollbackLast(ctx context.Context, migrations []Migration) (*Migration, error) {
	var rolledBack *Migration
	err := e.withLock(ctx, func() error {
		applied, err := e.GetAppliedMigrations(ctx)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			return nil
		}
		last := applied[len(applied)-1]
		for i := range migrations {
			if migrations[i].Version == last.Version {
				if err := e.Rollback(ctx, migrations[i]); err != nil {
					return err
				}
				rolledBack = &migrations[i]
				return nil
			}
		}
		return fmt.Errorf("migration file not found for version %s", last.Version)
	})
	return rolledBack, err
}

// GetStatus merges the tracking table with the migrations on disk.
func (e *Executor) GetStatus(ctx context.Context, migrations []Migration) ([]MigrationRecord, error) {
	all, err := e.GetAllMigrations(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]MigrationRecord, len(all))
	for _, r := range all {
		known[r.Version] = r
	}

	records := make([]MigrationRecord, 0, len(migrations))
	for _, m := range migrations {
		if r, ok := known[m.Version]; ok {
			records = append(records, r)
			continue
		}
		records = append(records, MigrationRecord{Version: m.Version, Name: m.Name, Status: StatusPending})
	}
	return records, nil
}

func (e *Executor) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := e.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			e.logger.WarnContext(ctx, "rollback failed", "error", rbErr)
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (e *Executor) recordFailure(ctx context.Context, m Migration, cause error) {
	_, err := e.conn.Exec(ctx,
		`INSERT INTO schema_migrations (version, name, status, error) VALUES ($1, $2, 'failed', $3)
		 ON CONFLICT (version) DO UPDATE SET status = 'failed', error = EXCLUDED.error`,
		m.Version, m.Name, cause.Error(),
	)
	if err != nil {
		e.logger.WarnContext(ctx, "failed to record migration failure", "version", m.Version, "error", err)
	}
}

func execStatements(ctx context.Context, tx pgx.Tx, sql string) error {
	for i, stmt := range splitSQL(sql) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d failed: %w", i+1, err)
		}
	}
	return nil
}

// splitSQL splits a script on semicolons after dropping comment lines.
// Statements containing literal semicolons are not supported.
func splitSQL(sql string) []string {
	var kept []string
	for line := range strings.SplitSeq(sql, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}

	var result []string
	for stmt := range strings.SplitSeq(strings.Join(kept, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			result = append(result, stmt)
		}
	}
	return result
}
