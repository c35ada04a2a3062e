// Package migration generates, stores and applies schema migrations for the
// registered models.
package migration

import (
	"time"
)

// Migration is one versioned schema change.
type Migration struct {
	Version   string // YYYYMMDDHHmmss
	Name      string // e.g. "create_heroes"
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
}

// MigrationFile is a migration pair on disk.
type MigrationFile struct {
	Version  string
	Name     string
	UpPath   string
	DownPath string
}

// MigrationStatus represents the status of a migration.
type MigrationStatus string

const (
	// StatusPending means the migration has not been applied.
	StatusPending MigrationStatus = "pending"
	// StatusApplied means the migration has been applied.
	StatusApplied MigrationStatus = "applied"
	// StatusFailed means the migration failed to apply.
	StatusFailed MigrationStatus = "failed"
)

// MigrationRecord is a row of the schema_migrations table.
type MigrationRecord struct {
	Version   string
	Name      string
	Status    MigrationStatus
	AppliedAt *time.Time
	Error     *string
}

// GenerateVersion generates a timestamp-based version string.
func GenerateVersion() string {
	return time.Now().UTC().Format("20060102150405")
}

// GenerateFileName returns {version}_{name}.{up|down}.sql.
func GenerateFileName(version, name, direction string) string {
	return version + "_" + name + "." + direction + ".sql"
}
