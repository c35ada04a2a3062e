// Package runtime provides the database connection and error taxonomy
// shared by the builder, the stores and the migration tooling.
package runtime

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when a unique constraint is violated.
	ErrDuplicateKey = errors.New("duplicate key value")

	// ErrForeignKeyViolation is returned when a foreign key constraint is violated.
	ErrForeignKeyViolation = errors.New("foreign key violation")

	// ErrNoConnection is returned when no database connection is available.
	ErrNoConnection = errors.New("no database connection")
)

// PostgreSQL SQLSTATE codes for integrity constraint violations.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
)

// ValidationError reports a field value rejected before it reached storage.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ConstraintError is a storage-level integrity violation.
// It unwraps to ErrForeignKeyViolation or ErrDuplicateKey.
type ConstraintError struct {
	Constraint string
	Detail     string
	Kind       error
}

// Error implements the error interface.
func (e *ConstraintError) Error() string {
	if e.Constraint == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%v on %s: %s", e.Kind, e.Constraint, e.Detail)
}

// Unwrap returns the error kind.
func (e *ConstraintError) Unwrap() error {
	return e.Kind
}

// QueryError represents a query execution error.
type QueryError struct {
	Query string
	Err   error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %v\nQuery: %s", e.Err, e.Query)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// MigrationError represents a migration error.
type MigrationError struct {
	Version string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration error (version %s): %s: %v", e.Version, e.Message, e.Err)
}

// Unwrap returns the underlying error.
func (e *MigrationError) Unwrap() error {
	return e.Err
}

// TranslateError maps driver errors onto the package's error taxonomy.
// Errors it does not recognise are returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeForeignKeyViolation:
		return &ConstraintError{Constraint: pgErr.ConstraintName, Detail: pgErr.Detail, Kind: ErrForeignKeyViolation}
	case codeUniqueViolation:
		return &ConstraintError{Constraint: pgErr.ConstraintName, Detail: pgErr.Detail, Kind: ErrDuplicateKey}
	}
	return err
}
