// Package builder provides a type-safe query builder for PostgreSQL.
package builder

import (
	"context"

	"github.com/marshallshelly/superheroes/pkg/schema"
)

// Query represents a generic database query.
type Query interface {
	// ToSQL generates the SQL query and parameter values.
	ToSQL() (sql string, args []any, err error)
}

// Executable represents a query that can be executed.
type Executable interface {
	Query
	// Exec executes the query and returns the number of affected rows.
	Exec(ctx context.Context) (int64, error)
}

// SelectQuery represents a SELECT query with type safety.
type SelectQuery[T any] struct {
	db       *DB
	table    *schema.TableMetadata
	err      error
	columns  []string
	distinct bool
	joins    []Join
	where    []Condition
	orderBy  []OrderBy
	limit    *int
}

// InsertQuery represents an INSERT query.
type InsertQuery[T any] struct {
	db        *DB
	table     *schema.TableMetadata
	err       error
	values    []T
	returning []string
}

// UpdateQuery represents an UPDATE query.
type UpdateQuery[T any] struct {
	db        *DB
	table     *schema.TableMetadata
	err       error
	sets      []assignment
	where     []Condition
	returning []string
}

// DeleteQuery represents a DELETE query.
type DeleteQuery[T any] struct {
	db        *DB
	table     *schema.TableMetadata
	err       error
	where     []Condition
	returning []string
}

// assignment is one SET column = value pair; order is kept for stable SQL.
type assignment struct {
	column string
	value  any
}

// Condition represents a WHERE condition.
type Condition struct {
	Column   string
	Operator Operator
	Value    any
	Logic    LogicOperator
}

// Join represents a JOIN clause.
type Join struct {
	Type      JoinType
	Table     string
	Condition string
}

// OrderBy represents an ORDER BY clause.
type OrderBy struct {
	Column    string
	Direction OrderDirection
}

// Operator represents a comparison operator.
type Operator string

const (
	OpEqual       Operator = "="
	OpNotEqual    Operator = "!="
	OpGreaterThan Operator = ">"
	OpLessThan    Operator = "<"
	OpAny         Operator = "= ANY"
	OpIsNull      Operator = "IS NULL"
)

// LogicOperator represents a logical operator (AND/OR).
type LogicOperator string

const (
	LogicAnd LogicOperator = "AND"
	LogicOr  LogicOperator = "OR"
)

// JoinType represents a type of JOIN.
type JoinType string

const (
	InnerJoin JoinType = "INNER JOIN"
	LeftJoin  JoinType = "LEFT JOIN"
)

// OrderDirection represents the sort direction.
type OrderDirection string

const (
	Asc  OrderDirection = "ASC"
	Desc OrderDirection = "DESC"
)
