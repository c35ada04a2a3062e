package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/marshallshelly/superheroes/pkg/runtime"
)

// Columns specifies which columns to select.
func (q *SelectQuery[T]) Columns(cols ...string) *SelectQuery[T] {
	q.columns = cols
	return q
}

// Distinct adds DISTINCT to the query.
func (q *SelectQuery[T]) Distinct() *SelectQuery[T] {
	q.distinct = true
	return q
}

// Where adds a WHERE condition.
func (q *SelectQuery[T]) Where(condition Condition) *SelectQuery[T] {
	q.where = append(q.where, condition)
	return q
}

// And adds an AND condition.
func (q *SelectQuery[T]) And(condition Condition) *SelectQuery[T] {
	condition.Logic = LogicAnd
	return q.Where(condition)
}

// InnerJoin adds an INNER JOIN.
func (q *SelectQuery[T]) InnerJoin(table string, condition string) *SelectQuery[T] {
	q.joins = append(q.joins, Join{Type: InnerJoin, Table: table, Condition: condition})
	return q
}

// OrderByAsc adds an ascending ORDER BY clause.
func (q *SelectQuery[T]) OrderByAsc(column string) *SelectQuery[T] {
	q.orderBy = append(q.orderBy, OrderBy{Column: column, Direction: Asc})
	return q
}

// OrderByDesc adds a descending ORDER BY clause.
func (q *SelectQuery[T]) OrderByDesc(column string) *SelectQuery[T] {
	q.orderBy = append(q.orderBy, OrderBy{Column: column, Direction: Desc})
	return q
}

// Limit sets the LIMIT clause.
func (q *SelectQuery[T]) Limit(limit int) *SelectQuery[T] {
	q.limit = &limit
	return q
}

// ToSQL generates the SQL query and arguments.
func (q *SelectQuery[T]) ToSQL() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	if q.table == nil {
		return "", nil, fmt.Errorf("table metadata not available")
	}

	var sql strings.Builder
	sql.WriteString("SELECT ")
	if q.distinct {
		sql.WriteString("DISTINCT ")
	}
	if len(q.columns) == 0 {
		sql.WriteString(q.table.Name + ".*")
	} else {
		sql.WriteString(strings.Join(q.columns, ", "))
	}
	sql.WriteString(" FROM ")
	sql.WriteString(q.table.Name)

	for _, join := range q.joins {
		fmt.Fprintf(&sql, " %s %s ON %s", join.Type, join.Table, join.Condition)
	}

	whereSQL, args, err := buildWhere(q.where, 1)
	if err != nil {
		return "", nil, fmt.Errorf("failed to build WHERE clause: %w", err)
	}
	if whereSQL != "" {
		sql.WriteString(" " + whereSQL)
	}

	if len(q.orderBy) > 0 {
		parts := make([]string, len(q.orderBy))
		for i, order := range q.orderBy {
			parts[i] = order.Column + " " + string(order.Direction)
		}
		sql.WriteString(" ORDER BY " + strings.Join(parts, ", "))
	}

	if q.limit != nil {
		fmt.Fprintf(&sql, " LIMIT %d", *q.limit)
	}

	return sql.String(), args, nil
}

// All executes the query and returns all results.
func (q *SelectQuery[T]) All(ctx context.Context) ([]T, error) {
	sql, args, err := q.ToSQL()
	if err != nil {
		return nil, err
	}
	return queryAll[T](ctx, q.db.q, q.table, sql, args)
}

// First executes the query and returns the first result, or
// runtime.ErrNotFound when there is none.
func (q *SelectQuery[T]) First(ctx context.Context) (*T, error) {
	q.Limit(1)
	results, err := q.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, runtime.ErrNotFound
	}
	return &results[0], nil
}

// Count executes a COUNT query using the same FROM, JOIN and WHERE clauses.
func (q *SelectQuery[T]) Count(ctx context.Context) (int64, error) {
	countQuery := *q
	countQuery.columns = []string{"COUNT(*)"}
	countQuery.orderBy = nil
	countQuery.limit = nil

	sql, args, err := countQuery.ToSQL()
	if err != nil {
		return 0, err
	}
	if q.db.q == nil {
		return 0, runtime.ErrNoConnection
	}

	var count int64
	if err := q.db.q.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, &runtime.QueryError{Query: sql, Err: runtime.TranslateError(err)}
	}
	return count, nil
}
