package builder

import (
	"context"
	"fmt"
	"strings"
)

// Values sets the values to insert (single or multiple rows).
func (q *InsertQuery[T]) Values(values ...T) *InsertQuery[T] {
	q.values = append(q.values, values...)
	return q
}

// Returning specifies columns to return after insert.
func (q *InsertQuery[T]) Returning(columns ...string) *InsertQuery[T] {
	q.returning = columns
	return q
}

// ToSQL generates the INSERT SQL and arguments. Every row must produce the
// same column list as the first.
func (q *InsertQuery[T]) ToSQL() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	if q.table == nil {
		return "", nil, fmt.Errorf("table metadata not available")
	}
	if len(q.values) == 0 {
		return "", nil, fmt.Errorf("no values to insert")
	}

	columns, _, err := structToValues(q.values[0], q.table)
	if err != nil {
		return "", nil, fmt.Errorf("failed to extract values: %w", err)
	}

	var sql strings.Builder
	var args []any
	paramNum := 1

	sql.WriteString("INSERT INTO ")
	sql.WriteString(q.table.Name)
	if len(columns) == 0 {
		sql.WriteString(" DEFAULT VALUES")
	} else {
		sql.WriteString(" (" + strings.Join(columns, ", ") + ") VALUES ")

		valueClauses := make([]string, len(q.values))
		for i, val := range q.values {
			rowColumns, rowValues, err := structToValues(val, q.table)
			if err != nil {
				return "", nil, fmt.Errorf("failed to extract values from row %d: %w", i, err)
			}
			if len(rowColumns) != len(columns) {
				return "", nil, fmt.Errorf("row %d has %d columns, expected %d", i, len(rowColumns), len(columns))
			}
			placeholders := make([]string, len(rowValues))
			for j := range rowValues {
				placeholders[j] = fmt.Sprintf("$%d", paramNum)
				paramNum++
			}
			args = append(args, rowValues...)
			valueClauses[i] = "(" + strings.Join(placeholders, ", ") + ")"
		}
		sql.WriteString(strings.Join(valueClauses, ", "))
	}

	if len(q.returning) > 0 {
		sql.WriteString(" RETURNING " + strings.Join(q.returning, ", "))
	}

	return sql.String(), args, nil
}

// Exec executes the INSERT query and returns the number of inserted rows.
func (q *InsertQuery[T]) Exec(ctx context.Context) (int64, error) {
	q.returning = nil
	sql, args, err := q.ToSQL()
	if err != nil {
		return 0, err
	}
	return exec(ctx, q.db.q, sql, args)
}

// ExecReturning executes the INSERT and returns the inserted rows.
func (q *InsertQuery[T]) ExecReturning(ctx context.Context) ([]T, error) {
	if len(q.returning) == 0 {
		q.Returning("*")
	}
	sql, args, err := q.ToSQL()
	if err != nil {
		return nil, err
	}
	return queryAll[T](ctx, q.db.q, q.table, sql, args)
}
