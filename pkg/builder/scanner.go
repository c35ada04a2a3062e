package builder

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/superheroes/pkg/runtime"
	"github.com/marshallshelly/superheroes/pkg/schema"
)

// scanIntoStruct scans the current row into dest, matching result columns to
// struct fields through the table metadata. Unknown columns are discarded.
func scanIntoStruct(rows pgx.Rows, dest any, table *schema.TableMetadata) error {
	destValue := reflect.ValueOf(dest)
	if destValue.Kind() != reflect.Ptr || destValue.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("dest must be a pointer to struct")
	}
	destValue = destValue.Elem()

	fieldDescriptions := rows.FieldDescriptions()
	scanTargets := make([]any, len(fieldDescriptions))
	columnMap := make(map[string]int, len(fieldDescriptions))
	for i, fd := range fieldDescriptions {
		columnMap[fd.Name] = i
	}

	for _, col := range table.Columns {
		idx, ok := columnMap[col.Name]
		if !ok {
			continue
		}
		field := destValue.FieldByName(col.GoField)
		if !field.IsValid() || !field.CanSet() {
			continue
		}
		scanTargets[idx] = field.Addr().Interface()
	}

	var dummy any
	for i := range scanTargets {
		if scanTargets[i] == nil {
			scanTargets[i] = &dummy
		}
	}

	if err := rows.Scan(scanTargets...); err != nil {
		return fmt.Errorf("failed to scan row: %w", err)
	}
	return nil
}

// structToValues converts a struct to column names and values.
// Zero-valued auto-increment and defaulted columns are omitted so the
// database can generate them.
func structToValues(model any, table *schema.TableMetadata) ([]string, []any, error) {
	modelValue := reflect.ValueOf(model)
	if modelValue.Kind() == reflect.Ptr {
		modelValue = modelValue.Elem()
	}
	if modelValue.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be a struct")
	}

	var columns []string
	var values []any
	for _, col := range table.Columns {
		field := modelValue.FieldByName(col.GoField)
		if !field.IsValid() {
			continue
		}
		if (col.AutoIncrement || col.Default != nil) && field.IsZero() {
			continue
		}
		columns = append(columns, col.Name)
		values = append(values, field.Interface())
	}

	return columns, values, nil
}

// queryAll runs sql and scans every row into a T.
func queryAll[T any](ctx context.Context, q runtime.Querier, table *schema.TableMetadata, sql string, args []any) ([]T, error) {
	if q == nil {
		return nil, runtime.ErrNoConnection
	}
	rows, err := runtime.Query(ctx, q, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []T
	for rows.Next() {
		var item T
		if err := scanIntoStruct(rows, &item, table); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	if err := rows.Err(); err != nil {
		return nil, &runtime.QueryError{Query: sql, Err: runtime.TranslateError(err)}
	}
	return results, nil
}

// exec runs sql without a result set.
func exec(ctx context.Context, q runtime.Querier, sql string, args []any) (int64, error) {
	if q == nil {
		return 0, runtime.ErrNoConnection
	}
	return runtime.Exec(ctx, q, sql, args...)
}
