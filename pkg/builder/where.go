package builder

import (
	"fmt"
	"strings"
)

// buildWhere renders conditions as a WHERE clause with placeholders
// numbered from paramStart.
func buildWhere(conditions []Condition, paramStart int) (string, []any, error) {
	if len(conditions) == 0 {
		return "", nil, nil
	}

	var sql strings.Builder
	var args []any
	paramNum := paramStart

	sql.WriteString("WHERE ")
	for i, cond := range conditions {
		if i > 0 {
			logic := cond.Logic
			if logic == "" {
				logic = LogicAnd
			}
			sql.WriteString(" " + string(logic) + " ")
		}

		switch cond.Operator {
		case OpEqual, OpNotEqual, OpGreaterThan, OpLessThan:
			fmt.Fprintf(&sql, "%s %s $%d", cond.Column, cond.Operator, paramNum)
			args = append(args, cond.Value)
			paramNum++
		case OpAny:
			fmt.Fprintf(&sql, "%s = ANY($%d)", cond.Column, paramNum)
			args = append(args, cond.Value)
			paramNum++
		case OpIsNull:
			fmt.Fprintf(&sql, "%s IS NULL", cond.Column)
		default:
			return "", nil, fmt.Errorf("unknown operator: %s", cond.Operator)
		}
	}

	return sql.String(), args, nil
}

// Eq creates an equality condition.
func Eq(column string, value any) Condition {
	return Condition{Column: column, Operator: OpEqual, Value: value, Logic: LogicAnd}
}

// NotEq creates a not-equal condition.
func NotEq(column string, value any) Condition {
	return Condition{Column: column, Operator: OpNotEqual, Value: value, Logic: LogicAnd}
}

// Gt creates a greater-than condition.
func Gt(column string, value any) Condition {
	return Condition{Column: column, Operator: OpGreaterThan, Value: value, Logic: LogicAnd}
}

// Lt creates a less-than condition.
func Lt(column string, value any) Condition {
	return Condition{Column: column, Operator: OpLessThan, Value: value, Logic: LogicAnd}
}

// Any matches column against any element of values, passed as one array
// parameter.
func Any[V any](column string, values []V) Condition {
	return Condition{Column: column, Operator: OpAny, Value: values, Logic: LogicAnd}
}

// IsNull creates an IS NULL condition.
func IsNull(column string) Condition {
	return Condition{Column: column, Operator: OpIsNull, Logic: LogicAnd}
}

// Or sets the logic operator to OR for the condition.
func Or(cond Condition) Condition {
	cond.Logic = LogicOr
	return cond
}
