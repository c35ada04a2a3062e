package builder

import (
	"github.com/marshallshelly/superheroes/pkg/registry"
	"github.com/marshallshelly/superheroes/pkg/runtime"
)

// DB binds query builders to a pool or a transaction.
type DB struct {
	q runtime.Querier
}

// New creates a query builder DB over q. q may be nil when only ToSQL is used.
func New(q runtime.Querier) *DB {
	return &DB{q: q}
}

// Select creates a new type-safe SELECT query.
// Usage: builder.Select[Hero](db).Where(...).All(ctx)
func Select[T any](d *DB) *SelectQuery[T] {
	var model T
	table, err := registry.GetOrRegister(model)
	return &SelectQuery[T]{
		db:    d,
		table: table,
		err:   err,
	}
}

// Insert creates a new type-safe INSERT query.
// Usage: builder.Insert[Hero](db).Values(hero).ExecReturning(ctx)
func Insert[T any](d *DB) *InsertQuery[T] {
	var model T
	table, err := registry.GetOrRegister(model)
	return &InsertQuery[T]{
		db:    d,
		table: table,
		err:   err,
	}
}

// Update creates a new type-safe UPDATE query.
// Usage: builder.Update[Power](db).Set("name", "Flight").Where(...).Exec(ctx)
func Update[T any](d *DB) *UpdateQuery[T] {
	var model T
	table, err := registry.GetOrRegister(model)
	return &UpdateQuery[T]{
		db:    d,
		table: table,
		err:   err,
	}
}

// Delete creates a new type-safe DELETE query.
// Usage: builder.Delete[Hero](db).Where(...).Exec(ctx)
func Delete[T any](d *DB) *DeleteQuery[T] {
	var model T
	table, err := registry.GetOrRegister(model)
	return &DeleteQuery[T]{
		db:    d,
		table: table,
		err:   err,
	}
}
