// Package schema extracts relational table metadata from tagged Go structs.
package schema

import "reflect"

// TableMetadata describes a table derived from a Go struct.
type TableMetadata struct {
	Name          string
	GoType        reflect.Type
	Columns       []ColumnMetadata
	PrimaryKey    *PrimaryKeyMetadata
	ForeignKeys   []ForeignKeyMetadata
	Relationships []RelationshipMetadata
}

// ColumnMetadata describes a single column.
type ColumnMetadata struct {
	Name          string
	GoField       string
	GoType        reflect.Type
	SQLType       string
	Nullable      bool
	Default       *string
	Unique        bool
	AutoIncrement bool
	Position      int
}

// PrimaryKeyMetadata describes a primary key constraint.
type PrimaryKeyMetadata struct {
	Name    string
	Columns []string
}

// ReferenceAction is the referential action of a foreign key.
type ReferenceAction string

const (
	NoAction   ReferenceAction = "NO ACTION"
	Restrict   ReferenceAction = "RESTRICT"
	Cascade    ReferenceAction = "CASCADE"
	SetNull    ReferenceAction = "SET NULL"
	SetDefault ReferenceAction = "SET DEFAULT"
)

// ForeignKeyMetadata describes a foreign key constraint.
type ForeignKeyMetadata struct {
	Name              string
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          ReferenceAction
	OnUpdate          ReferenceAction
}

// RelationType is the kind of a navigable relationship.
type RelationType string

const (
	BelongsTo RelationType = "belongsTo"
	HasMany   RelationType = "hasMany"
)

// RelationshipMetadata describes a navigable relationship between two tables.
//
// For BelongsTo the foreign key lives on the source table; for HasMany it
// lives on the target table. Cascade marks a HasMany edge whose dependents
// are deleted together with the owner.
type RelationshipMetadata struct {
	Type        RelationType
	SourceTable string
	SourceField string
	TargetType  reflect.Type
	TargetTable string
	ForeignKey  string
	References  string
	Cascade     bool
}

// GetColumnByName returns the column with the given name, or nil.
func (t *TableMetadata) GetColumnByName(name string) *ColumnMetadata {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// IsPrimaryKey reports whether the column is part of the primary key.
func (t *TableMetadata) IsPrimaryKey(column string) bool {
	if t.PrimaryKey == nil {
		return false
	}
	for _, c := range t.PrimaryKey.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// ColumnNames returns column names in declaration order.
func (t *TableMetadata) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ReferencedTables returns the distinct tables this table's foreign keys point at.
func (t *TableMetadata) ReferencedTables() []string {
	seen := make(map[string]bool)
	var refs []string
	for _, fk := range t.ForeignKeys {
		if fk.ReferencedTable == t.Name || seen[fk.ReferencedTable] {
			continue
		}
		seen[fk.ReferencedTable] = true
		refs = append(refs, fk.ReferencedTable)
	}
	return refs
}
