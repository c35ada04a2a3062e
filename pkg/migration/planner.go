package migration

import (
	"fmt"
	"slices"
	"strings"

	"github.com/marshallshelly/superheroes/pkg/schema"
)

// PlannerOptions configures DDL generation.
type PlannerOptions struct {
	// IfNotExists adds IF NOT EXISTS to CREATE TABLE statements.
	IfNotExists bool
}

// Planner renders table metadata as PostgreSQL DDL.
type Planner struct {
	options PlannerOptions
}

// NewPlanner creates a planner that emits idempotent CREATE statements.
func NewPlanner() *Planner {
	return &Planner{options: PlannerOptions{IfNotExists: true}}
}

// NewPlannerWithOptions creates a planner with custom options.
func NewPlannerWithOptions(opts PlannerOptions) *Planner {
	return &Planner{options: opts}
}

// CreateSQL renders CREATE TABLE statements. tables must already be in
// dependency order, as returned by registry.All.
func (p *Planner) CreateSQL(tables []*schema.TableMetadata) string {
	statements := make([]string, 0, len(tables))
	for _, table := range tables {
		statements = append(statements, p.generateCreateTable(table))
	}
	return joinStatements(statements)
}

// DropSQL renders DROP TABLE statements in reverse dependency order.
func (p *Planner) DropSQL(tables []*schema.TableMetadata) string {
	statements := make([]string, 0, len(tables))
	for _, table := range slices.Backward(tables) {
		statements = append(statements, p.generateDropTable(table.Name))
	}
	return joinStatements(statements)
}

// GenerateMigration returns the up and down SQL for creating tables.
func (p *Planner) GenerateMigration(tables []*schema.TableMetadata) (upSQL, downSQL string) {
	return p.CreateSQL(tables), p.DropSQL(tables)
}

func joinStatements(statements []string) string {
	if len(statements) == 0 {
		return ""
	}
	return strings.Join(statements, "\n\n") + "\n"
}

// generateCreateTable generates a CREATE TABLE statement.
func (p *Planner) generateCreateTable(table *schema.TableMetadata) string {
	var parts []string

	var singlePKColumn string
	if table.PrimaryKey != nil && len(table.PrimaryKey.Columns) == 1 {
		singlePKColumn = table.PrimaryKey.Columns[0]
	}

	for _, col := range table.Columns {
		colDef := p.generateColumnDefinition(col)
		if col.Name == singlePKColumn {
			colDef += " PRIMARY KEY"
		}
		parts = append(parts, "    "+colDef)
	}

	if table.PrimaryKey != nil && len(table.PrimaryKey.Columns) > 1 {
		parts = append(parts, fmt.Sprintf("    CONSTRAINT %s PRIMARY KEY (%s)",
			table.PrimaryKey.Name, strings.Join(table.PrimaryKey.Columns, ", ")))
	}

	for _, fk := range table.ForeignKeys {
		parts = append(parts, "    "+p.generateForeignKeyDefinition(fk))
	}

	createClause := "CREATE TABLE"
	if p.options.IfNotExists {
		createClause = "CREATE TABLE IF NOT EXISTS"
	}
	return fmt.Sprintf("%s %s (\n%s\n);", createClause, table.Name, strings.Join(parts, ",\n"))
}

// generateColumnDefinition generates a column definition.
func (p *Planner) generateColumnDefinition(col schema.ColumnMetadata) string {
	parts := []string{col.Name, col.SQLType}

	// serial columns are implicitly NOT NULL
	if !col.Nullable && !col.AutoIncrement {
		parts = append(parts, "NOT NULL")
	}
	if col.Default != nil {
		parts = append(parts, "DEFAULT", *col.Default)
	}
	if col.Unique {
		parts = append(parts, "UNIQUE")
	}

	return strings.Join(parts, " ")
}

// generateForeignKeyDefinition generates a named foreign key constraint.
func (p *Planner) generateForeignKeyDefinition(fk schema.ForeignKeyMetadata) string {
	parts := []string{
		fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s)", fk.Name, strings.Join(fk.Columns, ", ")),
		fmt.Sprintf("REFERENCES %s (%s)", fk.ReferencedTable, strings.Join(fk.ReferencedColumns, ", ")),
	}
	if fk.OnDelete != schema.NoAction && fk.OnDelete != "" {
		parts = append(parts, "ON DELETE "+string(fk.OnDelete))
	}
	if fk.OnUpdate != schema.NoAction && fk.OnUpdate != "" {
		parts = append(parts, "ON UPDATE "+string(fk.OnUpdate))
	}
	return strings.Join(parts, " ")
}

func (p *Planner) generateDropTable(tableName string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", tableName)
}
