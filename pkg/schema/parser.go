package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

const (
	// StructTagKey is the key used in struct tags (e.g., `po:"..."`).
	StructTagKey = "po"
)

// TableNamer lets a model choose its own table name.
type TableNamer interface {
	TableName() string
}

// Parser parses struct definitions to extract table metadata.
type Parser struct {
	typeMapper *TypeMapper
	mu         sync.Mutex
	cache      map[reflect.Type]*TableMetadata
}

// NewParser creates a new Parser instance.
func NewParser() *Parser {
	return &Parser{
		typeMapper: DefaultTypeMapper,
		cache:      make(map[reflect.Type]*TableMetadata),
	}
}

// ForeignKeyName returns the deterministic constraint name for a single-column
// foreign key: fk_<table>_<column>_<referenced table>.
func ForeignKeyName(table, column, refTable string) string {
	return fmt.Sprintf("fk_%s_%s_%s", table, column, refTable)
}

// Parse extracts TableMetadata from a Go struct type.
func (p *Parser) Parse(modelType reflect.Type) (*TableMetadata, error) {
	for modelType.Kind() == reflect.Ptr {
		modelType = modelType.Elem()
	}
	if modelType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model must be a struct, got %s", modelType.Kind())
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if cached, ok := p.cache[modelType]; ok {
		return cached, nil
	}

	table := &TableMetadata{
		Name:        extractTableName(modelType),
		GoType:      modelType,
		Columns:     make([]ColumnMetadata, 0),
		ForeignKeys: make([]ForeignKeyMetadata, 0),
	}

	for i := 0; i < modelType.NumField(); i++ {
		field := modelType.Field(i)
		if !field.IsExported() {
			continue
		}
		tagValue := field.Tag.Get(StructTagKey)
		if tagValue == "" || tagValue == "-" {
			continue
		}
		tagOpts, err := p.parseTag(tagValue)
		if err != nil {
			return nil, fmt.Errorf("failed to parse tag for field %s: %w", field.Name, err)
		}
		// Relationship fields are handled by ParseRelationships.
		if p.isRelationshipTag(tagOpts) {
			continue
		}

		if tagOpts.Has("default") {
			if err := ValidateDefaultValue(tagOpts.Get("default")); err != nil {
				return nil, fmt.Errorf("field %s: %w", field.Name, err)
			}
		}
		column := p.createColumnMetadata(field, tagOpts, i)
		if tagOpts.Has("primaryKey") {
			if table.PrimaryKey == nil {
				table.PrimaryKey = &PrimaryKeyMetadata{
					Columns: []string{column.Name},
					Name:    table.Name + "_pkey",
				}
			} else {
				table.PrimaryKey.Columns = append(table.PrimaryKey.Columns, column.Name)
			}
		}
		table.Columns = append(table.Columns, column)

		if fk, ok := parseForeignKey(table.Name, column.Name, tagOpts); ok {
			table.ForeignKeys = append(table.ForeignKeys, fk)
		}
	}

	if err := p.ParseRelationships(modelType, table); err != nil {
		return nil, fmt.Errorf("failed to parse relationships: %w", err)
	}

	p.cache[modelType] = table
	return table, nil
}

// extractTableName resolves the table name for a struct type.
// A TableName method wins; otherwise the struct name in snake_case.
func extractTableName(modelType reflect.Type) string {
	if namer, ok := reflect.New(modelType).Interface().(TableNamer); ok {
		if name := namer.TableName(); name != "" {
			return name
		}
	}
	return toSnakeCase(modelType.Name())
}

// createColumnMetadata creates a ColumnMetadata from a struct field.
func (p *Parser) createColumnMetadata(field reflect.StructField, opts *TagOptions, position int) ColumnMetadata {
	column := ColumnMetadata{
		Name:     opts.Name,
		GoField:  field.Name,
		GoType:   field.Type,
		Position: position,
	}
	if sqlType := opts.GetSQLType(); sqlType != "" {
		column.SQLType = sqlType
	} else {
		column.SQLType = p.typeMapper.GoTypeToPostgreSQL(field.Type)
	}
	column.Nullable = !opts.Has("notNull") && !opts.Has("primaryKey")
	if IsNullable(field.Type) {
		column.Nullable = true
	}
	if defaultVal := opts.Get("default"); defaultVal != "" {
		column.Default = &defaultVal
	}
	column.Unique = opts.Has("unique")
	column.AutoIncrement = opts.Has("autoIncrement") || opts.Has("serial") || opts.Has("bigserial")
	return column
}

// isRelationshipTag checks if tag options indicate a relationship field.
func (p *Parser) isRelationshipTag(opts *TagOptions) bool {
	return opts.Has("belongsTo") || opts.Has("hasMany")
}

// TagOptions represents parsed tag options.
type TagOptions struct {
	Name    string            // Column name (first element)
	Options map[string]string // Other options
}

// parseTag parses a struct tag value into TagOptions.
// Format: "column_name,option1,option2(value),option3:value"
func (p *Parser) parseTag(tag string) (*TagOptions, error) {
	parts := splitTag(tag)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty tag value")
	}
	opts := &TagOptions{
		Name:    parts[0],
		Options: make(map[string]string),
	}
	for _, opt := range parts[1:] {
		if idx := strings.Index(opt, "("); idx != -1 {
			if !strings.HasSuffix(opt, ")") {
				return nil, fmt.Errorf("invalid option format: %s", opt)
			}
			opts.Options[opt[:idx]] = opt[idx+1 : len(opt)-1]
		} else if key, value, ok := strings.Cut(opt, ":"); ok {
			opts.Options[key] = value
		} else {
			opts.Options[opt] = ""
		}
	}
	return opts, nil
}

// Has checks if an option exists.
func (t *TagOptions) Has(key string) bool {
	_, ok := t.Options[key]
	return ok
}

// Get returns the value of an option.
func (t *TagOptions) Get(key string) string {
	return t.Options[key]
}

var sqlTypeOptions = []string{
	"varchar", "text", "char",
	"smallint", "integer", "bigint", "serial", "bigserial",
	"numeric", "boolean",
	"date", "timestamp", "timestamptz",
	"jsonb", "bytea",
}

// GetSQLType returns the SQL type named in the tag options, if any.
func (t *TagOptions) GetSQLType() string {
	for _, pgType := range sqlTypeOptions {
		if !t.Has(pgType) {
			continue
		}
		if value := t.Get(pgType); value != "" {
			return fmt.Sprintf("%s(%s)", pgType, value)
		}
		return pgType
	}
	return ""
}

// splitTag splits a tag value by commas, handling nested parentheses.
func splitTag(tag string) []string {
	var parts []string
	var current strings.Builder
	depth := 0
	for _, ch := range tag {
		switch ch {
		case '(':
			depth++
			current.WriteRune(ch)
		case ')':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(current.String()))
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, strings.TrimSpace(current.String()))
	}
	return parts
}

// toSnakeCase converts a string from PascalCase to snake_case.
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, ch := range s {
		if i > 0 && ch >= 'A' && ch <= 'Z' {
			result.WriteRune('_')
		}
		result.WriteRune(ch)
	}
	return strings.ToLower(result.String())
}

// parseForeignKey reads an `fk:table.column` or `fk(table.column)` option.
func parseForeignKey(tableName, columnName string, opts *TagOptions) (ForeignKeyMetadata, bool) {
	fkStr := opts.Get("fk")
	if fkStr == "" {
		return ForeignKeyMetadata{}, false
	}

	refTable, refColumn, ok := strings.Cut(fkStr, ".")
	if !ok || refTable == "" || refColumn == "" {
		return ForeignKeyMetadata{}, false
	}

	return ForeignKeyMetadata{
		Name:              ForeignKeyName(tableName, columnName, refTable),
		Columns:           []string{columnName},
		ReferencedTable:   refTable,
		ReferencedColumns: []string{refColumn},
		OnDelete:          parseReferenceAction(opts.Get("onDelete")),
		OnUpdate:          parseReferenceAction(opts.Get("onUpdate")),
	}, true
}

// parseReferenceAction converts a string to ReferenceAction.
func parseReferenceAction(action string) ReferenceAction {
	switch strings.ToUpper(strings.TrimSpace(action)) {
	case "CASCADE":
		return Cascade
	case "RESTRICT":
		return Restrict
	case "SETNULL", "SET NULL":
		return SetNull
	case "SETDEFAULT", "SET DEFAULT":
		return SetDefault
	default:
		return NoAction
	}
}
