package schema

import (
	"fmt"
	"reflect"
)

// ParseRelationships extracts relationship metadata from struct fields.
func (p *Parser) ParseRelationships(modelType reflect.Type, table *TableMetadata) error {
	for modelType.Kind() == reflect.Ptr {
		modelType = modelType.Elem()
	}
	if modelType.Kind() != reflect.Struct {
		return fmt.Errorf("model must be a struct")
	}

	for i := 0; i < modelType.NumField(); i++ {
		field := modelType.Field(i)
		if !field.IsExported() {
			continue
		}
		tagValue := field.Tag.Get(StructTagKey)
		if tagValue == "" {
			continue
		}
		tagOpts, err := p.parseTag(tagValue)
		if err != nil || !p.isRelationshipTag(tagOpts) {
			continue
		}

		rel, err := p.parseRelationship(field, tagOpts, table)
		if err != nil {
			return fmt.Errorf("failed to parse relationship for field %s: %w", field.Name, err)
		}
		table.Relationships = append(table.Relationships, *rel)
	}

	return nil
}

// parseRelationship parses a relationship from a struct field.
func (p *Parser) parseRelationship(field reflect.StructField, opts *TagOptions, sourceTable *TableMetadata) (*RelationshipMetadata, error) {
	rel := &RelationshipMetadata{
		SourceTable: sourceTable.Name,
		SourceField: field.Name,
		ForeignKey:  opts.Get("foreignKey"),
		References:  opts.Get("references"),
	}

	switch {
	case opts.Has("belongsTo"):
		rel.Type = BelongsTo
	case opts.Has("hasMany"):
		rel.Type = HasMany
		rel.Cascade = opts.Has("cascade")
	default:
		return nil, fmt.Errorf("unknown relationship type")
	}

	fieldType := field.Type
	if fieldType.Kind() == reflect.Slice {
		fieldType = fieldType.Elem()
	}
	for fieldType.Kind() == reflect.Ptr {
		fieldType = fieldType.Elem()
	}
	if fieldType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("relationship target must be a struct, got %s", fieldType.Kind())
	}
	rel.TargetType = fieldType
	rel.TargetTable = extractTableName(fieldType)

	if rel.ForeignKey == "" {
		switch rel.Type {
		case BelongsTo:
			// post.user_id -> users.id
			rel.ForeignKey = toSnakeCase(fieldType.Name()) + "_id"
		case HasMany:
			// users.id <- posts.user_id
			rel.ForeignKey = toSnakeCase(sourceTable.GoType.Name()) + "_id"
		}
	}
	if rel.References == "" {
		rel.References = "id"
	}

	return rel, nil
}

// GetRelationship returns a relationship by source field name.
func (t *TableMetadata) GetRelationship(fieldName string) *RelationshipMetadata {
	for i := range t.Relationships {
		if t.Relationships[i].SourceField == fieldName {
			return &t.Relationships[i]
		}
	}
	return nil
}

// CascadeDependents returns the HasMany relationships whose rows are deleted
// together with a row of this table.
func (t *TableMetadata) CascadeDependents() []RelationshipMetadata {
	var result []RelationshipMetadata
	for _, rel := range t.Relationships {
		if rel.Type == HasMany && rel.Cascade {
			result = append(result, rel)
		}
	}
	return result
}
