// Package registry provides a central schema registry for table metadata.
package registry

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/marshallshelly/superheroes/pkg/schema"
)

// Registry is a thread-safe registry for table metadata.
type Registry struct {
	mu     sync.RWMutex
	parser *schema.Parser
	tables map[reflect.Type]*schema.TableMetadata
	names  map[string]*schema.TableMetadata
}

// NewRegistry creates a new Registry instance.
func NewRegistry() *Registry {
	return &Registry{
		parser: schema.NewParser(),
		tables: make(map[reflect.Type]*schema.TableMetadata),
		names:  make(map[string]*schema.TableMetadata),
	}
}

// Register registers a model type and extracts its metadata.
func (r *Registry) Register(model any) error {
	modelType := reflect.TypeOf(model)
	if modelType == nil {
		return fmt.Errorf("model must be a struct, got nil")
	}
	for modelType.Kind() == reflect.Pointer {
		modelType = modelType.Elem()
	}
	if modelType.Kind() != reflect.Struct {
		return fmt.Errorf("model must be a struct, got %s", modelType.Kind())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tables[modelType]; ok {
		return nil
	}

	table, err := r.parser.Parse(modelType)
	if err != nil {
		return fmt.Errorf("failed to parse model %s: %w", modelType.Name(), err)
	}
	if existing, ok := r.names[table.Name]; ok && existing.GoType != modelType {
		return fmt.Errorf("table %s already registered by %s", table.Name, existing.GoType.Name())
	}

	r.tables[modelType] = table
	r.names[table.Name] = table
	return nil
}

// Get retrieves TableMetadata by Go type.
func (r *Registry) Get(modelType reflect.Type) (*schema.TableMetadata, error) {
	for modelType.Kind() == reflect.Pointer {
		modelType = modelType.Elem()
	}

	r.mu.RLock()
	table, ok := r.tables[modelType]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("model type %s not registered", modelType.Name())
	}
	return table, nil
}

// GetByName retrieves TableMetadata by table name.
func (r *Registry) GetByName(tableName string) (*schema.TableMetadata, error) {
	r.mu.RLock()
	table, ok := r.names[tableName]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("table %s not registered", tableName)
	}
	return table, nil
}

// GetOrRegister retrieves TableMetadata or registers it if not found.
func (r *Registry) GetOrRegister(model any) (*schema.TableMetadata, error) {
	modelType := reflect.TypeOf(model)
	if modelType == nil {
		return nil, fmt.Errorf("model must be a struct, got nil")
	}
	for modelType.Kind() == reflect.Pointer {
		modelType = modelType.Elem()
	}

	r.mu.RLock()
	table, ok := r.tables[modelType]
	r.mu.RUnlock()
	if ok {
		return table, nil
	}

	if err := r.Register(model); err != nil {
		return nil, err
	}
	return r.Get(modelType)
}

// All returns registered tables ordered so that every table comes after the
// tables its foreign keys reference. Ties are broken by name.
func (r *Registry) All() []*schema.TableMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	slices.Sort(names)

	ordered := make([]*schema.TableMetadata, 0, len(names))
	visited := make(map[string]bool, len(names))
	var visit func(name string)
	visit = func(name string) {
		table, ok := r.names[name]
		if !ok || visited[name] {
			return
		}
		visited[name] = true
		for _, ref := range table.ReferencedTables() {
			visit(ref)
		}
		ordered = append(ordered, table)
	}
	for _, name := range names {
		visit(name)
	}
	return ordered
}

// Has checks if a model type is registered.
func (r *Registry) Has(modelType reflect.Type) bool {
	for modelType.Kind() == reflect.Pointer {
		modelType = modelType.Elem()
	}

	r.mu.RLock()
	_, ok := r.tables[modelType]
	r.mu.RUnlock()
	return ok
}

// Clear removes all registered models.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tables = make(map[reflect.Type]*schema.TableMetadata)
	r.names = make(map[string]*schema.TableMetadata)
}

// globalRegistry is the default global registry instance.
var globalRegistry = NewRegistry()

// Default returns the global registry.
func Default() *Registry {
	return globalRegistry
}

// Register registers a model in the global registry.
func Register(model any) error {
	return globalRegistry.Register(model)
}

// Get retrieves TableMetadata from the global registry.
func Get(modelType reflect.Type) (*schema.TableMetadata, error) {
	return globalRegistry.Get(modelType)
}

// GetByName retrieves TableMetadata by name from the global registry.
func GetByName(tableName string) (*schema.TableMetadata, error) {
	return globalRegistry.GetByName(tableName)
}

// GetOrRegister retrieves or registers a model in the global registry.
func GetOrRegister(model any) (*schema.TableMetadata, error) {
	return globalRegistry.GetOrRegister(model)
}

// All returns all tables from the global registry in dependency order.
func All() []*schema.TableMetadata {
	return globalRegistry.All()
}
