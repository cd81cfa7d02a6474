// Package schema provides a metadata registry for mapped entities and the
// per-entity save dispatch table.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/satishbabariya/joinql/internal/core/query/domain"
	"github.com/satishbabariya/joinql/internal/core/query/expr"
)

var (
	// ErrEntityNotFound is returned for entity types that were never registered.
	ErrEntityNotFound = errors.New("entity not registered")
	// ErrFieldNotFound is returned for fields an entity does not map.
	ErrFieldNotFound = errors.New("field not mapped")
)

// FieldMeta maps one entity field to a column.
type FieldMeta struct {
	Name   string `yaml:"name"`
	Column string `yaml:"column,omitempty"`
	// Type is one of bool, int, float, string or time.
	Type string `yaml:"type"`
	Key  bool   `yaml:"key,omitempty"`
}

// ExprType returns the expression type of the field.
func (f FieldMeta) ExprType() expr.Type {
	switch strings.ToLower(f.Type) {
	case "bool", "boolean":
		return expr.Bool
	case "int", "integer", "bigint":
		return expr.Int
	case "float", "decimal", "double":
		return expr.Float
	case "string", "text":
		return expr.String
	case "time", "datetime", "timestamp":
		return expr.Time
	default:
		return expr.Unknown
	}
}

// EntityMeta maps an entity type to a table.
type EntityMeta struct {
	Name   string      `yaml:"name"`
	Table  string      `yaml:"table,omitempty"`
	Schema string      `yaml:"schema,omitempty"`
	Fields []FieldMeta `yaml:"fields"`
}

// Entity is implemented by values that can be saved through the registry.
type Entity interface {
	EntityName() string
}

type saver func(Entity) (map[string]any, error)

// MetadataRegistry stores entity metadata for lowering and the save dispatch
// table keyed by entity type name.
type MetadataRegistry struct {
	mu       sync.RWMutex
	entities map[string]*EntityMeta
	savers   map[string]saver
}

// NewMetadataRegistry creates an empty registry.
func NewMetadataRegistry() *MetadataRegistry {
	return &MetadataRegistry{
		entities: make(map[string]*EntityMeta),
		savers:   make(map[string]saver),
	}
}

// Register adds entity metadata. Table and column names default to the
// entity and field names.
func (r *MetadataRegistry) Register(meta EntityMeta) error {
	if meta.Name == "" {
		return domain.NewError(domain.ErrInvalidArgument, nil, "entity name is empty")
	}
	if len(meta.Fields) == 0 {
		return domain.NewError(domain.ErrInvalidArgument, nil, "entity %s maps no fields", meta.Name)
	}

	m := meta
	if m.Table == "" {
		m.Table = m.Name
	}
	m.Fields = make([]FieldMeta, len(meta.Fields))
	seen := make(map[string]bool, len(meta.Fields))
	for i, f := range meta.Fields {
		if f.Name == "" {
			return domain.NewError(domain.ErrInvalidArgument, nil, "entity %s has a field without a name", meta.Name)
		}
		if seen[f.Name] {
			return domain.NewError(domain.ErrInvalidArgument, nil, "entity %s maps field %s twice", meta.Name, f.Name)
		}
		seen[f.Name] = true
		if f.Column == "" {
			f.Column = f.Name
		}
		m.Fields[i] = f
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities[m.Name] = &m
	return nil
}

// RegisterEntity adds metadata for T together with its save handler. values
// returns the field values of an instance keyed by field name; fields absent
// from the map are left to the database on insert.
func RegisterEntity[T Entity](r *MetadataRegistry, meta EntityMeta, values func(T) map[string]any) error {
	if values == nil {
		return domain.NewError(domain.ErrInvalidArgument, nil, "entity %s has no value accessor", meta.Name)
	}
	if err := r.Register(meta); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.savers[meta.Name] = func(e Entity) (map[string]any, error) {
		v, ok := e.(T)
		if !ok {
			return nil, fmt.Errorf("entity %s: unexpected value of type %T", meta.Name, e)
		}
		return values(v), nil
	}
	return nil
}

// GetEntity retrieves entity metadata by name.
func (r *MetadataRegistry) GetEntity(name string) (*EntityMeta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, ok := r.entities[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, name)
	}
	return meta, nil
}

// Entities returns the registered entity names in sorted order.
func (r *MetadataRegistry) Entities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetField retrieves a field of an entity.
func (r *MetadataRegistry) GetField(entity, field string) (*FieldMeta, error) {
	meta, err := r.GetEntity(entity)
	if err != nil {
		return nil, err
	}
	for i := range meta.Fields {
		if meta.Fields[i].Name == field {
			return &meta.Fields[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrFieldNotFound, entity, field)
}

// FieldType returns the expression type of a mapped field.
func (r *MetadataRegistry) FieldType(entity, field string) (expr.Type, bool) {
	f, err := r.GetField(entity, field)
	if err != nil {
		return expr.Unknown, false
	}
	return f.ExprType(), true
}

// GetTableName returns the table an entity maps to.
func (r *MetadataRegistry) GetTableName(entity string) (string, error) {
	meta, err := r.GetEntity(entity)
	if err != nil {
		return "", err
	}
	return meta.Table, nil
}

// GetColumnName returns the column a field maps to.
func (r *MetadataRegistry) GetColumnName(entity, field string) (string, error) {
	f, err := r.GetField(entity, field)
	if err != nil {
		return "", err
	}
	return f.Column, nil
}

// InsertCommand builds the insert for a registered entity value.
func (r *MetadataRegistry) InsertCommand(e Entity) (*domain.InsertCommand, error) {
	meta, values, err := r.dispatch(e)
	if err != nil {
		return nil, err
	}

	cmd := &domain.InsertCommand{Table: tableRef(meta)}
	for _, f := range meta.Fields {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		cmd.Values = append(cmd.Values, domain.ColumnValue{Column: f.Column, Value: param(v, f)})
	}
	if len(cmd.Values) == 0 {
		return nil, domain.NewError(domain.ErrInvalidArgument, nil, "entity %s has no values to insert", meta.Name)
	}
	return cmd, nil
}

// UpdateCommand builds an update of every non-key field, matched by key.
func (r *MetadataRegistry) UpdateCommand(e Entity) (*domain.UpdateCommand, error) {
	meta, values, err := r.dispatch(e)
	if err != nil {
		return nil, err
	}
	where, err := keyPredicate(meta, values)
	if err != nil {
		return nil, err
	}

	cmd := &domain.UpdateCommand{Table: tableRef(meta), Where: where}
	for _, f := range meta.Fields {
		if f.Key {
			continue
		}
		if v, ok := values[f.Name]; ok {
			cmd.Set = append(cmd.Set, domain.ColumnValue{Column: f.Column, Value: param(v, f)})
		}
	}
	if len(cmd.Set) == 0 {
		return nil, domain.NewError(domain.ErrInvalidArgument, nil, "entity %s has no values to update", meta.Name)
	}
	return cmd, nil
}

// DeleteCommand builds a delete matched by key.
func (r *MetadataRegistry) DeleteCommand(e Entity) (*domain.DeleteCommand, error) {
	meta, values, err := r.dispatch(e)
	if err != nil {
		return nil, err
	}
	where, err := keyPredicate(meta, values)
	if err != nil {
		return nil, err
	}
	return &domain.DeleteCommand{Table: tableRef(meta), Where: where}, nil
}

func (r *MetadataRegistry) dispatch(e Entity) (*EntityMeta, map[string]any, error) {
	if e == nil {
		return nil, nil, domain.NewError(domain.ErrInvalidArgument, nil, "entity is nil")
	}
	name := e.EntityName()

	r.mu.RLock()
	meta, ok := r.entities[name]
	save, hasSaver := r.savers[name]
	r.mu.RUnlock()

	if !ok || !hasSaver {
		return nil, nil, fmt.Errorf("%w: %s", ErrEntityNotFound, name)
	}
	values, err := save(e)
	if err != nil {
		return nil, nil, err
	}
	return meta, values, nil
}

func keyPredicate(meta *EntityMeta, values map[string]any) (domain.DbExpr, error) {
	var preds []domain.DbExpr
	for _, f := range meta.Fields {
		if !f.Key {
			continue
		}
		v, ok := values[f.Name]
		if !ok || v == nil {
			return nil, domain.NewError(domain.ErrInvalidArgument, nil, "entity %s: key %s has no value", meta.Name, f.Name)
		}
		preds = append(preds, domain.Equal(domain.Col("", f.Column), param(v, f)))
	}
	if len(preds) == 0 {
		return nil, domain.NewError(domain.ErrInvalidArgument, nil, "entity %s declares no key", meta.Name)
	}
	return domain.AndAll(preds...), nil
}

func tableRef(meta *EntityMeta) domain.TableRef {
	return domain.TableRef{Schema: meta.Schema, Name: meta.Table}
}

func param(v any, f FieldMeta) domain.DbParameter {
	t := f.ExprType()
	if t.Kind == expr.KindUnknown {
		t = expr.TypeOf(v)
	}
	return domain.DbParameter{Value: v, Type: t}
}
