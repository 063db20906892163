package catalog

import (
	"errors"
	"fmt"

	"github.com/lexvaani/formfill/types"
)

// ErrSchemaNotFound is returned when a form type id is not in the catalog.
var ErrSchemaNotFound = errors.New("form schema not found")

// Provider is a read-only lookup from form type id to its schema. The catalog
// is immutable after construction and safe to share across sessions without
// locking.
type Provider interface {
	Schema(formTypeID string) (*types.FormSchema, error)
	IDs() []string
}

// Static is a Provider backed by a fixed set of schemas.
type Static struct {
	ids     []string
	schemas map[string]*types.FormSchema
}

// NewStatic builds a Static catalog. A malformed schema is a programming
// error, not a runtime condition, so construction fails instead of degrading.
func NewStatic(schemas []*types.FormSchema) (*Static, error) {
	if len(schemas) == 0 {
		return nil, errors.New("catalog: no schemas")
	}
	s := &Static{
		ids:     make([]string, 0, len(schemas)),
		schemas: make(map[string]*types.FormSchema, len(schemas)),
	}
	for _, schema := range schemas {
		if err := checkSchema(schema); err != nil {
			return nil, fmt.Errorf("catalog: schema %q: %w", schema.ID, err)
		}
		if _, dup := s.schemas[schema.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate schema id %q", schema.ID)
		}
		s.ids = append(s.ids, schema.ID)
		s.schemas[schema.ID] = schema
	}
	return s, nil
}

func checkSchema(schema *types.FormSchema) error {
	if schema.ID == "" {
		return errors.New("empty id")
	}
	if len(schema.Fields) == 0 {
		return errors.New("no fields")
	}
	seen := make(map[string]bool, len(schema.Fields))
	required := 0
	for _, f := range schema.Fields {
		if f.ID == "" {
			return errors.New("field with empty id")
		}
		if seen[f.ID] {
			return fmt.Errorf("duplicate field id %q", f.ID)
		}
		seen[f.ID] = true
		if f.Required {
			required++
		}
		if f.Type == types.FieldSelect && len(f.Options) == 0 {
			return fmt.Errorf("select field %q has no options", f.ID)
		}
	}
	if required == 0 {
		return errors.New("no required fields")
	}
	return nil
}

func (s *Static) Schema(formTypeID string) (*types.FormSchema, error) {
	schema, ok := s.schemas[formTypeID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSchemaNotFound, formTypeID)
	}
	return schema, nil
}

// IDs returns the schema ids in registration order.
func (s *Static) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Schemas returns all schemas in registration order, for prompt building.
func (s *Static) Schemas() []*types.FormSchema {
	out := make([]*types.FormSchema, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.schemas[id])
	}
	return out
}
