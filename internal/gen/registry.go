package gen

import (
	"fmt"
	"strings"

	"fableforge/internal/config"
)

// SchemaRegistry implements Registry over the declared relation schema.
type SchemaRegistry struct {
	schema *config.Schema
}

var _ Registry = (*SchemaRegistry)(nil)

func NewSchemaRegistry(schema *config.Schema) *SchemaRegistry {
	return &SchemaRegistry{schema: schema}
}

// Validate checks a payload against the type's declared references:
// required non-contextual reference fields must be present and non-empty.
// The payload comes back unchanged on success.
func (r *SchemaRegistry) Validate(entityType string, payload map[string]any) (map[string]any, error) {
	declared, ok := r.schema.EntityTypeByName(entityType)
	if !ok {
		return nil, fmt.Errorf("unknown entity type: %s", entityType)
	}
	if payload == nil {
		return nil, fmt.Errorf("empty payload for %s", entityType)
	}

	for _, reference := range declared.References {
		if !reference.Required || reference.Contextual {
			continue
		}
		if len(RefIDs(payload[reference.Field])) == 0 {
			return nil, fmt.Errorf("%s payload is missing required reference field %q", entityType, reference.Field)
		}
	}
	return payload, nil
}

func (r *SchemaRegistry) DependenciesOf(entityType string) []string {
	return r.schema.DependenciesOf(entityType)
}

// RefIDs extracts the entity ids a payload reference field carries. A field
// is a single id string or a list of id strings; anything else yields nil.
func RefIDs(value any) []string {
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []string{v}
	case []string:
		var ids []string
		for _, id := range v {
			if strings.TrimSpace(id) != "" {
				ids = append(ids, id)
			}
		}
		return ids
	case []any:
		var ids []string
		for _, item := range v {
			if id, ok := item.(string); ok && strings.TrimSpace(id) != "" {
				ids = append(ids, id)
			}
		}
		return ids
	default:
		return nil
	}
}
