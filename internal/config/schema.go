package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Schema is the static, user-declared relation schema: which entity types
// exist, which payload fields reference other types, and what relationship
// types those references author. The graph engine never consults it; the
// validator and the generation pipeline do.
type Schema struct {
	Version           int                `yaml:"version"`
	EntityTypes       []EntityType       `yaml:"entity_types"`
	RelationshipTypes []RelationshipType `yaml:"relationship_types"`

	entityIndex map[string]*EntityType
	relIndex    map[string]*RelationshipType
}

type EntityType struct {
	Name       string      `yaml:"name"`
	DependsOn  []string    `yaml:"depends_on"`
	References []Reference `yaml:"references"`
}

// Reference declares one payload field that points at other entities.
// Cardinality is "one" or "many". Required references must resolve for the
// record to be well formed; contextual references only inform generation.
type Reference struct {
	Field        string   `yaml:"field"`
	Relationship string   `yaml:"relationship"`
	TargetTypes  []string `yaml:"target_types"`
	Cardinality  string   `yaml:"cardinality"`
	Required     bool     `yaml:"required"`
	Contextual   bool     `yaml:"contextual"`
}

type RelationshipType struct {
	Name      string `yaml:"name"`
	Inverse   string `yaml:"inverse"`
	Symmetric bool   `yaml:"symmetric"`
}

const (
	CardinalityOne  = "one"
	CardinalityMany = "many"
)

func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}
	return ParseSchema(data)
}

func ParseSchema(data []byte) (*Schema, error) {
	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	if err := validateSchema(&schema); err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	schema.entityIndex = make(map[string]*EntityType)
	for i := range schema.EntityTypes {
		entity := &schema.EntityTypes[i]
		schema.entityIndex[strings.ToLower(entity.Name)] = entity
	}

	schema.relIndex = make(map[string]*RelationshipType)
	for i := range schema.RelationshipTypes {
		rel := &schema.RelationshipTypes[i]
		schema.relIndex[strings.ToLower(rel.Name)] = rel
	}

	return &schema, nil
}

func validateSchema(s *Schema) error {
	if s.Version != 1 {
		return fmt.Errorf("unsupported version: %d", s.Version)
	}
	if len(s.EntityTypes) == 0 {
		return fmt.Errorf("at least one entity type is required")
	}

	entityNames := make(map[string]struct{})
	for i, entity := range s.EntityTypes {
		if strings.TrimSpace(entity.Name) == "" {
			return fmt.Errorf("entity type %d name is required", i)
		}
		key := strings.ToLower(entity.Name)
		if _, exists := entityNames[key]; exists {
			return fmt.Errorf("duplicate entity type name: %s", entity.Name)
		}
		entityNames[key] = struct{}{}

		fieldNames := make(map[string]struct{})
		for _, reference := range entity.References {
			field := strings.ToLower(strings.TrimSpace(reference.Field))
			if field == "" {
				return fmt.Errorf("entity type %s has reference with empty field", entity.Name)
			}
			if _, exists := fieldNames[field]; exists {
				return fmt.Errorf("entity type %s has duplicate reference field: %s", entity.Name, reference.Field)
			}
			fieldNames[field] = struct{}{}
			if len(reference.TargetTypes) == 0 {
				return fmt.Errorf("entity type %s reference %s has no target types", entity.Name, reference.Field)
			}
			switch reference.Cardinality {
			case CardinalityOne, CardinalityMany:
			default:
				return fmt.Errorf("entity type %s reference %s has invalid cardinality: %s", entity.Name, reference.Field, reference.Cardinality)
			}
		}
	}

	relNames := make(map[string]struct{})
	for i, rel := range s.RelationshipTypes {
		if strings.TrimSpace(rel.Name) == "" {
			return fmt.Errorf("relationship type %d name is required", i)
		}
		key := strings.ToLower(rel.Name)
		if _, exists := relNames[key]; exists {
			return fmt.Errorf("duplicate relationship type name: %s", rel.Name)
		}
		relNames[key] = struct{}{}
	}

	return nil
}

func (s *Schema) EntityTypeByName(name string) (*EntityType, bool) {
	entity, ok := s.entityIndex[strings.ToLower(name)]
	return entity, ok
}

func (s *Schema) RelationshipTypeByName(name string) (*RelationshipType, bool) {
	rel, ok := s.relIndex[strings.ToLower(name)]
	return rel, ok
}

// DependenciesOf returns the declared dependencies of an entity type, or
// nil when the type is unknown.
func (s *Schema) DependenciesOf(entityType string) []string {
	entity, ok := s.EntityTypeByName(entityType)
	if !ok {
		return nil
	}
	return append([]string(nil), entity.DependsOn...)
}

// GenerationOrder topologically sorts the entity types by their declared
// dependencies so dependencies are generated before their dependents.
// A dependency cycle is an error naming one type on the cycle.
func (s *Schema) GenerationOrder() ([]string, error) {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)

	state := make(map[string]int, len(s.EntityTypes))
	var order []string

	var visit func(name string) error
	visit = func(name string) error {
		key := strings.ToLower(name)
		switch state[key] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("dependency cycle through entity type %s", name)
		}
		state[key] = visiting

		if entity, ok := s.entityIndex[key]; ok {
			for _, dep := range entity.DependsOn {
				if _, known := s.entityIndex[strings.ToLower(dep)]; !known {
					return fmt.Errorf("entity type %s depends on unknown type %s", name, dep)
				}
				if err := visit(dep); err != nil {
					return err
				}
			}
			order = append(order, entity.Name)
		}
		state[key] = done
		return nil
	}

	for _, entity := range s.EntityTypes {
		if err := visit(entity.Name); err != nil {
			return nil, err
		}
	}
	return order, nil
}
