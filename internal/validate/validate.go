// Package validate runs the full consistency pass over a world: schema
// conformance of stored entities, referential integrity of their
// relationship maps, and predicate conformance of the triplet graph.
// Violations are reported, never repaired.
package validate

import (
	"fmt"
	"strings"

	"fableforge/internal/config"
	"fableforge/internal/store"
	"fableforge/internal/world"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeBrokenReference         = "broken_reference"
	codeMissingRequiredRef      = "missing_required_reference"
	codeCardinalityViolation    = "cardinality_violation"
	codeUnknownEntityType       = "unknown_entity_type"
	codeUnknownRelationshipType = "unknown_relationship_type"
)

type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Entity   string   `json:"entity,omitempty"`
}

type Report struct {
	Issues []Issue `json:"issues"`
}

// Valid reports whether the world has no error-severity issues. Warnings
// do not fail a world.
func (r *Report) Valid() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return false
		}
	}
	return true
}

func (r *Report) Errors() []Issue {
	var errors []Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			errors = append(errors, issue)
		}
	}
	return errors
}

// Run validates the whole world against its schema. The schema may be nil,
// in which case only referential integrity is checked.
func Run(w *world.World) (*Report, error) {
	if w == nil {
		return nil, fmt.Errorf("world is required")
	}

	issues := make([]Issue, 0)

	for _, link := range w.Analyzer.ValidateAllRelationships().BrokenLinks {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     codeBrokenReference,
			Message:  fmt.Sprintf("references missing %s/%s", link.ToType, link.ToID),
			Entity:   link.From.Type + "/" + link.From.ID,
		})
	}

	if w.Schema != nil {
		for _, e := range w.Store.All() {
			issues = append(issues, validateEntity(w.Schema, e)...)
		}
		issues = append(issues, validatePredicates(w)...)
	}

	return &Report{Issues: issues}, nil
}

func validateEntity(schema *config.Schema, e *store.Entity) []Issue {
	entityType, ok := schema.EntityTypeByName(e.Type)
	if !ok {
		return []Issue{{
			Severity: SeverityWarn,
			Code:     codeUnknownEntityType,
			Message:  fmt.Sprintf("entity type %q is not declared in the schema", e.Type),
			Entity:   e.Type + "/" + e.ID,
		}}
	}

	var issues []Issue
	for _, reference := range entityType.References {
		if reference.Contextual {
			continue
		}
		count := 0
		for _, target := range reference.TargetTypes {
			count += len(e.Relationships[strings.ToLower(target)])
		}
		if reference.Required && count == 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeMissingRequiredRef,
				Message:  fmt.Sprintf("required reference %q has no target", reference.Field),
				Entity:   e.Type + "/" + e.ID,
			})
		}
		if reference.Cardinality == config.CardinalityOne && count > 1 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeCardinalityViolation,
				Message:  fmt.Sprintf("reference %q allows one target, found %d", reference.Field, count),
				Entity:   e.Type + "/" + e.ID,
			})
		}
	}
	return issues
}

// validatePredicates flags triplet predicates absent from the schema's
// relationship types. Graphs are schema-free by design, so these are
// warnings rather than errors.
func validatePredicates(w *world.World) []Issue {
	var issues []Issue
	for _, triplet := range w.Graph.Export() {
		if _, ok := w.Schema.RelationshipTypeByName(triplet.Predicate); ok {
			continue
		}
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeUnknownRelationshipType,
			Message:  fmt.Sprintf("predicate %q is not declared in the schema", triplet.Predicate),
			Entity:   triplet.Subject.String(),
		})
	}
	return issues
}
