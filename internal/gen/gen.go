// Package gen defines the external-collaborator contracts the consistency
// engine invokes: the content generator that produces candidate payloads
// and the schema registry that validates them.
package gen

import (
	"context"
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Links carries an entity's prior relationship hints into a regeneration
// call: related entity type to referenced ids.
type Links map[string][]string

// Generator produces a candidate payload for one entity. Implementations
// must keep the returned payload consistent with the prior links so
// regeneration does not sever existing relationships.
type Generator interface {
	Generate(ctx context.Context, entityType, id string, priorLinks Links) (map[string]any, error)
}

// Registry supplies per-type structural contracts. Validate returns the
// (possibly normalized) payload or an error describing the rejection.
type Registry interface {
	Validate(entityType string, payload map[string]any) (map[string]any, error)
	DependenciesOf(entityType string) []string
}

const idLength = 12

// NewID mints an entity id prefixed with the lowercased type name.
func NewID(entityType string) (string, error) {
	id, err := gonanoid.New(idLength)
	if err != nil {
		return "", fmt.Errorf("generating entity id: %w", err)
	}
	return strings.ToLower(entityType) + "_" + id, nil
}
