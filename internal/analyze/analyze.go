// Package analyze answers "what breaks, what must regenerate" questions
// over the entity store's denormalized relationship maps.
package analyze

import (
	"sort"

	"github.com/charmbracelet/log"

	"fableforge/internal/gen"
	"fableforge/internal/store"
)

// Analyzer computes affected sets and dependency chains from per-entity
// reference maps and validates referential integrity across the store.
// It reads the store's Relationships fields, never the triplet graph.
type Analyzer struct {
	store       *store.Store
	registry    gen.Registry
	generator   gen.Generator
	logger      *log.Logger
	concurrency int
}

type Option func(*Analyzer)

// WithRegistry supplies the schema registry used by validated edits.
func WithRegistry(registry gen.Registry) Option {
	return func(a *Analyzer) { a.registry = registry }
}

// WithGenerator supplies the content generator used by RegenerateAffected.
func WithGenerator(generator gen.Generator) Option {
	return func(a *Analyzer) { a.generator = generator }
}

func WithLogger(logger *log.Logger) Option {
	return func(a *Analyzer) { a.logger = logger }
}

// WithConcurrency bounds parallel generator calls during regeneration.
func WithConcurrency(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

func New(st *store.Store, opts ...Option) *Analyzer {
	a := &Analyzer{store: st, concurrency: 1}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Affected classifies the entities touched by a change. Direct entities
// reference the changed one; indirect entities reference a direct one and
// are not themselves direct. All lists direct first, then indirect, no
// duplicates.
type Affected struct {
	Direct   []store.Ref `json:"direct"`
	Indirect []store.Ref `json:"indirect"`
	All      []store.Ref `json:"all"`
}

// AffectedEntities computes the two-hop affected set of editing
// (entityType, id). The expansion is deliberately not transitive: a
// third-hop cascade is only found by calling again on the results.
func (a *Analyzer) AffectedEntities(entityType, id string) Affected {
	target := store.Ref{Type: entityType, ID: id}
	entities := a.store.All()

	var affected Affected
	directSet := make(map[store.Ref]struct{})
	for _, e := range entities {
		if e.Ref() == target {
			continue
		}
		if references(e, target) {
			affected.Direct = append(affected.Direct, e.Ref())
			directSet[e.Ref()] = struct{}{}
		}
	}

	for _, e := range entities {
		if e.Ref() == target {
			continue
		}
		if _, isDirect := directSet[e.Ref()]; isDirect {
			continue
		}
		for direct := range directSet {
			if references(e, direct) {
				affected.Indirect = append(affected.Indirect, e.Ref())
				break
			}
		}
	}

	affected.All = append(append([]store.Ref(nil), affected.Direct...), affected.Indirect...)
	return affected
}

// DependencyChain walks forward along relationship references and returns
// every entity the given one transitively depends on, depth-first. The
// visited set guarantees termination when the reference graph has cycles.
// The starting entity itself is not part of the chain; references to
// absent entities are skipped (integrity violations are ValidateAll's job).
func (a *Analyzer) DependencyChain(entityType, id string) []*store.Entity {
	start, ok := a.store.Get(entityType, id)
	if !ok {
		return nil
	}

	visited := map[store.Ref]struct{}{start.Ref(): {}}
	var chain []*store.Entity

	var walk func(e *store.Entity)
	walk = func(e *store.Entity) {
		for _, relatedType := range sortedKeys(e.Relationships) {
			for _, refID := range e.Relationships[relatedType] {
				ref := store.Ref{Type: relatedType, ID: refID}
				if _, seen := visited[ref]; seen {
					continue
				}
				visited[ref] = struct{}{}
				dep, ok := a.store.Get(ref.Type, ref.ID)
				if !ok {
					continue
				}
				chain = append(chain, dep)
				walk(dep)
			}
		}
	}
	walk(start)

	return chain
}

// BrokenLink is one reference that does not resolve to a stored entity.
type BrokenLink struct {
	From   store.Ref `json:"from"`
	ToType string    `json:"to_type"`
	ToID   string    `json:"to_id"`
}

// IntegrityReport is the outcome of a full referential-integrity scan.
// A violation is reported, never raised or self-healed.
type IntegrityReport struct {
	Valid       bool         `json:"valid"`
	BrokenLinks []BrokenLink `json:"broken_links"`
}

// ValidateAllRelationships visits every entity and every reference exactly
// once and reports each dangling (type, id).
func (a *Analyzer) ValidateAllRelationships() IntegrityReport {
	report := IntegrityReport{Valid: true, BrokenLinks: []BrokenLink{}}
	for _, e := range a.store.All() {
		for _, relatedType := range sortedKeys(e.Relationships) {
			for _, refID := range e.Relationships[relatedType] {
				if _, ok := a.store.Get(relatedType, refID); ok {
					continue
				}
				report.Valid = false
				report.BrokenLinks = append(report.BrokenLinks, BrokenLink{
					From:   e.Ref(),
					ToType: relatedType,
					ToID:   refID,
				})
			}
		}
	}
	return report
}

func references(e *store.Entity, target store.Ref) bool {
	return e.Relationships[target.Type].Contains(target.ID)
}

func sortedKeys(refs store.Refs) []string {
	keys := make([]string, 0, len(refs))
	for key := range refs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
