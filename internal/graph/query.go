package graph

import "fmt"

// Direction selects which edges Related follows.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
	DirectionBoth     Direction = "both"
)

// FindBySubject returns every triplet whose subject is (entityType, id).
// The result is empty, never nil-checked by callers, when nothing matches.
func (g *Graph) FindBySubject(entityType, id string) []Triplet {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return copyTriplets(g.bySubject[EntityRef{Type: entityType, ID: id}.Key()])
}

// FindByObject returns every triplet whose object is (entityType, id).
func (g *Graph) FindByObject(entityType, id string) []Triplet {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return copyTriplets(g.byObject[EntityRef{Type: entityType, ID: id}.Key()])
}

// FindByPredicate returns every triplet carrying the given predicate.
func (g *Graph) FindByPredicate(predicate string) []Triplet {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return copyTriplets(g.byPredicate[predicate])
}

// Criteria is a partial filter over triplet fields. Zero-value fields are
// unconstrained. Metadata keys use the canonical wire names
// ("level_required", "weight", ...) and match exactly: a triplet without
// the key does not match.
type Criteria struct {
	SubjectType string
	SubjectID   string
	Predicate   string
	ObjectType  string
	ObjectID    string
	Metadata    map[string]any
}

// Find starts from the most selective available index (subject, then
// object, then predicate, else a full scan) and applies the remaining
// criteria by linear filtering.
func (g *Graph) Find(criteria Criteria) []Triplet {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var candidates []*Triplet
	switch {
	case criteria.SubjectType != "" && criteria.SubjectID != "":
		candidates = g.bySubject[EntityRef{Type: criteria.SubjectType, ID: criteria.SubjectID}.Key()]
	case criteria.ObjectType != "" && criteria.ObjectID != "":
		candidates = g.byObject[EntityRef{Type: criteria.ObjectType, ID: criteria.ObjectID}.Key()]
	case criteria.Predicate != "":
		candidates = g.byPredicate[criteria.Predicate]
	default:
		candidates = g.triplets
	}

	results := make([]Triplet, 0)
	for _, t := range candidates {
		if !matches(t, criteria) {
			continue
		}
		results = append(results, *t)
	}
	return results
}

func matches(t *Triplet, criteria Criteria) bool {
	if criteria.SubjectType != "" && t.Subject.Type != criteria.SubjectType {
		return false
	}
	if criteria.SubjectID != "" && t.Subject.ID != criteria.SubjectID {
		return false
	}
	if criteria.Predicate != "" && t.Predicate != criteria.Predicate {
		return false
	}
	if criteria.ObjectType != "" && t.Object.Type != criteria.ObjectType {
		return false
	}
	if criteria.ObjectID != "" && t.Object.ID != criteria.ObjectID {
		return false
	}
	for key, want := range criteria.Metadata {
		got, ok := t.Metadata.value(key)
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// Related returns the entity refs reachable from ref over one hop,
// following outgoing edges, incoming edges, or both. An empty predicate
// matches every relationship type.
func (g *Graph) Related(ref EntityRef, predicate string, direction Direction) ([]EntityRef, error) {
	switch direction {
	case DirectionOutgoing:
		var refs []EntityRef
		for _, t := range g.Find(Criteria{SubjectType: ref.Type, SubjectID: ref.ID, Predicate: predicate}) {
			refs = append(refs, t.Object)
		}
		return refs, nil
	case DirectionIncoming:
		var refs []EntityRef
		for _, t := range g.Find(Criteria{ObjectType: ref.Type, ObjectID: ref.ID, Predicate: predicate}) {
			refs = append(refs, t.Subject)
		}
		return refs, nil
	case DirectionBoth, "":
		outgoing, _ := g.Related(ref, predicate, DirectionOutgoing)
		incoming, _ := g.Related(ref, predicate, DirectionIncoming)
		return append(outgoing, incoming...), nil
	default:
		return nil, fmt.Errorf("invalid direction: %s", direction)
	}
}

func copyTriplets(triplets []*Triplet) []Triplet {
	out := make([]Triplet, 0, len(triplets))
	for _, t := range triplets {
		out = append(out, *t)
	}
	return out
}

// valuesEqual compares a stored metadata value against a criteria value,
// folding all numeric types together so a criteria int matches a stored
// float and vice versa.
func valuesEqual(got, want any) bool {
	if gf, ok := asFloat(got); ok {
		wf, ok := asFloat(want)
		return ok && gf == wf
	}
	switch gv := got.(type) {
	case string:
		wv, ok := want.(string)
		return ok && gv == wv
	case bool:
		wv, ok := want.(bool)
		return ok && gv == wv
	case []string:
		wv, ok := want.([]string)
		if !ok || len(gv) != len(wv) {
			return false
		}
		for i := range gv {
			if gv[i] != wv[i] {
				return false
			}
		}
		return true
	default:
		return got == want
	}
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
