package store

import (
	"sort"
	"sync"
	"time"
)

// HistoryEntry records one store mutation. The history log is append-only
// and chronological; it feeds context-building and audit, never rollback.
type HistoryEntry struct {
	Ref    Ref       `json:"ref"`
	Action string    `json:"action"`
	At     time.Time `json:"at"`
}

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// Store holds generated entities keyed by (type, id). It is the base of
// truth the graph and analyzer query. Entities go in and come out as deep
// copies, so a caller can never mutate stored state through a returned
// pointer.
type Store struct {
	mu      sync.RWMutex
	byType  map[string]map[string]*Entity
	order   map[string][]string
	history []HistoryEntry
	context map[string]any
	now     func() time.Time
}

func New() *Store {
	return &Store{
		byType:  make(map[string]map[string]*Entity),
		order:   make(map[string][]string),
		context: make(map[string]any),
		now:     time.Now,
	}
}

// Put inserts or overwrites the entity at its (type, id) and appends to the
// history log. No validation happens here; schema conformance is the
// registry's job before Put is called.
func (s *Store) Put(e *Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := e.Clone()
	if stored.Metadata.CreatedAt.IsZero() {
		stored.Metadata.CreatedAt = s.now()
	}

	entities, ok := s.byType[stored.Type]
	if !ok {
		entities = make(map[string]*Entity)
		s.byType[stored.Type] = entities
	}

	action := ActionCreated
	if _, exists := entities[stored.ID]; exists {
		action = ActionUpdated
	} else {
		s.order[stored.Type] = append(s.order[stored.Type], stored.ID)
	}
	entities[stored.ID] = stored

	s.history = append(s.history, HistoryEntry{Ref: stored.Ref(), Action: action, At: s.now()})
}

// Get returns a copy of the entity, or false when absent.
func (s *Store) Get(entityType, id string) (*Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byType[entityType][id]
	if !ok {
		return nil, false
	}
	return e.Clone(), true
}

// ByType returns the entities of one type in insertion order.
func (s *Store) ByType(entityType string) []*Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Entity, 0, len(s.order[entityType]))
	for _, id := range s.order[entityType] {
		out = append(out, s.byType[entityType][id].Clone())
	}
	return out
}

// All returns every entity, insertion-ordered within each type. Types are
// visited in sorted name order so iteration is deterministic.
func (s *Store) All() []*Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.byType))
	for entityType := range s.byType {
		types = append(types, entityType)
	}
	sort.Strings(types)

	var out []*Entity
	for _, entityType := range types {
		for _, id := range s.order[entityType] {
			out = append(out, s.byType[entityType][id].Clone())
		}
	}
	return out
}

// Types returns the entity types present, sorted.
func (s *Store) Types() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	types := make([]string, 0, len(s.byType))
	for entityType := range s.byType {
		types = append(types, entityType)
	}
	sort.Strings(types)
	return types
}

// Count reports the number of stored entities.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, entities := range s.byType {
		total += len(entities)
	}
	return total
}

// Clear drops all entities and the history log. The world context survives;
// it describes the project, not any one record. Sibling structures (graph,
// schema) are untouched.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byType = make(map[string]map[string]*Entity)
	s.order = make(map[string][]string)
	s.history = nil
}

// History returns a copy of the chronological mutation log.
func (s *Store) History() []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]HistoryEntry(nil), s.history...)
}

// WorldContext returns a copy of the free-form project context map.
func (s *Store) WorldContext() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.context))
	for key, value := range s.context {
		out[key] = value
	}
	return out
}

// SetWorldValue sets one world context key.
func (s *Store) SetWorldValue(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context[key] = value
}

// ReplaceWorldContext swaps the whole world context map.
func (s *Store) ReplaceWorldContext(context map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context = make(map[string]any, len(context))
	for key, value := range context {
		s.context[key] = value
	}
}
