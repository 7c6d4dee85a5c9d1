package graph

import (
	"math/rand"
	"sort"
	"sync"
	"time"
)

// Graph is an in-memory triplet store with by-subject, by-object, and
// by-predicate indices. Every triplet present in the flat list is present
// in all three indices and vice versa; mutation happens under a single
// write lock so readers never observe a partially updated index.
type Graph struct {
	mu          sync.RWMutex
	triplets    []*Triplet
	bySubject   map[string][]*Triplet
	byObject    map[string][]*Triplet
	byPredicate map[string][]*Triplet
	rng         *rand.Rand
}

type Option func(*Graph)

// WithRand replaces the random source used by SampleWeighted and LootDrops.
// Tests pass a seeded source to make rolls reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(g *Graph) {
		g.rng = rng
	}
}

func New(opts ...Option) *Graph {
	g := &Graph{
		bySubject:   make(map[string][]*Triplet),
		byObject:    make(map[string][]*Triplet),
		byPredicate: make(map[string][]*Triplet),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Add appends a triplet and updates all three indices.
func (g *Graph) Add(t Triplet) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.add(t)
}

// AddAll appends a batch of triplets under one lock acquisition.
func (g *Graph) AddAll(triplets []Triplet) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, t := range triplets {
		g.add(t)
	}
}

func (g *Graph) add(t Triplet) {
	stored := t
	g.triplets = append(g.triplets, &stored)
	g.bySubject[t.Subject.Key()] = append(g.bySubject[t.Subject.Key()], &stored)
	g.byObject[t.Object.Key()] = append(g.byObject[t.Object.Key()], &stored)
	g.byPredicate[t.Predicate] = append(g.byPredicate[t.Predicate], &stored)
}

// Clear empties the flat list and all three indices together.
func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.triplets = nil
	g.bySubject = make(map[string][]*Triplet)
	g.byObject = make(map[string][]*Triplet)
	g.byPredicate = make(map[string][]*Triplet)
}

// Export returns a copy of every triplet in insertion order.
func (g *Graph) Export() []Triplet {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Triplet, 0, len(g.triplets))
	for _, t := range g.triplets {
		out = append(out, *t)
	}
	return out
}

// Import clears the graph and re-adds the given triplets, rebuilding the
// indices from scratch.
func (g *Graph) Import(triplets []Triplet) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.triplets = nil
	g.bySubject = make(map[string][]*Triplet)
	g.byObject = make(map[string][]*Triplet)
	g.byPredicate = make(map[string][]*Triplet)
	for _, t := range triplets {
		g.add(t)
	}
}

// Len reports the number of triplets in the graph.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.triplets)
}

// Stats summarizes the graph contents.
type Stats struct {
	Triplets    int            `json:"triplets"`
	Entities    int            `json:"entities"`
	EntityTypes []string       `json:"entity_types"`
	Predicates  map[string]int `json:"predicates"`
}

func (g *Graph) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	types := make(map[string]struct{})
	entities := make(map[string]struct{})
	predicates := make(map[string]int)
	for _, t := range g.triplets {
		types[t.Subject.Type] = struct{}{}
		types[t.Object.Type] = struct{}{}
		entities[t.Subject.Key()] = struct{}{}
		entities[t.Object.Key()] = struct{}{}
		predicates[t.Predicate]++
	}

	typeNames := make([]string, 0, len(types))
	for name := range types {
		typeNames = append(typeNames, name)
	}
	sort.Strings(typeNames)

	return Stats{
		Triplets:    len(g.triplets),
		Entities:    len(entities),
		EntityTypes: typeNames,
		Predicates:  predicates,
	}
}
