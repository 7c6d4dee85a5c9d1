// Package world wires the entity store, triplet graph, and impact
// analyzer into one explicitly constructed aggregate. Callers hold a
// *World instead of reaching for shared module state.
package world

import (
	"fableforge/internal/analyze"
	"fableforge/internal/config"
	"fableforge/internal/graph"
	"fableforge/internal/store"
)

type World struct {
	Store    *store.Store
	Graph    *graph.Graph
	Schema   *config.Schema
	Analyzer *analyze.Analyzer
}

// New builds a world around a fresh store and graph. Analyzer options
// (registry, generator, logger) are forwarded as given.
func New(schema *config.Schema, graphOpts []graph.Option, analyzerOpts ...analyze.Option) *World {
	st := store.New()
	return &World{
		Store:    st,
		Graph:    graph.New(graphOpts...),
		Schema:   schema,
		Analyzer: analyze.New(st, analyzerOpts...),
	}
}

// Document is the persisted world layout: the free-form world context, the
// full entity set, and the flat triplet list. Round-trip fidelity up to
// ordering is the only guarantee it carries; there is no version field.
type Document struct {
	WorldContext map[string]any  `json:"world_context"`
	Entities     []*store.Entity `json:"entities"`
	Triplets     []graph.Triplet `json:"triplets"`
}

func (w *World) Export() *Document {
	return &Document{
		WorldContext: w.Store.WorldContext(),
		Entities:     w.Store.All(),
		Triplets:     w.Graph.Export(),
	}
}

// Import clears the store and graph, then rebuilds both from the document.
func (w *World) Import(doc *Document) {
	w.Store.Clear()
	w.Store.ReplaceWorldContext(doc.WorldContext)
	for _, e := range doc.Entities {
		w.Store.Put(e)
	}
	w.Graph.Import(doc.Triplets)
}

// Link authors an explicit relationship triplet and mirrors the reference
// onto the subject entity's denormalized relationship map, keeping the two
// views producers maintain in step. The subject entity may be absent (the
// graph does not check entity existence); the mirror is then skipped.
func (w *World) Link(subject graph.EntityRef, predicate string, object graph.EntityRef, metadata *graph.Metadata) {
	w.Graph.Add(graph.Triplet{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
		Metadata:  metadata,
	})

	entity, ok := w.Store.Get(subject.Type, subject.ID)
	if !ok {
		return
	}
	if entity.Relationships == nil {
		entity.Relationships = store.Refs{}
	}
	if entity.Relationships[object.Type].Contains(object.ID) {
		return
	}
	entity.Relationships[object.Type] = append(entity.Relationships[object.Type], object.ID)
	w.Store.Put(entity)
}
