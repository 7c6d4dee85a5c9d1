package world

import (
	"reflect"
	"testing"

	"fableforge/internal/graph"
	"fableforge/internal/store"
)

func testWorld() *World {
	return New(nil, nil)
}

func TestLinkMirrorsRelationship(t *testing.T) {
	w := testWorld()
	w.Store.Put(&store.Entity{ID: "n1", Type: "npc"})

	npc := graph.EntityRef{Type: "npc", ID: "n1"}
	faction := graph.EntityRef{Type: "faction", ID: "f1"}
	w.Link(npc, "member_of", faction, nil)

	if got := w.Graph.FindBySubject("npc", "n1"); len(got) != 1 {
		t.Fatalf("graph has %d triplets for npc/n1, want 1", len(got))
	}
	entity, _ := w.Store.Get("npc", "n1")
	if !entity.Relationships["faction"].Contains("f1") {
		t.Errorf("relationship not mirrored onto entity: %v", entity.Relationships)
	}

	// Linking the same pair again must not duplicate the mirror.
	w.Link(npc, "allied_with", faction, nil)
	entity, _ = w.Store.Get("npc", "n1")
	if len(entity.Relationships["faction"]) != 1 {
		t.Errorf("mirror duplicated: %v", entity.Relationships["faction"])
	}
	if w.Graph.Len() != 2 {
		t.Errorf("graph has %d triplets, want both predicates", w.Graph.Len())
	}
}

func TestLinkUnknownSubject(t *testing.T) {
	w := testWorld()
	w.Link(graph.EntityRef{Type: "npc", ID: "ghost"}, "knows", graph.EntityRef{Type: "npc", ID: "other"}, nil)

	if w.Graph.Len() != 1 {
		t.Error("triplet dropped for absent subject entity")
	}
	if w.Store.Count() != 0 {
		t.Error("absent subject materialized in the store")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	w := testWorld()
	w.Store.SetWorldValue("theme", "frontier")
	w.Store.Put(&store.Entity{ID: "n1", Type: "npc", Data: store.Payload{"name": "Mira"}})
	w.Link(graph.EntityRef{Type: "npc", ID: "n1"}, "lives_in", graph.EntityRef{Type: "zone", ID: "z1"},
		&graph.Metadata{Schedule: graph.String("night")})

	doc := w.Export()

	restored := testWorld()
	restored.Store.SetWorldValue("stale", true)
	restored.Import(doc)

	if !reflect.DeepEqual(restored.Store.WorldContext(), map[string]any{"theme": "frontier"}) {
		t.Errorf("world context = %v", restored.Store.WorldContext())
	}
	entity, ok := restored.Store.Get("npc", "n1")
	if !ok || entity.Data["name"] != "Mira" {
		t.Fatalf("entity lost in round trip: %v", entity)
	}
	triplets := restored.Graph.FindByPredicate("lives_in")
	if len(triplets) != 1 || triplets[0].Metadata == nil || *triplets[0].Metadata.Schedule != "night" {
		t.Errorf("triplet metadata lost: %v", triplets)
	}
}
