package analyze

import (
	"testing"

	"fableforge/internal/store"
)

func entity(entityType, id string, relationships store.Refs) *store.Entity {
	return &store.Entity{
		ID:            id,
		Type:          entityType,
		Data:          store.Payload{"name": id},
		Relationships: relationships,
	}
}

// A references B, B references C.
func chainStore() *store.Store {
	st := store.New()
	st.Put(entity("quest", "a", store.Refs{"npc": {"b"}}))
	st.Put(entity("npc", "b", store.Refs{"faction": {"c"}}))
	st.Put(entity("faction", "c", nil))
	return st
}

func TestAffectedClassification(t *testing.T) {
	a := New(chainStore())

	affected := a.AffectedEntities("faction", "c")

	if len(affected.Direct) != 1 || affected.Direct[0] != (store.Ref{Type: "npc", ID: "b"}) {
		t.Errorf("Direct = %v, want [npc/b]", affected.Direct)
	}
	if len(affected.Indirect) != 1 || affected.Indirect[0] != (store.Ref{Type: "quest", ID: "a"}) {
		t.Errorf("Indirect = %v, want [quest/a]", affected.Indirect)
	}
	for _, ref := range affected.Direct {
		if ref == (store.Ref{Type: "quest", ID: "a"}) {
			t.Error("two-hop referencer classified as direct")
		}
	}
	if len(affected.All) != 2 || affected.All[0] != affected.Direct[0] || affected.All[1] != affected.Indirect[0] {
		t.Errorf("All = %v, want direct first then indirect", affected.All)
	}
}

func TestAffectedDirectWinsOverIndirect(t *testing.T) {
	st := store.New()
	// Both d and e reference c; d also references e, which would make it
	// indirect as well. Direct classification must win.
	st.Put(entity("faction", "c", nil))
	st.Put(entity("npc", "d", store.Refs{"faction": {"c"}, "npc": {"e"}}))
	st.Put(entity("npc", "e", store.Refs{"faction": {"c"}}))

	affected := New(st).AffectedEntities("faction", "c")
	if len(affected.Direct) != 2 {
		t.Fatalf("Direct = %v, want both npcs", affected.Direct)
	}
	if len(affected.Indirect) != 0 {
		t.Errorf("Indirect = %v, want empty", affected.Indirect)
	}
	seen := map[store.Ref]int{}
	for _, ref := range affected.All {
		seen[ref]++
	}
	for ref, count := range seen {
		if count > 1 {
			t.Errorf("%v appears %d times in All", ref, count)
		}
	}
}

func TestAffectedIsTwoHopOnly(t *testing.T) {
	st := store.New()
	st.Put(entity("item", "w", nil))
	st.Put(entity("enemy", "x", store.Refs{"item": {"w"}}))
	st.Put(entity("zone", "y", store.Refs{"enemy": {"x"}}))
	st.Put(entity("quest", "z", store.Refs{"zone": {"y"}}))

	affected := New(st).AffectedEntities("item", "w")
	for _, ref := range affected.All {
		if ref.Type == "quest" {
			t.Error("third hop leaked into affected set; expansion must stop at two hops")
		}
	}
}

func TestDependencyChainTransitive(t *testing.T) {
	a := New(chainStore())

	chain := a.DependencyChain("quest", "a")
	if len(chain) != 2 {
		t.Fatalf("chain has %d entities, want 2", len(chain))
	}
	if chain[0].Ref() != (store.Ref{Type: "npc", ID: "b"}) {
		t.Errorf("chain[0] = %v, want npc/b", chain[0].Ref())
	}
	if chain[1].Ref() != (store.Ref{Type: "faction", ID: "c"}) {
		t.Errorf("chain[1] = %v, want faction/c", chain[1].Ref())
	}
}

func TestDependencyChainTerminatesOnCycle(t *testing.T) {
	st := store.New()
	st.Put(entity("npc", "a", store.Refs{"npc": {"b"}}))
	st.Put(entity("npc", "b", store.Refs{"npc": {"a"}}))

	chain := New(st).DependencyChain("npc", "a")
	if len(chain) != 1 || chain[0].ID != "b" {
		t.Errorf("chain = %d entities, want just npc/b", len(chain))
	}
}

func TestDependencyChainMissingEntity(t *testing.T) {
	if chain := New(store.New()).DependencyChain("npc", "ghost"); chain != nil {
		t.Errorf("chain for absent entity = %v, want nil", chain)
	}
}

func TestValidateAllRelationships(t *testing.T) {
	st := store.New()
	st.Put(entity("npc", "b", store.Refs{"faction": {"missing"}}))
	a := New(st)

	report := a.ValidateAllRelationships()
	if report.Valid {
		t.Fatal("report valid despite dangling reference")
	}
	if len(report.BrokenLinks) != 1 {
		t.Fatalf("BrokenLinks = %v, want exactly one entry", report.BrokenLinks)
	}
	link := report.BrokenLinks[0]
	if link.From != (store.Ref{Type: "npc", ID: "b"}) || link.ToType != "faction" || link.ToID != "missing" {
		t.Errorf("unexpected broken link: %+v", link)
	}

	// Repairing the reference makes the store valid again.
	fixed := entity("npc", "b", nil)
	st.Put(fixed)
	if report := a.ValidateAllRelationships(); !report.Valid || len(report.BrokenLinks) != 0 {
		t.Errorf("report after repair: %+v", report)
	}
}
