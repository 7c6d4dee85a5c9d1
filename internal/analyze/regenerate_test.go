package analyze

import (
	"context"
	"testing"

	"fableforge/internal/gen"
	"fableforge/internal/store"
)

func TestRegenerateAffected(t *testing.T) {
	st := chainStore()
	generator := gen.NewStatic()
	generator.Set("npc", "b", map[string]any{"name": "b", "refreshed": true})
	a := New(st, WithGenerator(generator))

	affected := a.AffectedEntities("faction", "c")
	result, err := a.RegenerateAffected(context.Background(), affected, RegenerateOptions{IncludeDirect: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Regenerated) != 1 || result.Regenerated[0] != (store.Ref{Type: "npc", ID: "b"}) {
		t.Fatalf("Regenerated = %v", result.Regenerated)
	}
	if len(result.Failures) != 0 {
		t.Fatalf("Failures = %v", result.Failures)
	}

	regenerated, _ := st.Get("npc", "b")
	if regenerated.Data["refreshed"] != true {
		t.Error("payload not replaced")
	}
	if len(regenerated.Relationships["faction"]) != 1 {
		t.Error("prior relationships lost on regeneration")
	}
	if regenerated.Metadata.LastEditedAt == nil {
		t.Error("LastEditedAt not refreshed")
	}
}

func TestRegenerateFailureIsolation(t *testing.T) {
	st := store.New()
	st.Put(&store.Entity{ID: "target", Type: "faction"})
	st.Put(&store.Entity{ID: "ok", Type: "npc", Data: store.Payload{"v": 1},
		Relationships: store.Refs{"faction": {"target"}}})
	st.Put(&store.Entity{ID: "broken", Type: "npc", Data: store.Payload{"v": 1},
		Relationships: store.Refs{"faction": {"target"}}})

	generator := gen.NewStatic()
	generator.Set("npc", "ok", map[string]any{"v": 2})
	// No payload registered for npc/broken, so its call fails.
	a := New(st, WithGenerator(generator), WithConcurrency(4))

	affected := a.AffectedEntities("faction", "target")
	result, err := a.RegenerateAffected(context.Background(), affected, RegenerateOptions{})
	if err != nil {
		t.Fatalf("batch failed outright: %v", err)
	}

	if len(result.Regenerated) != 1 || result.Regenerated[0].ID != "ok" {
		t.Errorf("Regenerated = %v", result.Regenerated)
	}
	if len(result.Failures) != 1 || result.Failures[0].Ref.ID != "broken" {
		t.Errorf("Failures = %v", result.Failures)
	}

	// The sibling's failure must not corrupt the successful entity.
	regenerated, _ := st.Get("npc", "ok")
	if regenerated.Data["v"] != 2 {
		t.Error("successful regeneration not committed")
	}
	untouched, _ := st.Get("npc", "broken")
	if untouched.Data["v"] != 1 {
		t.Error("failed regeneration mutated its entity")
	}
}

func TestRegenerateIncludesIndirect(t *testing.T) {
	st := chainStore()
	generator := gen.NewStatic()
	generator.Set("npc", "b", map[string]any{"name": "b"})
	generator.Set("quest", "a", map[string]any{"name": "a"})
	a := New(st, WithGenerator(generator))

	affected := a.AffectedEntities("faction", "c")
	result, err := a.RegenerateAffected(context.Background(), affected, RegenerateOptions{
		IncludeDirect:   true,
		IncludeIndirect: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Regenerated) != 2 {
		t.Errorf("Regenerated = %v, want both hops", result.Regenerated)
	}
}

func TestRegenerateWithoutGenerator(t *testing.T) {
	a := New(store.New())
	if _, err := a.RegenerateAffected(context.Background(), Affected{}, RegenerateOptions{}); err == nil {
		t.Error("expected error without a generator")
	}
}
