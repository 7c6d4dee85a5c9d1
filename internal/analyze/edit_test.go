package analyze

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"fableforge/internal/store"
)

// mockRegistry rejects payloads whose type is listed in reject.
type mockRegistry struct {
	reject map[string]bool
	calls  int
}

func (m *mockRegistry) Validate(entityType string, payload map[string]any) (map[string]any, error) {
	m.calls++
	if m.reject[entityType] {
		return nil, fmt.Errorf("payload rejected for %s", entityType)
	}
	return payload, nil
}

func (m *mockRegistry) DependenciesOf(entityType string) []string { return nil }

func TestEditEntityMerge(t *testing.T) {
	st := store.New()
	st.Put(&store.Entity{
		ID: "n1", Type: "npc",
		Data:          store.Payload{"name": "Mira", "level": 3},
		Relationships: store.Refs{"zone": {"z1"}},
	})
	a := New(st)

	result, err := a.EditEntity(context.Background(), "npc", "n1", store.Payload{"level": 4}, EditOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := st.Get("npc", "n1")
	if stored.Data["level"] != 4 || stored.Data["name"] != "Mira" {
		t.Errorf("merge wrong: %v", stored.Data)
	}
	if stored.Metadata.LastEditedAt == nil {
		t.Error("LastEditedAt not refreshed")
	}
	if !reflect.DeepEqual(stored.Relationships, store.Refs{"zone": {"z1"}}) {
		t.Errorf("relationships not preserved: %v", stored.Relationships)
	}
	if result.Affected != nil {
		t.Error("affected computed without TrackAffected")
	}
}

func TestEditEntityNotFound(t *testing.T) {
	a := New(store.New())
	_, err := a.EditEntity(context.Background(), "npc", "ghost", store.Payload{"x": 1}, EditOptions{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestEditEntityValidationFailureIsAtomic(t *testing.T) {
	st := store.New()
	st.Put(&store.Entity{ID: "n1", Type: "npc", Data: store.Payload{"name": "Mira"}})
	registry := &mockRegistry{reject: map[string]bool{"npc": true}}
	a := New(st, WithRegistry(registry))

	_, err := a.EditEntity(context.Background(), "npc", "n1", store.Payload{"name": "Broken"}, EditOptions{Validate: true})
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}
	if registry.calls != 1 {
		t.Errorf("registry called %d times, want 1", registry.calls)
	}

	stored, _ := st.Get("npc", "n1")
	if stored.Data["name"] != "Mira" {
		t.Error("rejected edit mutated the stored entity")
	}
	if stored.Metadata.LastEditedAt != nil {
		t.Error("rejected edit stamped LastEditedAt")
	}
	if len(st.History()) != 1 {
		t.Error("rejected edit appended to history")
	}
}

func TestEditEntityValidateWithoutRegistry(t *testing.T) {
	st := store.New()
	st.Put(&store.Entity{ID: "n1", Type: "npc"})
	a := New(st)

	if _, err := a.EditEntity(context.Background(), "npc", "n1", nil, EditOptions{Validate: true}); err == nil {
		t.Error("expected error when validation requested without a registry")
	}
}

func TestEditEntityTrackAffected(t *testing.T) {
	st := chainStore()
	a := New(st)

	result, err := a.EditEntity(context.Background(), "faction", "c", store.Payload{"renamed": true}, EditOptions{TrackAffected: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Affected == nil {
		t.Fatal("affected set not computed")
	}
	if len(result.Affected.Direct) != 1 || len(result.Affected.Indirect) != 1 {
		t.Errorf("affected = %+v", result.Affected)
	}
}

func TestBulkEditPartialFailure(t *testing.T) {
	st := store.New()
	st.Put(&store.Entity{ID: "n1", Type: "npc", Data: store.Payload{"v": 1}})
	st.Put(&store.Entity{ID: "n2", Type: "npc", Data: store.Payload{"v": 1}})
	a := New(st)

	outcomes := a.BulkEdit(context.Background(), []Edit{
		{Type: "npc", ID: "n1", Updates: store.Payload{"v": 2}},
		{Type: "npc", ID: "ghost", Updates: store.Payload{"v": 2}},
		{Type: "npc", ID: "n2", Updates: store.Payload{"v": 2}},
	}, EditOptions{})

	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}
	if outcomes[0].Err != nil || outcomes[2].Err != nil {
		t.Error("valid edits failed")
	}
	if !errors.Is(outcomes[1].Err, ErrNotFound) {
		t.Errorf("outcomes[1].Err = %v, want ErrNotFound", outcomes[1].Err)
	}

	// The failing middle item must not roll back its neighbors.
	for _, id := range []string{"n1", "n2"} {
		stored, _ := st.Get("npc", id)
		if stored.Data["v"] != 2 {
			t.Errorf("edit to %s not committed", id)
		}
	}
}
