package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fableforge/internal/graph"
	"fableforge/internal/store"
	"fableforge/internal/world"
)

func TestOpenRejectsUnknownScheme(t *testing.T) {
	if _, err := Open(context.Background(), "mysql://localhost/worlds"); err == nil {
		t.Error("expected error for unsupported scheme")
	}
}

func TestOpenBarePathIsSQLite(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "world.db"))
	if err != nil {
		t.Fatalf("opening bare path: %v", err)
	}
	defer s.Close(ctx)
	if _, ok := s.(*SQLite); !ok {
		t.Fatalf("Open returned %T, want *SQLite", s)
	}
}

func TestParseSQLiteDSN(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"sqlite://:memory:", ":memory:"},
		{"sqlite:///var/lib/worlds.db", "/var/lib/worlds.db"},
		{"sqlite://./worlds.db", "./worlds.db"},
		{"sqlite://worlds.db", "./worlds.db"},
		{"sqlite://worlds.db?cache=shared", "./worlds.db?cache=shared"},
	}
	for _, tt := range tests {
		got, err := parseSQLiteDSN(tt.dsn)
		if err != nil {
			t.Errorf("parseSQLiteDSN(%q): %v", tt.dsn, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSQLiteDSN(%q) = %q, want %q", tt.dsn, got, tt.want)
		}
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(ctx, "sqlite://:memory:")
	if err != nil {
		t.Fatalf("opening in-memory sqlite: %v", err)
	}
	defer s.Close(ctx)

	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := &world.Document{
		WorldContext: map[string]any{"theme": "frontier", "session": float64(3)},
		Entities: []*store.Entity{
			{
				ID: "n1", Type: "npc",
				Data:          store.Payload{"name": "Mira"},
				Relationships: store.Refs{"faction": {"f1"}},
				Metadata:      store.Metadata{CreatedAt: created},
			},
			{ID: "f1", Type: "faction", Data: store.Payload{"name": "Circle"}},
		},
		Triplets: []graph.Triplet{
			{
				Subject:   graph.EntityRef{Type: "npc", ID: "n1"},
				Predicate: "member_of",
				Object:    graph.EntityRef{Type: "faction", ID: "f1"},
				Metadata:  &graph.Metadata{Weight: graph.Float(2.5)},
			},
			{
				Subject:   graph.EntityRef{Type: "faction", ID: "f1"},
				Predicate: "controls",
				Object:    graph.EntityRef{Type: "zone", ID: "z1"},
			},
		},
	}

	if err := s.Save(ctx, doc); err != nil {
		t.Fatalf("saving: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("loading: %v", err)
	}

	if loaded.WorldContext["theme"] != "frontier" {
		t.Errorf("world context = %v", loaded.WorldContext)
	}
	if len(loaded.Entities) != 2 {
		t.Fatalf("got %d entities, want 2", len(loaded.Entities))
	}
	if loaded.Entities[0].ID != "n1" || loaded.Entities[1].ID != "f1" {
		t.Errorf("entity order not preserved: %v, %v", loaded.Entities[0].ID, loaded.Entities[1].ID)
	}
	npc := loaded.Entities[0]
	if npc.Data["name"] != "Mira" || !npc.Relationships["faction"].Contains("f1") {
		t.Errorf("entity payload lost: %+v", npc)
	}
	if !npc.Metadata.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", npc.Metadata.CreatedAt, created)
	}
	if len(loaded.Triplets) != 2 {
		t.Fatalf("got %d triplets, want 2", len(loaded.Triplets))
	}
	if loaded.Triplets[0].Metadata == nil || *loaded.Triplets[0].Metadata.Weight != 2.5 {
		t.Errorf("triplet metadata lost: %+v", loaded.Triplets[0].Metadata)
	}
	if loaded.Triplets[1].Metadata != nil {
		t.Errorf("nil metadata not preserved: %+v", loaded.Triplets[1].Metadata)
	}

	// Saving again replaces, never appends.
	if err := s.Save(ctx, doc); err != nil {
		t.Fatalf("re-saving: %v", err)
	}
	loaded, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("re-loading: %v", err)
	}
	if len(loaded.Entities) != 2 || len(loaded.Triplets) != 2 {
		t.Errorf("re-save duplicated rows: %d entities, %d triplets", len(loaded.Entities), len(loaded.Triplets))
	}
}
