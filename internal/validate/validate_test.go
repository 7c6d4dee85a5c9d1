package validate

import (
	"testing"

	"fableforge/internal/config"
	"fableforge/internal/graph"
	"fableforge/internal/store"
	"fableforge/internal/world"
)

const testSchema = `
version: 1
entity_types:
  - name: faction
  - name: npc
    depends_on: [faction]
    references:
      - field: faction_id
        relationship: member_of
        target_types: [faction]
        cardinality: one
        required: true
relationship_types:
  - name: member_of
    inverse: has_member
`

func testWorld(t *testing.T) *world.World {
	t.Helper()
	schema, err := config.ParseSchema([]byte(testSchema))
	if err != nil {
		t.Fatalf("parsing schema: %v", err)
	}
	return world.New(schema, nil)
}

func issueCodes(report *Report) map[string]int {
	codes := map[string]int{}
	for _, issue := range report.Issues {
		codes[issue.Code]++
	}
	return codes
}

func TestRunCleanWorld(t *testing.T) {
	w := testWorld(t)
	w.Store.Put(&store.Entity{ID: "f1", Type: "faction"})
	w.Store.Put(&store.Entity{ID: "n1", Type: "npc", Relationships: store.Refs{"faction": {"f1"}}})
	w.Link(graph.EntityRef{Type: "npc", ID: "n1"}, "member_of", graph.EntityRef{Type: "faction", ID: "f1"}, nil)

	report, err := Run(w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Valid() || len(report.Issues) != 0 {
		t.Errorf("clean world reported issues: %+v", report.Issues)
	}
}

func TestRunBrokenReference(t *testing.T) {
	w := testWorld(t)
	w.Store.Put(&store.Entity{ID: "n1", Type: "npc", Relationships: store.Refs{"faction": {"ghost"}}})

	report, err := Run(w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Valid() {
		t.Fatal("dangling reference not reported as error")
	}
	if issueCodes(report)["broken_reference"] != 1 {
		t.Errorf("issues = %+v", report.Issues)
	}
}

func TestRunMissingRequiredReference(t *testing.T) {
	w := testWorld(t)
	w.Store.Put(&store.Entity{ID: "n1", Type: "npc"})

	report, err := Run(w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issueCodes(report)["missing_required_reference"] != 1 {
		t.Errorf("issues = %+v", report.Issues)
	}
	if report.Valid() {
		t.Error("missing required reference must be an error")
	}
}

func TestRunCardinalityViolation(t *testing.T) {
	w := testWorld(t)
	w.Store.Put(&store.Entity{ID: "f1", Type: "faction"})
	w.Store.Put(&store.Entity{ID: "f2", Type: "faction"})
	w.Store.Put(&store.Entity{ID: "n1", Type: "npc", Relationships: store.Refs{"faction": {"f1", "f2"}}})

	report, err := Run(w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issueCodes(report)["cardinality_violation"] != 1 {
		t.Errorf("issues = %+v", report.Issues)
	}
}

func TestRunWarningsDoNotFail(t *testing.T) {
	w := testWorld(t)
	w.Store.Put(&store.Entity{ID: "x1", Type: "artifact"})
	w.Graph.Add(graph.Triplet{
		Subject:   graph.EntityRef{Type: "artifact", ID: "x1"},
		Predicate: "cursed_by",
		Object:    graph.EntityRef{Type: "npc", ID: "n9"},
	})

	report, err := Run(w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	codes := issueCodes(report)
	if codes["unknown_entity_type"] != 1 || codes["unknown_relationship_type"] != 1 {
		t.Errorf("issues = %+v", report.Issues)
	}
	if !report.Valid() {
		t.Error("warnings alone must not invalidate the world")
	}
	if len(report.Errors()) != 0 {
		t.Errorf("Errors() = %+v, want none", report.Errors())
	}
}

func TestRunWithoutSchema(t *testing.T) {
	w := world.New(nil, nil)
	w.Store.Put(&store.Entity{ID: "n1", Type: "npc", Relationships: store.Refs{"faction": {"ghost"}}})

	report, err := Run(w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	codes := issueCodes(report)
	if codes["broken_reference"] != 1 || len(report.Issues) != 1 {
		t.Errorf("schema-free run reported: %+v", report.Issues)
	}
}
