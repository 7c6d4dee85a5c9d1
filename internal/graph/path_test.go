package graph

import "testing"

func TestFindPathSingle(t *testing.T) {
	g := New()
	g.AddAll([]Triplet{
		triplet(ref("quest", "q1"), "requires", ref("item", "key")),
		triplet(ref("item", "key"), "dropped_by", ref("enemy", "warden")),
	})

	paths := g.FindPath(ref("quest", "q1"), ref("enemy", "warden"), 5)
	if len(paths) != 1 {
		t.Fatalf("found %d paths, want 1", len(paths))
	}
	if len(paths[0]) != 2 {
		t.Fatalf("path length %d, want 2", len(paths[0]))
	}
	if paths[0][0].Predicate != "requires" || paths[0][1].Predicate != "dropped_by" {
		t.Errorf("unexpected path order: %v", paths[0])
	}
}

func TestFindPathMultiple(t *testing.T) {
	g := New()
	g.AddAll([]Triplet{
		triplet(ref("a", "1"), "to", ref("b", "1")),
		triplet(ref("a", "1"), "to", ref("c", "1")),
		triplet(ref("b", "1"), "to", ref("d", "1")),
		triplet(ref("c", "1"), "to", ref("d", "1")),
	})

	paths := g.FindPath(ref("a", "1"), ref("d", "1"), 5)
	if len(paths) != 2 {
		t.Fatalf("found %d paths, want 2", len(paths))
	}
}

func TestFindPathTerminatesOnCycle(t *testing.T) {
	g := New()
	g.AddAll([]Triplet{
		triplet(ref("a", "1"), "to", ref("b", "1")),
		triplet(ref("b", "1"), "to", ref("a", "1")),
		triplet(ref("b", "1"), "to", ref("c", "1")),
	})

	paths := g.FindPath(ref("a", "1"), ref("c", "1"), 5)
	if len(paths) != 1 {
		t.Fatalf("found %d paths, want 1", len(paths))
	}
	for _, path := range paths {
		seen := map[string]bool{"a:1": true}
		for _, hop := range path {
			if seen[hop.Object.Key()] {
				t.Fatalf("path repeats node %s", hop.Object)
			}
			seen[hop.Object.Key()] = true
		}
	}
}

func TestFindPathDepthBound(t *testing.T) {
	g := New()
	g.AddAll([]Triplet{
		triplet(ref("a", "1"), "to", ref("b", "1")),
		triplet(ref("b", "1"), "to", ref("c", "1")),
		triplet(ref("c", "1"), "to", ref("d", "1")),
	})

	if paths := g.FindPath(ref("a", "1"), ref("d", "1"), 2); len(paths) != 0 {
		t.Errorf("depth 2 found %d paths, want 0", len(paths))
	}
	if paths := g.FindPath(ref("a", "1"), ref("d", "1"), 3); len(paths) != 1 {
		t.Errorf("depth 3 found %d paths, want 1", len(paths))
	}
}

func TestFindPathNoRoute(t *testing.T) {
	g := New()
	g.Add(triplet(ref("a", "1"), "to", ref("b", "1")))

	if paths := g.FindPath(ref("b", "1"), ref("a", "1"), 5); len(paths) != 0 {
		t.Errorf("found %d paths against edge direction, want 0", len(paths))
	}
}
