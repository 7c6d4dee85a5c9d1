package graph

// DefaultMaxPathDepth bounds FindPath when the caller passes no limit.
const DefaultMaxPathDepth = 5

// FindPath enumerates all simple paths from one entity to another along
// outgoing edges, depth-first, at most maxDepth hops long. Each path is the
// ordered sequence of triplets walked. Nodes already on the current path
// are excluded, which terminates cycles; a node may still appear in several
// distinct paths. Worst case is exponential, acceptable at the graph sizes
// this engine holds.
func (g *Graph) FindPath(from, to EntityRef, maxDepth int) [][]Triplet {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxPathDepth
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	var paths [][]Triplet
	var current []Triplet
	onPath := map[string]bool{from.Key(): true}

	var walk func(node EntityRef)
	walk = func(node EntityRef) {
		if len(current) >= maxDepth {
			return
		}
		for _, t := range g.bySubject[node.Key()] {
			next := t.Object
			if onPath[next.Key()] {
				continue
			}
			current = append(current, *t)
			if next == to {
				paths = append(paths, append([]Triplet(nil), current...))
			} else {
				onPath[next.Key()] = true
				walk(next)
				delete(onPath, next.Key())
			}
			current = current[:len(current)-1]
		}
	}
	walk(from)

	return paths
}
