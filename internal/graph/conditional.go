package graph

// DropsPredicate is the relationship type LootDrops evaluates.
const DropsPredicate = "drops"

const defaultDropChance = 0.5

// Conditions are the caller-side facts conditional queries check triplet
// metadata against. Nil pointer fields are unconstrained.
type Conditions struct {
	MinLevel        *int
	MaxLevel        *int
	CompletedQuests []string
	Faction         string
}

// ConditionalRelations returns the subject's triplets for a predicate,
// filtered by the caller's conditions. A triplet without a constraining
// metadata field always passes that check.
func (g *Graph) ConditionalRelations(subject EntityRef, predicate string, conds Conditions) []Triplet {
	candidates := g.Find(Criteria{SubjectType: subject.Type, SubjectID: subject.ID, Predicate: predicate})

	results := make([]Triplet, 0, len(candidates))
	for _, t := range candidates {
		if !passesConditions(t.Metadata, conds) {
			continue
		}
		results = append(results, t)
	}
	return results
}

func passesConditions(m *Metadata, conds Conditions) bool {
	if m == nil {
		return true
	}
	if m.LevelRequired != nil {
		if conds.MinLevel != nil && *m.LevelRequired < *conds.MinLevel {
			return false
		}
		if conds.MaxLevel != nil && *m.LevelRequired > *conds.MaxLevel {
			return false
		}
	}
	if len(m.QuestPrerequisites) > 0 {
		completed := make(map[string]struct{}, len(conds.CompletedQuests))
		for _, quest := range conds.CompletedQuests {
			completed[quest] = struct{}{}
		}
		for _, quest := range m.QuestPrerequisites {
			if _, ok := completed[quest]; !ok {
				return false
			}
		}
	}
	if m.FactionRequired != nil && *m.FactionRequired != conds.Faction {
		return false
	}
	return true
}

// SampleWeighted picks one triplet from the candidates. When any candidate
// carries a weight, selection is weight-proportional among the weighted
// ones; otherwise it is uniform over the whole input. The second return is
// false for an empty input.
func (g *Graph) SampleWeighted(candidates []Triplet) (Triplet, bool) {
	if len(candidates) == 0 {
		return Triplet{}, false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var weighted []Triplet
	var total float64
	for _, t := range candidates {
		if t.Metadata != nil && t.Metadata.Weight != nil && *t.Metadata.Weight > 0 {
			weighted = append(weighted, t)
			total += *t.Metadata.Weight
		}
	}

	if len(weighted) == 0 {
		return candidates[g.rng.Intn(len(candidates))], true
	}

	roll := g.rng.Float64() * total
	for _, t := range weighted {
		roll -= *t.Metadata.Weight
		if roll < 0 {
			return t, true
		}
	}
	return weighted[len(weighted)-1], true
}

// LootDrop is one item produced by a loot roll. Entries that fail their
// roll are omitted entirely, so Rolled is always true on returned entries.
type LootDrop struct {
	Item     EntityRef `json:"item"`
	Quantity int       `json:"quantity"`
	Rolled   bool      `json:"rolled"`
}

// LootDrops evaluates every "drops" triplet from the given subject.
// Triplets gated above actorLevel are skipped (actorLevel <= 0 disables the
// gate). Guaranteed drops always land with their quantity; the rest pass a
// Bernoulli trial on their chance, then draw a quantity uniformly from
// [min, max] when both bounds are present.
func (g *Graph) LootDrops(subjectType, subjectID string, actorLevel int) []LootDrop {
	candidates := g.Find(Criteria{SubjectType: subjectType, SubjectID: subjectID, Predicate: DropsPredicate})

	g.mu.Lock()
	defer g.mu.Unlock()

	drops := make([]LootDrop, 0, len(candidates))
	for _, t := range candidates {
		m := t.Metadata
		if m != nil && m.LevelRequired != nil && actorLevel > 0 && actorLevel < *m.LevelRequired {
			continue
		}
		if m != nil && m.Guaranteed != nil && *m.Guaranteed {
			drops = append(drops, LootDrop{Item: t.Object, Quantity: fixedQuantity(m), Rolled: true})
			continue
		}

		chance := defaultDropChance
		if m != nil && m.Chance != nil {
			chance = *m.Chance
		}
		if g.rng.Float64() >= chance {
			continue
		}

		quantity := 1
		if m != nil && m.MinQuantity != nil && m.MaxQuantity != nil && *m.MaxQuantity >= *m.MinQuantity {
			quantity = *m.MinQuantity + g.rng.Intn(*m.MaxQuantity-*m.MinQuantity+1)
		} else {
			quantity = fixedQuantity(m)
		}
		drops = append(drops, LootDrop{Item: t.Object, Quantity: quantity, Rolled: true})
	}
	return drops
}

func fixedQuantity(m *Metadata) int {
	if m != nil && m.Quantity != nil {
		return *m.Quantity
	}
	return 1
}
