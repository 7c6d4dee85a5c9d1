package graph

import "fmt"

// EntityRef identifies an entity by type and id without embedding its payload.
// The pair is the identity key; ids are unique only within a type.
type EntityRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func (r EntityRef) Key() string {
	return r.Type + ":" + r.ID
}

func (r EntityRef) String() string {
	return fmt.Sprintf("%s/%s", r.Type, r.ID)
}

// Coordinates is a spatial position attached to a relationship.
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Metadata carries the optional fields query logic inspects on a
// relationship. A nil pointer field means "no constraint". Anything the
// named fields do not anticipate goes into Extra.
type Metadata struct {
	Optional      *bool    `json:"optional,omitempty"`
	Chance        *float64 `json:"chance,omitempty"`
	LevelRequired *int     `json:"level_required,omitempty"`

	QuestPrerequisites []string `json:"quest_prerequisites,omitempty"`
	FactionRequired    *string  `json:"faction_required,omitempty"`

	Weight   *float64 `json:"weight,omitempty"`
	Priority *int     `json:"priority,omitempty"`

	Quantity    *int  `json:"quantity,omitempty"`
	MinQuantity *int  `json:"min_quantity,omitempty"`
	MaxQuantity *int  `json:"max_quantity,omitempty"`
	Guaranteed  *bool `json:"guaranteed,omitempty"`

	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Distance    *float64     `json:"distance,omitempty"`

	Schedule  *string `json:"schedule,omitempty"`
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

// Triplet is a directed, typed relationship fact. Triplets are immutable
// once added: a relationship changes by clearing and rebuilding the graph.
type Triplet struct {
	Subject   EntityRef `json:"subject"`
	Predicate string    `json:"predicate"`
	Object    EntityRef `json:"object"`
	Metadata  *Metadata `json:"metadata,omitempty"`
}

// Bool returns a pointer to b for use in Metadata literals.
func Bool(b bool) *bool { return &b }

// Float returns a pointer to f for use in Metadata literals.
func Float(f float64) *float64 { return &f }

// Int returns a pointer to i for use in Metadata literals.
func Int(i int) *int { return &i }

// String returns a pointer to s for use in Metadata literals.
func String(s string) *string { return &s }

// value looks up a metadata field by its canonical wire key, falling back
// to the Extra bag for unknown keys.
func (m *Metadata) value(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	switch key {
	case "optional":
		if m.Optional != nil {
			return *m.Optional, true
		}
	case "chance":
		if m.Chance != nil {
			return *m.Chance, true
		}
	case "level_required":
		if m.LevelRequired != nil {
			return *m.LevelRequired, true
		}
	case "quest_prerequisites":
		if m.QuestPrerequisites != nil {
			return m.QuestPrerequisites, true
		}
	case "faction_required":
		if m.FactionRequired != nil {
			return *m.FactionRequired, true
		}
	case "weight":
		if m.Weight != nil {
			return *m.Weight, true
		}
	case "priority":
		if m.Priority != nil {
			return *m.Priority, true
		}
	case "quantity":
		if m.Quantity != nil {
			return *m.Quantity, true
		}
	case "min_quantity":
		if m.MinQuantity != nil {
			return *m.MinQuantity, true
		}
	case "max_quantity":
		if m.MaxQuantity != nil {
			return *m.MaxQuantity, true
		}
	case "guaranteed":
		if m.Guaranteed != nil {
			return *m.Guaranteed, true
		}
	case "distance":
		if m.Distance != nil {
			return *m.Distance, true
		}
	case "schedule":
		if m.Schedule != nil {
			return *m.Schedule, true
		}
	case "start_date":
		if m.StartDate != nil {
			return *m.StartDate, true
		}
	case "end_date":
		if m.EndDate != nil {
			return *m.EndDate, true
		}
	default:
		if value, ok := m.Extra[key]; ok {
			return value, true
		}
	}
	return nil, false
}
