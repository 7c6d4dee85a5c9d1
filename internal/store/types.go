package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// Ref identifies an entity by type and id.
type Ref struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%s", r.Type, r.ID)
}

// Payload is the opaque, schema-defined body of an entity. The engine
// never interprets its shape beyond field lookup, shallow merge, and
// cloning.
type Payload map[string]any

// Field looks up a top-level payload field.
func (p Payload) Field(name string) (any, bool) {
	value, ok := p[name]
	return value, ok
}

// Merge returns a new payload with updates shallow-merged over p: replaced
// keys fully overwrite, unspecified keys stay untouched. Neither input is
// modified.
func (p Payload) Merge(updates Payload) Payload {
	merged := make(Payload, len(p)+len(updates))
	for key, value := range p {
		merged[key] = value
	}
	for key, value := range updates {
		merged[key] = value
	}
	return merged
}

// Clone deep-copies the payload so callers cannot mutate stored state.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	cloned := make(Payload, len(p))
	for key, value := range p {
		cloned[key] = cloneValue(value)
	}
	return cloned
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}

// IDList holds the ids an entity references under one related type. On the
// wire a single reference may appear as a bare string; in memory it is
// always an ordered list.
type IDList []string

func (l IDList) Contains(id string) bool {
	for _, item := range l {
		if item == id {
			return true
		}
	}
	return false
}

func (l *IDList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = IDList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("id list must be a string or string array: %w", err)
	}
	*l = IDList(many)
	return nil
}

// Refs maps a related entity type to the ids referenced under it. This is
// the denormalized relationship view the impact analyzer reads; it is not
// derived from the triplet graph.
type Refs map[string]IDList

func (r Refs) Clone() Refs {
	if r == nil {
		return nil
	}
	cloned := make(Refs, len(r))
	for relatedType, ids := range r {
		cloned[relatedType] = append(IDList(nil), ids...)
	}
	return cloned
}

// Metadata is the record bookkeeping the store maintains.
type Metadata struct {
	CreatedAt    time.Time  `json:"created_at"`
	LastEditedAt *time.Time `json:"last_edited_at,omitempty"`
}

// Entity is one generated record. Edits replace Data in place and never
// change ID or Type.
type Entity struct {
	ID            string   `json:"id"`
	Type          string   `json:"type"`
	Data          Payload  `json:"data"`
	Relationships Refs     `json:"relationships,omitempty"`
	Metadata      Metadata `json:"metadata"`
}

func (e *Entity) Ref() Ref {
	return Ref{Type: e.Type, ID: e.ID}
}

func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	cloned := *e
	cloned.Data = e.Data.Clone()
	cloned.Relationships = e.Relationships.Clone()
	return &cloned
}
