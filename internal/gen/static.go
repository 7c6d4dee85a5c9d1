package gen

import (
	"context"
	"fmt"
	"sync"
)

// Static is a deterministic Generator serving canned payloads. It backs
// offline CLI runs and tests; keys are "type/id".
type Static struct {
	mu       sync.Mutex
	payloads map[string]map[string]any
	calls    []string
}

func NewStatic() *Static {
	return &Static{payloads: make(map[string]map[string]any)}
}

// Set registers the payload returned for one entity.
func (s *Static) Set(entityType, id string, payload map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[entityType+"/"+id] = payload
}

func (s *Static) Generate(ctx context.Context, entityType, id string, priorLinks Links) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityType + "/" + id
	s.calls = append(s.calls, key)
	payload, ok := s.payloads[key]
	if !ok {
		return nil, fmt.Errorf("no canned payload for %s", key)
	}
	out := make(map[string]any, len(payload))
	for field, value := range payload {
		out[field] = value
	}
	return out, nil
}

// Calls returns the "type/id" keys generated so far, in order.
func (s *Static) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}
