package analyze

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fableforge/internal/store"
)

// ErrNotFound marks an edit against an entity that does not exist.
var ErrNotFound = errors.New("entity not found")

// ErrValidationFailed marks a merged payload the registry rejected. The
// edit is aborted with no mutation.
var ErrValidationFailed = errors.New("validation failed")

type EditOptions struct {
	// Validate runs the merged payload through the schema registry before
	// committing. Requires an Analyzer constructed WithRegistry.
	Validate bool
	// TrackAffected computes the affected set after the commit.
	TrackAffected bool
}

type EditResult struct {
	Entity   *store.Entity `json:"entity"`
	Affected *Affected     `json:"affected,omitempty"`
}

// EditEntity shallow-merges updates into the entity's payload and commits
// the result. The edit is all-or-nothing: a missing entity or a registry
// rejection leaves the store byte-for-byte unchanged. ID, type, creation
// time, and relationships are preserved; LastEditedAt is refreshed.
func (a *Analyzer) EditEntity(ctx context.Context, entityType, id string, updates store.Payload, opts EditOptions) (*EditResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entity, ok := a.store.Get(entityType, id)
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", entityType, id, ErrNotFound)
	}

	merged := entity.Data.Merge(updates)
	if opts.Validate {
		if a.registry == nil {
			return nil, fmt.Errorf("editing %s/%s: no schema registry configured", entityType, id)
		}
		validated, err := a.registry.Validate(entityType, merged)
		if err != nil {
			return nil, fmt.Errorf("editing %s/%s: %w: %v", entityType, id, ErrValidationFailed, err)
		}
		merged = validated
	}

	edited := entity.Clone()
	edited.Data = merged
	now := time.Now()
	edited.Metadata.LastEditedAt = &now
	a.store.Put(edited)

	result := &EditResult{Entity: edited}
	if opts.TrackAffected {
		affected := a.AffectedEntities(entityType, id)
		result.Affected = &affected
	}
	return result, nil
}

// Edit is one item in a bulk edit batch.
type Edit struct {
	Type    string
	ID      string
	Updates store.Payload
}

// EditOutcome reports one bulk item. Err is nil on success.
type EditOutcome struct {
	Ref    store.Ref
	Result *EditResult
	Err    error
}

// BulkEdit applies each edit as an independent single-entity transaction,
// in order. A failing item does not roll back or stop the ones before or
// after it.
func (a *Analyzer) BulkEdit(ctx context.Context, edits []Edit, opts EditOptions) []EditOutcome {
	outcomes := make([]EditOutcome, 0, len(edits))
	for _, edit := range edits {
		result, err := a.EditEntity(ctx, edit.Type, edit.ID, edit.Updates, opts)
		outcomes = append(outcomes, EditOutcome{
			Ref:    store.Ref{Type: edit.Type, ID: edit.ID},
			Result: result,
			Err:    err,
		})
	}
	return outcomes
}
