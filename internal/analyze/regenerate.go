package analyze

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fableforge/internal/gen"
	"fableforge/internal/store"
)

type RegenerateOptions struct {
	// IncludeDirect and IncludeIndirect select which parts of the affected
	// set to regenerate. When neither is set, direct entities are
	// regenerated.
	IncludeDirect   bool
	IncludeIndirect bool
}

// RegenerateFailure records one entity whose generator call failed.
type RegenerateFailure struct {
	Ref store.Ref `json:"ref"`
	Err error     `json:"-"`
}

// RegenerateResult reports the batch outcome. Partial success is the
// expected case, not an error.
type RegenerateResult struct {
	Regenerated []store.Ref         `json:"regenerated"`
	Failures    []RegenerateFailure `json:"failures"`
}

// RegenerateAffected re-invokes the generator for each selected entity,
// passing its prior relationship links as hints, and replaces the payload
// in place on success. Generator calls may run in parallel (bounded by
// WithConcurrency) but each failure is isolated to its entity and writes
// back into the store are serialized.
func (a *Analyzer) RegenerateAffected(ctx context.Context, affected Affected, opts RegenerateOptions) (*RegenerateResult, error) {
	if a.generator == nil {
		return nil, errors.New("no generator configured")
	}

	if !opts.IncludeDirect && !opts.IncludeIndirect {
		opts.IncludeDirect = true
	}
	var targets []store.Ref
	if opts.IncludeDirect {
		targets = append(targets, affected.Direct...)
	}
	if opts.IncludeIndirect {
		targets = append(targets, affected.Indirect...)
	}

	result := &RegenerateResult{}
	var mu sync.Mutex

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(a.concurrency)

	for _, target := range targets {
		group.Go(func() error {
			entity, ok := a.store.Get(target.Type, target.ID)
			if !ok {
				mu.Lock()
				result.Failures = append(result.Failures, RegenerateFailure{
					Ref: target,
					Err: fmt.Errorf("%s: %w", target, ErrNotFound),
				})
				mu.Unlock()
				return nil
			}

			payload, err := a.generator.Generate(ctx, target.Type, target.ID, priorLinks(entity))
			if err != nil {
				if a.logger != nil {
					a.logger.Warn("regeneration failed", "entity", target.String(), "err", err)
				}
				mu.Lock()
				result.Failures = append(result.Failures, RegenerateFailure{Ref: target, Err: err})
				mu.Unlock()
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			// Re-read under the lock so concurrent siblings never interleave
			// a write to the same entity.
			current, ok := a.store.Get(target.Type, target.ID)
			if !ok {
				result.Failures = append(result.Failures, RegenerateFailure{
					Ref: target,
					Err: fmt.Errorf("%s: %w", target, ErrNotFound),
				})
				return nil
			}
			regenerated := current.Clone()
			regenerated.Data = store.Payload(payload)
			now := time.Now()
			regenerated.Metadata.LastEditedAt = &now
			a.store.Put(regenerated)
			result.Regenerated = append(result.Regenerated, target)
			if a.logger != nil {
				a.logger.Info("regenerated entity", "entity", target.String())
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func priorLinks(e *store.Entity) gen.Links {
	links := make(gen.Links, len(e.Relationships))
	for relatedType, ids := range e.Relationships {
		links[relatedType] = append([]string(nil), ids...)
	}
	return links
}
