package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fableforge/internal/gen"
	"fableforge/internal/graph"
	"fableforge/internal/logging"
	"fableforge/internal/store"
	"fableforge/internal/world"
)

func generateCmd() *cobra.Command {
	var count int
	var debug bool
	cmd := &cobra.Command{
		Use:   "generate [type]",
		Short: "Generate world content in dependency order",
		Long: "Generate entities with the configured LLM generator. Without a type " +
			"argument, every schema type is generated in dependency order.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requested := ""
			if len(args) > 0 {
				requested = args[0]
			}
			return runGenerate(cmd.Context(), requested, count, debug)
		},
	}
	cmd.Flags().IntVar(&count, "count", 1, "Entities to generate per type")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	return cmd
}

func runGenerate(ctx context.Context, requested string, count int, debug bool) error {
	if count < 1 {
		return fmt.Errorf("--count must be at least 1")
	}

	logger := logging.New(debug)
	cfg, schema, err := loadProject()
	if err != nil {
		return err
	}
	generator, err := newGenerator(cfg)
	if err != nil {
		return err
	}
	registry := gen.NewSchemaRegistry(schema)

	w, snap, err := loadWorld(ctx, cfg, schema)
	if err != nil {
		return err
	}
	defer snap.Close(ctx)

	order, err := schema.GenerationOrder()
	if err != nil {
		return err
	}
	if requested != "" {
		if _, ok := schema.EntityTypeByName(requested); !ok {
			return fmt.Errorf("unknown entity type: %s", requested)
		}
		order = []string{requested}
	}

	for _, entityType := range order {
		for i := 0; i < count; i++ {
			if err := generateOne(ctx, w, generator, registry, entityType); err != nil {
				return err
			}
			logger.Info("generated entity", "type", entityType)
		}
	}

	if err := saveWorld(ctx, snap, w); err != nil {
		return err
	}
	logger.Info("world saved", "entities", w.Store.Count(), "triplets", w.Graph.Len())
	return nil
}

func generateOne(ctx context.Context, w *world.World, generator gen.Generator, registry gen.Registry, entityType string) error {
	id, err := gen.NewID(entityType)
	if err != nil {
		return err
	}

	priorLinks := gen.Links{}
	for _, dep := range registry.DependenciesOf(entityType) {
		for _, e := range w.Store.ByType(dep) {
			priorLinks[strings.ToLower(dep)] = append(priorLinks[strings.ToLower(dep)], e.ID)
		}
	}

	payload, err := generator.Generate(ctx, entityType, id, priorLinks)
	if err != nil {
		return err
	}
	payload, err = registry.Validate(entityType, payload)
	if err != nil {
		return fmt.Errorf("generated %s payload rejected: %w", entityType, err)
	}

	w.Store.Put(&store.Entity{ID: id, Type: strings.ToLower(entityType), Data: payload})
	linkReferences(w, entityType, id, payload)
	return nil
}

// linkReferences turns the payload's declared reference fields into graph
// triplets and mirrored relationship entries. Ids that do not resolve to a
// stored entity of a declared target type are left for the validator to
// report.
func linkReferences(w *world.World, entityType, id string, payload map[string]any) {
	declared, ok := w.Schema.EntityTypeByName(entityType)
	if !ok {
		return
	}
	subject := graph.EntityRef{Type: strings.ToLower(entityType), ID: id}

	for _, reference := range declared.References {
		if reference.Contextual {
			continue
		}
		for _, refID := range gen.RefIDs(payload[reference.Field]) {
			for _, targetType := range reference.TargetTypes {
				target := strings.ToLower(targetType)
				if _, exists := w.Store.Get(target, refID); !exists {
					continue
				}
				w.Link(subject, reference.Relationship, graph.EntityRef{Type: target, ID: refID}, nil)
				break
			}
		}
	}
}
