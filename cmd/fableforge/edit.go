package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fableforge/internal/analyze"
	"fableforge/internal/gen"
	"fableforge/internal/logging"
	"fableforge/internal/store"
)

func editCmd() *cobra.Command {
	var sets []string
	var jsonUpdates string
	var doValidate, trackAffected, regenerate, includeIndirect, debug bool
	var concurrency int

	cmd := &cobra.Command{
		Use:   "edit <type> <id>",
		Short: "Apply a partial edit to one entity",
		Long: "Merge field updates into an entity's payload. The edit is " +
			"all-or-nothing: a failed validation leaves the entity untouched.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			updates, err := parseUpdates(sets, jsonUpdates)
			if err != nil {
				return err
			}
			return runEdit(cmd.Context(), args[0], args[1], updates, editFlags{
				validate:        doValidate,
				trackAffected:   trackAffected,
				regenerate:      regenerate,
				includeIndirect: includeIndirect,
				concurrency:     concurrency,
				debug:           debug,
			})
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Field update as key=value (repeatable; value may be JSON)")
	cmd.Flags().StringVar(&jsonUpdates, "json", "", "Field updates as a JSON object")
	cmd.Flags().BoolVar(&doValidate, "validate", false, "Validate the merged payload against the schema")
	cmd.Flags().BoolVar(&trackAffected, "track-affected", false, "Report entities affected by the edit")
	cmd.Flags().BoolVar(&regenerate, "regenerate", false, "Regenerate directly affected entities")
	cmd.Flags().BoolVar(&includeIndirect, "include-indirect", false, "Also regenerate indirectly affected entities")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Parallel generator calls during regeneration")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	return cmd
}

type editFlags struct {
	validate        bool
	trackAffected   bool
	regenerate      bool
	includeIndirect bool
	concurrency     int
	debug           bool
}

func runEdit(ctx context.Context, entityType, id string, updates store.Payload, flags editFlags) error {
	logger := logging.New(flags.debug)
	cfg, schema, err := loadProject()
	if err != nil {
		return err
	}

	analyzerOpts := []analyze.Option{
		analyze.WithRegistry(gen.NewSchemaRegistry(schema)),
		analyze.WithLogger(logger),
		analyze.WithConcurrency(flags.concurrency),
	}
	if flags.regenerate {
		generator, err := newGenerator(cfg)
		if err != nil {
			return err
		}
		analyzerOpts = append(analyzerOpts, analyze.WithGenerator(generator))
	}

	w, snap, err := loadWorld(ctx, cfg, schema, analyzerOpts...)
	if err != nil {
		return err
	}
	defer snap.Close(ctx)

	result, err := w.Analyzer.EditEntity(ctx, entityType, id, updates, analyze.EditOptions{
		Validate:      flags.validate,
		TrackAffected: flags.trackAffected || flags.regenerate,
	})
	if err != nil {
		return err
	}
	logger.Info("entity updated", "type", entityType, "id", id, "fields", len(updates))

	if result.Affected != nil {
		printAffected(result.Affected)
	}

	if flags.regenerate && result.Affected != nil {
		regenerated, err := w.Analyzer.RegenerateAffected(ctx, *result.Affected, analyze.RegenerateOptions{
			IncludeDirect:   true,
			IncludeIndirect: flags.includeIndirect,
		})
		if err != nil {
			return err
		}
		for _, failure := range regenerated.Failures {
			logger.Warn("regeneration failed", "entity", failure.Ref.Type+"/"+failure.Ref.ID, "err", failure.Err)
		}
		logger.Info("regeneration finished",
			"regenerated", len(regenerated.Regenerated), "failed", len(regenerated.Failures))
	}

	return saveWorld(ctx, snap, w)
}

func parseUpdates(sets []string, jsonUpdates string) (store.Payload, error) {
	updates := store.Payload{}
	if jsonUpdates != "" {
		if err := json.Unmarshal([]byte(jsonUpdates), &updates); err != nil {
			return nil, fmt.Errorf("parsing --json: %w", err)
		}
	}
	for _, set := range sets {
		key, raw, found := strings.Cut(set, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --set %q, want key=value", set)
		}
		// A value that parses as JSON keeps its type; anything else is a string.
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		updates[key] = value
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no updates given, use --set or --json")
	}
	return updates, nil
}

func printAffected(affected *analyze.Affected) {
	if len(affected.All) == 0 {
		fmt.Fprintln(os.Stdout, "No other entities affected.")
		return
	}
	if len(affected.Direct) > 0 {
		fmt.Fprintf(os.Stdout, "Directly affected (%d):\n", len(affected.Direct))
		for _, ref := range affected.Direct {
			fmt.Fprintf(os.Stdout, "  - %s/%s\n", ref.Type, ref.ID)
		}
	}
	if len(affected.Indirect) > 0 {
		fmt.Fprintf(os.Stdout, "Indirectly affected (%d):\n", len(affected.Indirect))
		for _, ref := range affected.Indirect {
			fmt.Fprintf(os.Stdout, "  - %s/%s\n", ref.Type, ref.ID)
		}
	}
}
