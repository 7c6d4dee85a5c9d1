package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func queryStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the world and its relationship graph",
		Args:  cobra.NoArgs,
		RunE:  runQueryStats,
	}
}

func runQueryStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, schema, err := loadProject()
	if err != nil {
		return err
	}
	w, snap, err := loadWorld(ctx, cfg, schema)
	if err != nil {
		return err
	}
	defer snap.Close(ctx)

	stats := w.Graph.Stats()
	fmt.Fprintf(os.Stdout, "Entities: %d\n", w.Store.Count())
	fmt.Fprintf(os.Stdout, "Triplets: %d\n", stats.Triplets)
	if len(stats.EntityTypes) > 0 {
		fmt.Fprintf(os.Stdout, "Entity types in graph: %s\n", strings.Join(stats.EntityTypes, ", "))
	}

	if len(stats.Predicates) > 0 {
		predicates := make([]string, 0, len(stats.Predicates))
		for predicate := range stats.Predicates {
			predicates = append(predicates, predicate)
		}
		sort.Strings(predicates)

		fmt.Fprintln(os.Stdout, "Predicates:")
		for _, predicate := range predicates {
			fmt.Fprintf(os.Stdout, "  %s: %d\n", predicate, stats.Predicates[predicate])
		}
	}
	return nil
}
