package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fableforge/internal/graph"
)

func queryRelationsCmd() *cobra.Command {
	var predicate, direction string
	cmd := &cobra.Command{
		Use:   "relations <type> <id>",
		Short: "List an entity's relationship triplets",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryRelations(cmd, args[0], args[1], predicate, direction)
		},
	}
	cmd.Flags().StringVar(&predicate, "predicate", "", "Restrict to one relationship type")
	cmd.Flags().StringVar(&direction, "direction", "both", "outgoing, incoming, or both")
	return cmd
}

func runQueryRelations(cmd *cobra.Command, entityType, id, predicate, direction string) error {
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

	var triplets []graph.Triplet
	switch graph.Direction(direction) {
	case graph.DirectionOutgoing:
		triplets = w.Graph.Find(graph.Criteria{SubjectType: entityType, SubjectID: id, Predicate: predicate})
	case graph.DirectionIncoming:
		triplets = w.Graph.Find(graph.Criteria{ObjectType: entityType, ObjectID: id, Predicate: predicate})
	case graph.DirectionBoth:
		triplets = w.Graph.Find(graph.Criteria{SubjectType: entityType, SubjectID: id, Predicate: predicate})
		triplets = append(triplets,
			w.Graph.Find(graph.Criteria{ObjectType: entityType, ObjectID: id, Predicate: predicate})...)
	default:
		return fmt.Errorf("invalid direction: %s", direction)
	}

	if len(triplets) == 0 {
		fmt.Fprintln(os.Stdout, "No relationships found.")
		return nil
	}
	for _, t := range triplets {
		printTriplet(t)
	}
	return nil
}

func printTriplet(t graph.Triplet) {
	fmt.Fprintf(os.Stdout, "  %s -[%s]-> %s\n", t.Subject, t.Predicate, t.Object)
}
