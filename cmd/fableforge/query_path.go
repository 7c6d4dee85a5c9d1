package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fableforge/internal/graph"
)

func queryPathCmd() *cobra.Command {
	var maxDepth int
	cmd := &cobra.Command{
		Use:   "path <from-type> <from-id> <to-type> <to-id>",
		Short: "Enumerate relationship paths between two entities",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryPath(cmd,
				graph.EntityRef{Type: args[0], ID: args[1]},
				graph.EntityRef{Type: args[2], ID: args[3]},
				maxDepth)
		},
	}
	cmd.Flags().IntVar(&maxDepth, "max-depth", graph.DefaultMaxPathDepth, "Maximum path length in hops")
	return cmd
}

func runQueryPath(cmd *cobra.Command, from, to graph.EntityRef, maxDepth int) error {
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

	paths := w.Graph.FindPath(from, to, maxDepth)
	if len(paths) == 0 {
		fmt.Fprintf(os.Stdout, "No path from %s to %s within %d hops.\n", from, to, maxDepth)
		return nil
	}

	for i, path := range paths {
		fmt.Fprintf(os.Stdout, "Path %d (%d hops):\n", i+1, len(path))
		for _, t := range path {
			printTriplet(t)
		}
	}
	return nil
}
