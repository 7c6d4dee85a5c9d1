package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fableforge/internal/world"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the saved world with a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0])
		},
	}
}

func runImport(cmd *cobra.Command, path string) error {
	ctx := cmd.Context()

	cfg, schema, err := loadProject()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var doc world.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	w := world.New(schema, nil)
	w.Import(&doc)

	snap, err := openSnapshot(ctx, cfg)
	if err != nil {
		return err
	}
	defer snap.Close(ctx)

	if err := saveWorld(ctx, snap, w); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Imported %d entities and %d triplets from %s\n",
		w.Store.Count(), w.Graph.Len(), path)
	return nil
}
