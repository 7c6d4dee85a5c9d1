package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the saved world as a JSON document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, out)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output file (defaults to <export_dir>/world.json)")
	return cmd
}

func runExport(cmd *cobra.Command, out string) error {
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

	if out == "" {
		dir := cfg.Paths.ExportDir
		if dir == "" {
			dir = "."
		}
		out = filepath.Join(dir, "world.json")
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}

	encoded, err := json.MarshalIndent(w.Export(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding world: %w", err)
	}
	if err := os.WriteFile(out, append(encoded, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	fmt.Fprintf(os.Stdout, "Exported %d entities and %d triplets to %s\n",
		w.Store.Count(), w.Graph.Len(), out)
	return nil
}
