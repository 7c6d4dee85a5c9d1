package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

func queryEntityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entity <type> <id>",
		Short: "Display an entity's payload and relationships",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryEntity(cmd, args[0], args[1])
		},
	}
}

func runQueryEntity(cmd *cobra.Command, entityType, id string) error {
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

	entity, ok := w.Store.Get(entityType, id)
	if !ok {
		fmt.Fprintf(os.Stdout, "No entity found for %s/%s.\n", entityType, id)
		return nil
	}

	fmt.Fprintf(os.Stdout, "Type: %s\n", entity.Type)
	fmt.Fprintf(os.Stdout, "ID: %s\n", entity.ID)
	if !entity.Metadata.CreatedAt.IsZero() {
		fmt.Fprintf(os.Stdout, "Created: %s\n", entity.Metadata.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	if entity.Metadata.LastEditedAt != nil {
		fmt.Fprintf(os.Stdout, "Edited: %s\n", entity.Metadata.LastEditedAt.Format("2006-01-02 15:04:05"))
	}

	if len(entity.Data) > 0 {
		keys := make([]string, 0, len(entity.Data))
		for key := range entity.Data {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintln(os.Stdout, "Data:")
		for _, key := range keys {
			fmt.Fprintf(os.Stdout, "  %s: %v\n", key, entity.Data[key])
		}
	}

	if len(entity.Relationships) > 0 {
		types := make([]string, 0, len(entity.Relationships))
		for relatedType := range entity.Relationships {
			types = append(types, relatedType)
		}
		sort.Strings(types)

		fmt.Fprintln(os.Stdout, "Relationships:")
		for _, relatedType := range types {
			for _, refID := range entity.Relationships[relatedType] {
				fmt.Fprintf(os.Stdout, "  - %s/%s\n", relatedType, refID)
			}
		}
	}
	return nil
}
