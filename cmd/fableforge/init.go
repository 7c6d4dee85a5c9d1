package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fableforge/internal/config"
)

func initCmd() *cobra.Command {
	var projectName string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new fableforge project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(projectName)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	return cmd
}

const defaultSchemaTemplate = `version: 1

entity_types:
  - name: faction
  - name: zone
  - name: npc
    depends_on: [faction, zone]
    references:
      - field: faction_id
        relationship: member_of
        target_types: [faction]
        cardinality: one
        required: true
      - field: home_zone
        relationship: lives_in
        target_types: [zone]
        cardinality: one
  - name: item
  - name: enemy
    depends_on: [zone, item]
    references:
      - field: zone_id
        relationship: spawns_in
        target_types: [zone]
        cardinality: one
        required: true
      - field: loot
        relationship: drops
        target_types: [item]
        cardinality: many
  - name: quest
    depends_on: [npc, zone, item]
    references:
      - field: giver_id
        relationship: given_by
        target_types: [npc]
        cardinality: one
        required: true
      - field: reward_items
        relationship: rewards
        target_types: [item]
        cardinality: many

relationship_types:
  - name: member_of
    inverse: has_member
  - name: lives_in
    inverse: home_of
  - name: spawns_in
  - name: drops
  - name: given_by
    inverse: gives
  - name: rewards
  - name: allied_with
    symmetric: true
`

func runInit(projectName string) error {
	configPath := config.DefaultConfigFile
	schemaPath := config.DefaultSchemaFile
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}
	if _, err := os.Stat(schemaPath); err == nil {
		return fmt.Errorf("%s already exists", schemaPath)
	}

	configContents := fmt.Sprintf(`project: %s
version: 1

database:
  dsn: sqlite://%s.db

generator:
  model: gpt-4o-mini
  temperature: 0.8

paths:
  export_dir: ./export
`, projectName, projectName)

	if err := os.WriteFile(configPath, []byte(configContents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	if err := os.WriteFile(schemaPath, []byte(defaultSchemaTemplate), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", schemaPath, err)
	}

	fmt.Fprintf(os.Stdout, "Initialized project %s (%s, %s)\n", projectName, configPath, schemaPath)
	return nil
}
