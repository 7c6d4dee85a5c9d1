package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fableforge.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadProjectConfig(t *testing.T) {
	path := writeConfig(t, `
project: shattered-isles
version: 1
database:
  dsn: ./world.db
generator:
  model: gpt-4o-mini
  temperature: 0.8
`)

	cfg, err := LoadProjectConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Project != "shattered-isles" {
		t.Errorf("Project = %s", cfg.Project)
	}
	if cfg.Database.DSN != "./world.db" {
		t.Errorf("DSN = %s", cfg.Database.DSN)
	}
	if cfg.Generator.Model != "gpt-4o-mini" || cfg.Generator.Temperature != 0.8 {
		t.Errorf("Generator = %+v", cfg.Generator)
	}
}

func TestLoadProjectConfigRejections(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"missing project", "version: 1\ndatabase:\n  dsn: ./world.db\n"},
		{"bad version", "project: p\nversion: 3\ndatabase:\n  dsn: ./world.db\n"},
		{"missing dsn", "project: p\nversion: 1\n"},
		{"bad temperature", "project: p\nversion: 1\ndatabase:\n  dsn: x\ngenerator:\n  temperature: 9\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadProjectConfig(writeConfig(t, tt.contents)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadProjectConfigMissingFile(t *testing.T) {
	if _, err := LoadProjectConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
