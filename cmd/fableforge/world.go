package main

import (
	"context"
	"fmt"
	"os"

	"fableforge/internal/analyze"
	"fableforge/internal/config"
	"fableforge/internal/gen"
	genopenai "fableforge/internal/gen/openai"
	"fableforge/internal/snapshot"
	"fableforge/internal/world"
)

func loadProject() (*config.ProjectConfig, *config.Schema, error) {
	cfg, err := config.LoadProjectConfig(config.DefaultConfigFile)
	if err != nil {
		return nil, nil, err
	}
	schema, err := config.LoadSchema(config.DefaultSchemaFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, schema, nil
}

func openSnapshot(ctx context.Context, cfg *config.ProjectConfig) (snapshot.Store, error) {
	snap, err := snapshot.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := snap.EnsureSchema(ctx); err != nil {
		snap.Close(ctx)
		return nil, err
	}
	return snap, nil
}

// loadWorld opens the snapshot store and rebuilds the in-memory world from
// the saved document. The caller owns closing the returned store.
func loadWorld(ctx context.Context, cfg *config.ProjectConfig, schema *config.Schema, analyzerOpts ...analyze.Option) (*world.World, snapshot.Store, error) {
	snap, err := openSnapshot(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	doc, err := snap.Load(ctx)
	if err != nil {
		snap.Close(ctx)
		return nil, nil, err
	}

	w := world.New(schema, nil, analyzerOpts...)
	w.Import(doc)
	return w, snap, nil
}

func saveWorld(ctx context.Context, snap snapshot.Store, w *world.World) error {
	return snap.Save(ctx, w.Export())
}

// newGenerator builds the LLM-backed content generator. The API key comes
// from the environment, never the config file.
func newGenerator(cfg *config.ProjectConfig) (gen.Generator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	return genopenai.New(genopenai.Params{
		APIKey:      apiKey,
		BaseURL:     cfg.Generator.BaseURL,
		Model:       cfg.Generator.Model,
		Temperature: cfg.Generator.Temperature,
	}), nil
}
