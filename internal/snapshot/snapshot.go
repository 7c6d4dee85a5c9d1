// Package snapshot persists a full world document to SQLite or Postgres.
// A snapshot is replace-on-save: each Save rewrites the world wholesale
// inside one transaction, so a loaded document always reflects a single
// consistent export.
package snapshot

import (
	"context"
	"fmt"
	"strings"

	"fableforge/internal/world"
)

// Store is a durable home for one world document.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Save(ctx context.Context, doc *world.Document) error
	Load(ctx context.Context) (*world.Document, error)
	Close(ctx context.Context) error
}

// Open selects a backend from the DSN scheme: postgres:// (or
// postgresql://) for Postgres, sqlite:// for SQLite. A DSN without a
// scheme is treated as a sqlite file path.
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgres(ctx, dsn)
	case strings.Contains(dsn, "://") && !strings.HasPrefix(dsn, "sqlite://"):
		return nil, fmt.Errorf("unsupported DSN scheme in %q (want postgres:// or sqlite://)", dsn)
	default:
		return NewSQLite(ctx, dsn)
	}
}
