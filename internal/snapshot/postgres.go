package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"fableforge/internal/graph"
	"fableforge/internal/store"
	"fableforge/internal/world"
)

var _ Store = (*Postgres)(nil)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close(ctx context.Context) error {
	p.pool.Close()
	return nil
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	// All DDL runs in one Exec, which Postgres wraps in an implicit
	// transaction; IF NOT EXISTS keeps the call idempotent.
	ddl := `
CREATE TABLE IF NOT EXISTS world_context (
    key   TEXT PRIMARY KEY,
    value JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS entities (
    entity_type    TEXT NOT NULL,
    entity_id      TEXT NOT NULL,
    position       INTEGER NOT NULL,
    data           JSONB DEFAULT '{}',
    relationships  JSONB DEFAULT '{}',
    created_at     TIMESTAMPTZ,
    last_edited_at TIMESTAMPTZ,
    PRIMARY KEY (entity_type, entity_id)
);

CREATE TABLE IF NOT EXISTS triplets (
    id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    subject_type TEXT NOT NULL,
    subject_id   TEXT NOT NULL,
    predicate    TEXT NOT NULL,
    object_type  TEXT NOT NULL,
    object_id    TEXT NOT NULL,
    metadata     JSONB
);

CREATE INDEX IF NOT EXISTS idx_entities_type ON entities (entity_type);
CREATE INDEX IF NOT EXISTS idx_triplets_subject ON triplets (subject_type, subject_id);
CREATE INDEX IF NOT EXISTS idx_triplets_object ON triplets (object_type, object_id);
CREATE INDEX IF NOT EXISTS idx_triplets_predicate ON triplets (predicate);
`
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}

func (p *Postgres) Save(ctx context.Context, doc *world.Document) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE world_context, entities, triplets`); err != nil {
		return fmt.Errorf("clearing snapshot tables: %w", err)
	}

	for key, value := range doc.WorldContext {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encoding world context %q: %w", key, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO world_context (key, value) VALUES ($1, $2)`, key, encoded); err != nil {
			return fmt.Errorf("saving world context %q: %w", key, err)
		}
	}

	for position, e := range doc.Entities {
		data, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("encoding %s/%s data: %w", e.Type, e.ID, err)
		}
		relationships, err := json.Marshal(e.Relationships)
		if err != nil {
			return fmt.Errorf("encoding %s/%s relationships: %w", e.Type, e.ID, err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO entities (entity_type, entity_id, position, data, relationships, created_at, last_edited_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			e.Type, e.ID, position, data, relationships,
			nilIfZero(e.Metadata.CreatedAt), e.Metadata.LastEditedAt); err != nil {
			return fmt.Errorf("saving entity %s/%s: %w", e.Type, e.ID, err)
		}
	}

	for _, triplet := range doc.Triplets {
		var metadata []byte
		if triplet.Metadata != nil {
			if metadata, err = json.Marshal(triplet.Metadata); err != nil {
				return fmt.Errorf("encoding triplet metadata: %w", err)
			}
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO triplets (subject_type, subject_id, predicate, object_type, object_id, metadata)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			triplet.Subject.Type, triplet.Subject.ID, triplet.Predicate,
			triplet.Object.Type, triplet.Object.ID, metadata); err != nil {
			return fmt.Errorf("saving triplet %s: %w", triplet.Predicate, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

func (p *Postgres) Load(ctx context.Context) (*world.Document, error) {
	doc := &world.Document{WorldContext: map[string]any{}}

	if err := p.loadContext(ctx, doc); err != nil {
		return nil, err
	}
	if err := p.loadEntities(ctx, doc); err != nil {
		return nil, err
	}
	if err := p.loadTriplets(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *Postgres) loadContext(ctx context.Context, doc *world.Document) error {
	rows, err := p.pool.Query(ctx, `SELECT key, value FROM world_context`)
	if err != nil {
		return fmt.Errorf("loading world context: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var encoded []byte
		if err := rows.Scan(&key, &encoded); err != nil {
			return fmt.Errorf("scanning world context: %w", err)
		}
		var value any
		if err := json.Unmarshal(encoded, &value); err != nil {
			return fmt.Errorf("decoding world context %q: %w", key, err)
		}
		doc.WorldContext[key] = value
	}
	return rows.Err()
}

func (p *Postgres) loadEntities(ctx context.Context, doc *world.Document) error {
	rows, err := p.pool.Query(ctx, `
		SELECT entity_type, entity_id, data, relationships, created_at, last_edited_at
		FROM entities ORDER BY position`)
	if err != nil {
		return fmt.Errorf("loading entities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entityType, entityID string
		var data, relationships []byte
		var createdAt, lastEditedAt *time.Time
		if err := rows.Scan(&entityType, &entityID, &data, &relationships, &createdAt, &lastEditedAt); err != nil {
			return fmt.Errorf("scanning entity: %w", err)
		}
		e := &store.Entity{ID: entityID, Type: entityType}
		if err := json.Unmarshal(data, &e.Data); err != nil {
			return fmt.Errorf("decoding %s/%s data: %w", entityType, entityID, err)
		}
		if err := json.Unmarshal(relationships, &e.Relationships); err != nil {
			return fmt.Errorf("decoding %s/%s relationships: %w", entityType, entityID, err)
		}
		if createdAt != nil {
			e.Metadata.CreatedAt = *createdAt
		}
		e.Metadata.LastEditedAt = lastEditedAt
		doc.Entities = append(doc.Entities, e)
	}
	return rows.Err()
}

func nilIfZero(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (p *Postgres) loadTriplets(ctx context.Context, doc *world.Document) error {
	rows, err := p.pool.Query(ctx, `
		SELECT subject_type, subject_id, predicate, object_type, object_id, metadata
		FROM triplets ORDER BY id`)
	if err != nil {
		return fmt.Errorf("loading triplets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var triplet graph.Triplet
		var metadata []byte
		if err := rows.Scan(&triplet.Subject.Type, &triplet.Subject.ID, &triplet.Predicate,
			&triplet.Object.Type, &triplet.Object.ID, &metadata); err != nil {
			return fmt.Errorf("scanning triplet: %w", err)
		}
		if len(metadata) > 0 {
			triplet.Metadata = &graph.Metadata{}
			if err := json.Unmarshal(metadata, triplet.Metadata); err != nil {
				return fmt.Errorf("decoding triplet metadata: %w", err)
			}
		}
		doc.Triplets = append(doc.Triplets, triplet)
	}
	return rows.Err()
}
