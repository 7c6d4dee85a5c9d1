package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"fableforge/internal/graph"
	"fableforge/internal/store"
	"fableforge/internal/world"
)

var _ Store = (*SQLite)(nil)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	driverDSN, err := parseSQLiteDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing sqlite DSN: %w", err)
	}

	db, err := sql.Open("sqlite", driverDSN)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close(ctx context.Context) error {
	return s.db.Close()
}

func (s *SQLite) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS world_context (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS entities (
		entity_type    TEXT NOT NULL,
		entity_id      TEXT NOT NULL,
		position       INTEGER NOT NULL,
		data           TEXT DEFAULT '{}',
		relationships  TEXT DEFAULT '{}',
		created_at     TEXT,
		last_edited_at TEXT,
		PRIMARY KEY (entity_type, entity_id)
	);

	CREATE TABLE IF NOT EXISTS triplets (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		subject_type TEXT NOT NULL,
		subject_id   TEXT NOT NULL,
		predicate    TEXT NOT NULL,
		object_type  TEXT NOT NULL,
		object_id    TEXT NOT NULL,
		metadata     TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_entities_type ON entities (entity_type);
	CREATE INDEX IF NOT EXISTS idx_triplets_subject ON triplets (subject_type, subject_id);
	CREATE INDEX IF NOT EXISTS idx_triplets_object ON triplets (object_type, object_id);
	CREATE INDEX IF NOT EXISTS idx_triplets_predicate ON triplets (predicate);
	`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}

func (s *SQLite) Save(ctx context.Context, doc *world.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"world_context", "entities", "triplets"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for key, value := range doc.WorldContext {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encoding world context %q: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO world_context (key, value) VALUES (?, ?)`, key, string(encoded)); err != nil {
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
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entities (entity_type, entity_id, position, data, relationships, created_at, last_edited_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.Type, e.ID, position, string(data), string(relationships),
			encodeTime(e.Metadata.CreatedAt), encodeTimePtr(e.Metadata.LastEditedAt)); err != nil {
			return fmt.Errorf("saving entity %s/%s: %w", e.Type, e.ID, err)
		}
	}

	for _, triplet := range doc.Triplets {
		metadata, err := encodeMetadata(triplet.Metadata)
		if err != nil {
			return fmt.Errorf("encoding triplet metadata: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO triplets (subject_type, subject_id, predicate, object_type, object_id, metadata)
			VALUES (?, ?, ?, ?, ?, ?)`,
			triplet.Subject.Type, triplet.Subject.ID, triplet.Predicate,
			triplet.Object.Type, triplet.Object.ID, metadata); err != nil {
			return fmt.Errorf("saving triplet %s: %w", triplet.Predicate, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context) (*world.Document, error) {
	doc := &world.Document{WorldContext: map[string]any{}}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM world_context`)
	if err != nil {
		return nil, fmt.Errorf("loading world context: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, encoded string
		if err := rows.Scan(&key, &encoded); err != nil {
			return nil, fmt.Errorf("scanning world context: %w", err)
		}
		var value any
		if err := json.Unmarshal([]byte(encoded), &value); err != nil {
			return nil, fmt.Errorf("decoding world context %q: %w", key, err)
		}
		doc.WorldContext[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading world context: %w", err)
	}

	entityRows, err := s.db.QueryContext(ctx, `
		SELECT entity_type, entity_id, data, relationships, created_at, last_edited_at
		FROM entities ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("loading entities: %w", err)
	}
	defer entityRows.Close()
	for entityRows.Next() {
		var entityType, entityID, data, relationships string
		var createdAt, lastEditedAt sql.NullString
		if err := entityRows.Scan(&entityType, &entityID, &data, &relationships, &createdAt, &lastEditedAt); err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		e := &store.Entity{ID: entityID, Type: entityType}
		if err := json.Unmarshal([]byte(data), &e.Data); err != nil {
			return nil, fmt.Errorf("decoding %s/%s data: %w", entityType, entityID, err)
		}
		if err := json.Unmarshal([]byte(relationships), &e.Relationships); err != nil {
			return nil, fmt.Errorf("decoding %s/%s relationships: %w", entityType, entityID, err)
		}
		if e.Metadata.CreatedAt, err = decodeTime(createdAt); err != nil {
			return nil, fmt.Errorf("decoding %s/%s created_at: %w", entityType, entityID, err)
		}
		if e.Metadata.LastEditedAt, err = decodeTimePtr(lastEditedAt); err != nil {
			return nil, fmt.Errorf("decoding %s/%s last_edited_at: %w", entityType, entityID, err)
		}
		doc.Entities = append(doc.Entities, e)
	}
	if err := entityRows.Err(); err != nil {
		return nil, fmt.Errorf("loading entities: %w", err)
	}

	tripletRows, err := s.db.QueryContext(ctx, `
		SELECT subject_type, subject_id, predicate, object_type, object_id, metadata
		FROM triplets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("loading triplets: %w", err)
	}
	defer tripletRows.Close()
	for tripletRows.Next() {
		var triplet graph.Triplet
		var metadata sql.NullString
		if err := tripletRows.Scan(&triplet.Subject.Type, &triplet.Subject.ID, &triplet.Predicate,
			&triplet.Object.Type, &triplet.Object.ID, &metadata); err != nil {
			return nil, fmt.Errorf("scanning triplet: %w", err)
		}
		if triplet.Metadata, err = decodeMetadata(metadata); err != nil {
			return nil, fmt.Errorf("decoding triplet metadata: %w", err)
		}
		doc.Triplets = append(doc.Triplets, triplet)
	}
	if err := tripletRows.Err(); err != nil {
		return nil, fmt.Errorf("loading triplets: %w", err)
	}

	return doc, nil
}

func encodeTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func encodeTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return encodeTime(*t)
}

func decodeTime(raw sql.NullString) (time.Time, error) {
	if !raw.Valid || raw.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, raw.String)
}

func decodeTimePtr(raw sql.NullString) (*time.Time, error) {
	t, err := decodeTime(raw)
	if err != nil || t.IsZero() {
		return nil, err
	}
	return &t, nil
}

func encodeMetadata(m *graph.Metadata) (any, error) {
	if m == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

func decodeMetadata(raw sql.NullString) (*graph.Metadata, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var m graph.Metadata
	if err := json.Unmarshal([]byte(raw.String), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func parseSQLiteDSN(dsn string) (string, error) {
	rest := strings.TrimPrefix(dsn, "sqlite://")

	if rest == ":memory:" {
		return ":memory:", nil
	}
	if strings.HasPrefix(rest, "/") || strings.HasPrefix(rest, "./") {
		return rest, nil
	}

	var query string
	if i := strings.Index(rest, "?"); i >= 0 {
		rest, query = rest[:i], rest[i:]
	}

	unescaped, err := url.PathUnescape(rest)
	if err != nil {
		return "", fmt.Errorf("unescaping path: %w", err)
	}
	if !filepath.IsAbs(unescaped) {
		unescaped = "./" + unescaped
	}
	return unescaped + query, nil
}
