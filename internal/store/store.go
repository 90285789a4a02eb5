// Package store persists vocabulary, the shopping cart, orders and the
// local calendar in a single SQLite file.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrEmptyCart = errors.New("cart is empty")
)

type DB struct {
	db *sql.DB
}

// Open creates the database file (and its directory) when missing,
// applies the schema and seeds the vocabulary on first use.
// ":memory:" is accepted for tests.
func Open(ctx context.Context, path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps :memory: coherent.
	db.SetMaxOpenConns(1)

	s := &DB{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	n, err := s.seedVocabulary(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("seed vocabulary: %w", err)
	}
	if n > 0 {
		log.Info("Seeded vocabulary", "words", n)
	}

	return s, nil
}

func (s *DB) Close() error {
	return s.db.Close()
}

func (s *DB) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS vocabulary (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dutch_word TEXT NOT NULL,
		english_translation TEXT NOT NULL,
		article TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT 'general',
		level TEXT NOT NULL DEFAULT 'A1',
		pronunciation TEXT NOT NULL DEFAULT '',
		example_sentence TEXT NOT NULL DEFAULT '',
		added_at INTEGER NOT NULL,
		last_reviewed INTEGER,
		review_count INTEGER NOT NULL DEFAULT 0,
		mastery_score REAL NOT NULL DEFAULT 0.0,
		UNIQUE (dutch_word, english_translation)
	);

	CREATE TABLE IF NOT EXISTS cart_items (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		name TEXT NOT NULL,
		platform TEXT NOT NULL,
		price REAL NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 1,
		added_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		platform TEXT NOT NULL,
		total REAL NOT NULL,
		items INTEGER NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		estimated_delivery INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		summary TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		start_at INTEGER NOT NULL,
		end_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS practice_days (
		day TEXT PRIMARY KEY
	);

	CREATE INDEX IF NOT EXISTS idx_vocabulary_mastery ON vocabulary(mastery_score);
	CREATE INDEX IF NOT EXISTS idx_events_start ON events(start_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
