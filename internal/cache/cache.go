// Package cache keeps the last fetched board of each project in a local
// SQLite file so `sq board --offline` works without the server.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"spacequest/internal/service"
)

// ErrMiss is returned when no snapshot exists for a project.
var ErrMiss = errors.New("no cached board")

// Snapshot is a cached board with the time it was fetched.
type Snapshot struct {
	Project   service.Project
	FetchedAt time.Time
}

// Store is a SQLite-backed board cache.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the cache at path. ":memory:" is accepted.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	// a single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS boards (
			project_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			payload TEXT NOT NULL,
			fetched_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_boards_name ON boards(name);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate cache: %w", err)
		}
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveProject replaces the snapshot for p.
func (s *Store) SaveProject(ctx context.Context, p service.Project, fetchedAt time.Time) error {
	if p.ID == "" {
		return errors.New("cache: project id required")
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode board: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO boards (project_id, name, payload, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(project_id) DO UPDATE SET name = excluded.name, payload = excluded.payload, fetched_at = excluded.fetched_at`,
		p.ID, p.Name, string(payload), fetchedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save board: %w", err)
	}
	return nil
}

// LoadProject returns the snapshot whose project ID equals ref, or whose
// name matches ref case-insensitively.
func (s *Store) LoadProject(ctx context.Context, ref string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM boards
		 WHERE project_id = ? OR lower(name) = lower(?)
		 ORDER BY project_id = ? DESC, fetched_at DESC LIMIT 1`,
		ref, ref, ref)

	var payload, fetched string
	if err := row.Scan(&payload, &fetched); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrMiss, ref)
		}
		return Snapshot{}, fmt.Errorf("load board: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(payload), &snap.Project); err != nil {
		return Snapshot{}, fmt.Errorf("decode board: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, fetched)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode board time: %w", err)
	}
	snap.FetchedAt = t
	return snap, nil
}

// Forget removes the snapshot for a project.
func (s *Store) Forget(ctx context.Context, projectID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM boards WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("forget board: %w", err)
	}
	return nil
}

// Remove deletes the cache file at path. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
