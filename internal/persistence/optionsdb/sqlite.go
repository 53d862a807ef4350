// Package optionsdb persists per-actor splitter options in SQLite.
package optionsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

// Record is the persisted options of one actor.
type Record struct {
	ActorID     string
	Enabled     bool
	TotalStacks map[string]int
	UpdatedAt   string
}

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS actors (
			actor_id TEXT PRIMARY KEY,
			enabled INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS total_stacks (
			actor_id TEXT NOT NULL REFERENCES actors(actor_id) ON DELETE CASCADE,
			oven_kind TEXT NOT NULL,
			value INTEGER NOT NULL,
			PRIMARY KEY (actor_id, oven_kind)
		);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Load returns the stored options of actorID; ok is false when none exist.
func (s *Store) Load(ctx context.Context, actorID string) (rec Record, ok bool, err error) {
	var enabled int
	err = s.db.QueryRowContext(ctx,
		`SELECT enabled, updated_at FROM actors WHERE actor_id = ?`, actorID,
	).Scan(&enabled, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	rec.ActorID = actorID
	rec.Enabled = enabled != 0
	rec.TotalStacks, err = s.loadStacks(ctx, actorID)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func (s *Store) loadStacks(ctx context.Context, actorID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT oven_kind, value FROM total_stacks WHERE actor_id = ?`, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var kind string
		var v int
		if err := rows.Scan(&kind, &v); err != nil {
			return nil, err
		}
		out[kind] = v
	}
	return out, rows.Err()
}

// List returns every stored actor ordered by id.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT actor_id FROM actors ORDER BY actor_id`)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		rec, ok, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Save replaces the stored options of each record in one transaction.
func (s *Store) Save(ctx context.Context, recs ...Record) error {
	if len(recs) == 0 {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	upsert, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO actors(actor_id,enabled,updated_at) VALUES(?,?,?)`)
	if err != nil {
		return err
	}
	defer upsert.Close()
	clear, err := tx.PrepareContext(ctx, `DELETE FROM total_stacks WHERE actor_id = ?`)
	if err != nil {
		return err
	}
	defer clear.Close()
	insert, err := tx.PrepareContext(ctx, `INSERT INTO total_stacks(actor_id,oven_kind,value) VALUES(?,?,?)`)
	if err != nil {
		return err
	}
	defer insert.Close()

	for _, r := range recs {
		if r.ActorID == "" {
			return fmt.Errorf("save options: empty actor id")
		}
		enabled := 0
		if r.Enabled {
			enabled = 1
		}
		if _, err := clear.ExecContext(ctx, r.ActorID); err != nil {
			return err
		}
		if _, err := upsert.ExecContext(ctx, r.ActorID, enabled, now); err != nil {
			return err
		}
		kinds := make([]string, 0, len(r.TotalStacks))
		for k := range r.TotalStacks {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			if _, err := insert.ExecContext(ctx, r.ActorID, k, r.TotalStacks[k]); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}
