package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore keeps each snapshot as one JSONB row. Reads are served from
// an LRU of recently saved or loaded snapshots.
type PostgresStore struct {
	db    *sql.DB
	cache *lru.Cache[string, Snapshot]

	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgresStore(db *sql.DB, cacheSize int) (*PostgresStore, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New[string, Snapshot](cacheSize)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{db: db, cache: cache}, nil
}

// NewPostgres opens dsn with the pgx driver.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s, err := NewPostgresStore(db, 1024)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS slide_runs (
  run_id TEXT PRIMARY KEY,
  state TEXT NOT NULL,
  snapshot JSONB NOT NULL,
  created_at TIMESTAMP WITH TIME ZONE NOT NULL,
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_slide_runs_state ON slide_runs (state);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) Save(ctx context.Context, snap Snapshot) error {
	id := strings.TrimSpace(snap.RunID)
	if id == "" {
		return fmt.Errorf("run_id is required")
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO slide_runs (run_id, state, snapshot, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (run_id)
DO UPDATE SET state=EXCLUDED.state, snapshot=EXCLUDED.snapshot, updated_at=EXCLUDED.updated_at
`, id, string(snap.State), raw, snap.CreatedAt, snap.UpdatedAt)
	if err != nil {
		s.cache.Remove(id)
		return err
	}
	s.cache.Add(id, cloneSnapshot(snap))
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, runID string) (Snapshot, error) {
	id := strings.TrimSpace(runID)
	if snap, ok := s.cache.Get(id); ok {
		return cloneSnapshot(snap), nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		return Snapshot{}, err
	}
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM slide_runs WHERE run_id=$1`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	s.cache.Add(id, snap)
	return cloneSnapshot(snap), nil
}
