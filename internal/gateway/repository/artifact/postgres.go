package artifact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore keeps images as BYTEA rows. It cannot produce URLs.
type PostgresStore struct {
	db         *sql.DB
	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres opens a pgx-backed database/sql handle and pings it.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS slide_images (
    run_id TEXT NOT NULL,
    path TEXT NOT NULL,
    content_type TEXT NOT NULL,
    content BYTEA NOT NULL DEFAULT ''::bytea,
    size BIGINT NOT NULL,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    PRIMARY KEY (run_id, path)
);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) Put(ctx context.Context, runID, path string, obj Object) error {
	if _, err := objectKey(runID, path); err != nil {
		return err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	data := obj.Data
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO slide_images (run_id, path, content_type, content, size, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (run_id, path)
DO UPDATE SET content_type=EXCLUDED.content_type, content=EXCLUDED.content, size=EXCLUDED.size, updated_at=EXCLUDED.updated_at
`, strings.TrimSpace(runID), normalizePath(path), contentTypeOr(obj.ContentType), data, int64(len(data)), time.Now())
	return err
}

func (s *PostgresStore) Get(ctx context.Context, runID, path string) (Object, error) {
	if _, err := objectKey(runID, path); err != nil {
		return Object{}, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return Object{}, err
	}
	var obj Object
	err := s.db.QueryRowContext(ctx,
		`SELECT content_type, content FROM slide_images WHERE run_id=$1 AND path=$2`,
		strings.TrimSpace(runID), normalizePath(path),
	).Scan(&obj.ContentType, &obj.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return Object{}, ErrNotFound
	}
	return obj, err
}

func (s *PostgresStore) List(ctx context.Context, runID string) ([]string, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM slide_images WHERE run_id=$1 ORDER BY path`, strings.TrimSpace(runID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (s *PostgresStore) GetURL(context.Context, string, string) (string, error) {
	return "", ErrNoURL
}

func normalizePath(path string) string {
	return strings.TrimLeft(strings.TrimSpace(path), "/")
}
