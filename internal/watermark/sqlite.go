package watermark

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS last_job (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  job_title TEXT NOT NULL,
  company_name TEXT NOT NULL,
  updated_at TEXT NOT NULL
);`

// SQLiteStore keeps the watermark in a single-row table.
type SQLiteStore struct {
	conn *sql.DB
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{conn: conn}, nil
}

func (s *SQLiteStore) GetLastJob(ctx context.Context) (*Watermark, error) {
	var w Watermark
	var updatedAt string
	err := s.conn.QueryRowContext(ctx,
		`SELECT job_title, company_name, updated_at FROM last_job WHERE id = 1;`).
		Scan(&w.JobTitle, &w.CompanyName, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Println("📋 No last job found in SQLite")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last job: %w", err)
	}
	if !recorded(w.JobTitle) {
		return nil, nil
	}
	w.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &w, nil
}

func (s *SQLiteStore) SaveLastJob(ctx context.Context, w Watermark) error {
	if w.UpdatedAt.IsZero() {
		w.UpdatedAt = time.Now().UTC()
	}
	_, err := s.conn.ExecContext(ctx, `
INSERT INTO last_job (id, job_title, company_name, updated_at)
VALUES (1, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  job_title = excluded.job_title,
  company_name = excluded.company_name,
  updated_at = excluded.updated_at;`,
		w.JobTitle, w.CompanyName, w.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert last job: %w", err)
	}
	log.Printf("💾 Last job saved to SQLite: %s", w)
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
