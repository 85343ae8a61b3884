package watermark

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS last_job (
  id SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
  job_title TEXT NOT NULL,
  company_name TEXT NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps the watermark in a single-row table.
type PostgresStore struct {
	db *pgxpool.Pool
}

func ConnectPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	//one read and one write per run
	config.MaxConns = 2
	config.MaxConnLifetime = time.Hour

	// Hosted poolers (PgBouncer in transaction mode) reject cached prepared statements.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &PostgresStore{db: pool}, nil
}

func (r *PostgresStore) Close() error {
	if r.db != nil {
		r.db.Close()
	}
	return nil
}

func (r *PostgresStore) GetLastJob(ctx context.Context) (*Watermark, error) {
	var w Watermark
	err := r.db.QueryRow(ctx, "SELECT job_title, company_name, updated_at FROM last_job WHERE id = 1").
		Scan(&w.JobTitle, &w.CompanyName, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		log.Println("📋 No last job found in PostgreSQL")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last job: %w", err)
	}
	if !recorded(w.JobTitle) {
		return nil, nil
	}
	return &w, nil
}

// SaveLastJob inserts the watermark row or replaces it
func (r *PostgresStore) SaveLastJob(ctx context.Context, w Watermark) error {
	if w.UpdatedAt.IsZero() {
		w.UpdatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO last_job (id, job_title, company_name, updated_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id)
		DO UPDATE SET job_title = EXCLUDED.job_title, company_name = EXCLUDED.company_name, updated_at = EXCLUDED.updated_at`

	if _, err := r.db.Exec(ctx, query, w.JobTitle, w.CompanyName, w.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save last job: %w", err)
	}
	log.Printf("💾 Last job saved to PostgreSQL: %s", w)
	return nil
}
