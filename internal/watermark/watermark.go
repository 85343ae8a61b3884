// Package watermark persists the identity of the newest listing a run has seen,
// so the next run only reports what was posted after it.
package watermark

import (
	"context"
	"fmt"
	"time"

	"dou-job-monitor/internal/config"
	"dou-job-monitor/internal/scraper"
)

// Watermark identifies the most recently seen listing by title and company.
type Watermark struct {
	JobTitle    string    `json:"job_title"`
	CompanyName string    `json:"company_name"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FromJob builds the watermark for a listing.
func FromJob(job scraper.Job) Watermark {
	return Watermark{JobTitle: job.Title, CompanyName: job.Company}
}

// Matches reports whether job carries the watermark identity. Exact and case-sensitive.
func (w Watermark) Matches(job scraper.Job) bool {
	return job.Title == w.JobTitle && job.Company == w.CompanyName
}

func (w Watermark) String() string {
	return fmt.Sprintf("%s | %s", w.JobTitle, w.CompanyName)
}

// Store reads and writes the single watermark record.
type Store interface {
	// GetLastJob returns (nil, nil) when no watermark has been saved yet.
	GetLastJob(ctx context.Context) (*Watermark, error)
	SaveLastJob(ctx context.Context, w Watermark) error
	Close() error
}

// Open builds the store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		s, err := NewFileStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendSQLite:
		s, err := NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendPostgres:
		s, err := ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendRedis:
		s, err := ConnectRedis(ctx, cfg.RedisURL, cfg.RedisKey)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown watermark backend %q", cfg.Backend)
	}
}

// recorded reports whether a stored record carries a watermark. Only the title
// is required; listings without a company are valid watermarks.
func recorded(title string) bool {
	return title != ""
}
