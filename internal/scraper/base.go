// Define an interface for all listing sources
// Ensure consistency

package scraper

import (
	"context"
)

// Job is one scraped vacancy. Sources return jobs newest first.
type Job struct {
	Title      string `json:"title"`
	Company    string `json:"company"`
	PostedDate string `json:"posted_date"`
	Location   string `json:"location"`
	URL        string `json:"url"`
	//empty means not disclosed
	Salary string `json:"salary,omitempty"`
}

// Source defines the interface that all listing sources must implement
type Source interface {
	//GetJobs returns the current listing, index 0 being the newest vacancy
	GetJobs(ctx context.Context) ([]Job, error)

	//Name is the platform name (DOU, ...)
	Name() string
}
