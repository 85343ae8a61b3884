// Package monitor runs one fetch, filter, notify and watermark cycle.
//
// Collaborator failures degrade to safe defaults: a failed fetch is an empty
// listing, an unreadable watermark is an absent one, and a failed watermark
// write is only logged. Delivery is the one failure Run returns.
package monitor

import (
	"context"
	"fmt"
	"log"

	"dou-job-monitor/internal/filter"
	"dou-job-monitor/internal/scraper"
	"dou-job-monitor/internal/watermark"

	"github.com/google/uuid"
)

// Notifier delivers the outcome of a run.
type Notifier interface {
	ReportJobs(jobs []scraper.Job) error
	ReportNoJobs() error
}

// Summary describes what a run did.
type Summary struct {
	RunID   string
	Fetched int
	// New is the number of jobs that survived the filter pipeline.
	New      int
	Notified bool
	// Watermark is the value the run tried to save, nil when the fetch was empty.
	Watermark      *watermark.Watermark
	WatermarkSaved bool
}

type Monitor struct {
	source   scraper.Source
	store    watermark.Store
	notifier Notifier
	opts     filter.Options
}

func New(source scraper.Source, store watermark.Store, notifier Notifier, opts filter.Options) *Monitor {
	return &Monitor{
		source:   source,
		store:    store,
		notifier: notifier,
		opts:     opts,
	}
}

func (m *Monitor) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}
	log.Printf("🚀 Run %s started (source: %s)", sum.RunID, m.source.Name())

	jobs := m.fetchJobs(ctx)
	sum.Fetched = len(jobs)
	if len(jobs) == 0 {
		log.Println("ℹ️ No jobs fetched, watermark left as is")
		return sum, m.reportNoJobs(sum)
	}

	last := m.lastJob(ctx)
	fresh := filter.Run(jobs, last, m.opts)
	sum.New = len(fresh)

	newest := watermark.FromJob(jobs[0])
	sum.Watermark = &newest
	sum.WatermarkSaved = m.saveLastJob(ctx, newest)

	if len(fresh) == 0 {
		log.Println("ℹ️ No new jobs to report after filtering")
		return sum, m.reportNoJobs(sum)
	}

	log.Printf("📊 Found %d new jobs to send", len(fresh))
	for _, job := range fresh {
		log.Printf("  • %s @ %s", job.Title, job.Company)
	}
	if err := m.notifier.ReportJobs(fresh); err != nil {
		log.Printf("❌ Run %s failed to deliver notification: %v", sum.RunID, err)
		return sum, fmt.Errorf("deliver notification: %w", err)
	}
	sum.Notified = true

	log.Printf("🏁 Run %s finished: %d fetched, %d sent", sum.RunID, sum.Fetched, sum.New)
	return sum, nil
}

func (m *Monitor) fetchJobs(ctx context.Context) []scraper.Job {
	jobs, err := m.source.GetJobs(ctx)
	if err != nil {
		log.Printf("⚠️ Error getting jobs from %s: %v", m.source.Name(), err)
		return nil
	}
	log.Printf("✅ %s returned %d jobs", m.source.Name(), len(jobs))
	return jobs
}

func (m *Monitor) lastJob(ctx context.Context) *watermark.Watermark {
	last, err := m.store.GetLastJob(ctx)
	if err != nil {
		log.Printf("⚠️ Failed to get last job, treating every job as new: %v", err)
		return nil
	}
	if last != nil {
		log.Printf("📋 Last job: %s", last)
	}
	return last
}

func (m *Monitor) saveLastJob(ctx context.Context, w watermark.Watermark) bool {
	if err := m.store.SaveLastJob(ctx, w); err != nil {
		log.Printf("⚠️ Failed to save last job %s: %v", w, err)
		return false
	}
	return true
}

func (m *Monitor) reportNoJobs(sum Summary) error {
	if err := m.notifier.ReportNoJobs(); err != nil {
		log.Printf("❌ Run %s failed to deliver status: %v", sum.RunID, err)
		return fmt.Errorf("deliver notification: %w", err)
	}
	log.Printf("🏁 Run %s finished: %d fetched, nothing new", sum.RunID, sum.Fetched)
	return nil
}
