package monitor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"dou-job-monitor/internal/filter"
	"dou-job-monitor/internal/scraper"
	"dou-job-monitor/internal/watermark"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	jobs []scraper.Job
	err  error
}

func (f *fakeSource) GetJobs(ctx context.Context) ([]scraper.Job, error) {
	return f.jobs, f.err
}

func (f *fakeSource) Name() string { return "fake" }

type memoryStore struct {
	last     *watermark.Watermark
	getErr   error
	saveErr  error
	saves    int
	lastSave watermark.Watermark
}

func (m *memoryStore) GetLastJob(ctx context.Context) (*watermark.Watermark, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.last, nil
}

func (m *memoryStore) SaveLastJob(ctx context.Context, w watermark.Watermark) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.lastSave = w
	m.last = &w
	return nil
}

func (m *memoryStore) Close() error { return nil }

type fakeNotifier struct {
	reported [][]scraper.Job
	noJobs   int
	err      error
}

func (f *fakeNotifier) ReportJobs(jobs []scraper.Job) error {
	if f.err != nil {
		return f.err
	}
	f.reported = append(f.reported, jobs)
	return nil
}

func (f *fakeNotifier) ReportNoJobs() error {
	f.noJobs++
	return nil
}

func listing() []scraper.Job {
	return []scraper.Job{
		{Title: "Senior QA", Company: "Acme"},
		{Title: "QA Python", Company: "Beta"},
		{Title: "QA", Company: "Acme"},
	}
}

func TestRun_FirstRunReportsEverything(t *testing.T) {
	store := &memoryStore{}
	notifier := &fakeNotifier{}
	m := New(&fakeSource{jobs: listing()}, store, notifier, filter.Options{})

	sum, err := m.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, notifier.reported, 1)
	assert.Equal(t, listing(), notifier.reported[0])
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, "Senior QA", store.lastSave.JobTitle)
	assert.Equal(t, "Acme", store.lastSave.CompanyName)

	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 3, sum.Fetched)
	assert.Equal(t, 3, sum.New)
	assert.True(t, sum.Notified)
	assert.True(t, sum.WatermarkSaved)
}

func TestRun_SecondRunOnSameListingIsQuiet(t *testing.T) {
	store := &memoryStore{}
	notifier := &fakeNotifier{}
	m := New(&fakeSource{jobs: listing()}, store, notifier, filter.Options{})

	_, err := m.Run(context.Background())
	require.NoError(t, err)
	sum, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, notifier.reported, 1, "nothing new on the second run")
	assert.Equal(t, 1, notifier.noJobs)
	assert.Equal(t, 0, sum.New)
	assert.False(t, sum.Notified)
}

func TestRun_ExcludedTermsAfterWatermark(t *testing.T) {
	store := &memoryStore{last: &watermark.Watermark{JobTitle: "QA", CompanyName: "Acme"}}
	notifier := &fakeNotifier{}
	m := New(&fakeSource{jobs: listing()}, store, notifier, filter.Options{ExcludedTerms: []string{"Python"}})

	sum, err := m.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, notifier.reported, 1)
	assert.Equal(t, []scraper.Job{{Title: "Senior QA", Company: "Acme"}}, notifier.reported[0])
	assert.Equal(t, "Senior QA", store.lastSave.JobTitle)
	assert.Equal(t, 1, sum.New)
}

func TestRun_EverythingFilteredStillAdvancesWatermark(t *testing.T) {
	store := &memoryStore{}
	notifier := &fakeNotifier{}
	opts := filter.Options{ExcludedCompanies: []string{"Acme", "Beta"}}
	m := New(&fakeSource{jobs: listing()}, store, notifier, opts)

	sum, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, notifier.reported)
	assert.Equal(t, 1, notifier.noJobs)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, "Senior QA", store.lastSave.JobTitle, "watermark follows the raw listing, not the filtered one")
	assert.True(t, sum.WatermarkSaved)
}

func TestRun_SourceFailureIsEmptyListing(t *testing.T) {
	store := &memoryStore{last: &watermark.Watermark{JobTitle: "QA", CompanyName: "Acme"}}
	notifier := &fakeNotifier{}
	m := New(&fakeSource{err: errors.New("connection reset")}, store, notifier, filter.Options{})

	sum, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, notifier.reported)
	assert.Equal(t, 1, notifier.noJobs)
	assert.Zero(t, store.saves, "empty fetch leaves the watermark alone")
	assert.Nil(t, sum.Watermark)
	assert.Equal(t, "QA", store.last.JobTitle)
}

func TestRun_UnreadableWatermarkReportsEverything(t *testing.T) {
	store := &memoryStore{getErr: errors.New("disk on fire")}
	notifier := &fakeNotifier{}
	m := New(&fakeSource{jobs: listing()}, store, notifier, filter.Options{})

	_, err := m.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, notifier.reported, 1)
	assert.Len(t, notifier.reported[0], 3)
	assert.Equal(t, 1, store.saves)
}

func TestRun_WatermarkWriteFailureIsNotFatal(t *testing.T) {
	store := &memoryStore{saveErr: errors.New("read-only filesystem")}
	notifier := &fakeNotifier{}
	m := New(&fakeSource{jobs: listing()}, store, notifier, filter.Options{})

	sum, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, notifier.reported, 1)
	assert.True(t, sum.Notified)
	assert.False(t, sum.WatermarkSaved)
	require.NotNil(t, sum.Watermark)
	assert.Equal(t, "Senior QA", sum.Watermark.JobTitle)
}

func TestRun_DeliveryFailureStillAdvancesWatermark(t *testing.T) {
	store := &memoryStore{last: &watermark.Watermark{JobTitle: "QA", CompanyName: "Acme"}}
	notifier := &fakeNotifier{err: errors.New("telegram down")}
	m := New(&fakeSource{jobs: listing()}, store, notifier, filter.Options{})

	sum, err := m.Run(context.Background())
	assert.ErrorContains(t, err, "telegram down")

	assert.Equal(t, 1, store.saves)
	assert.Equal(t, "Senior QA", store.last.JobTitle)
	assert.True(t, sum.WatermarkSaved)
	assert.False(t, sum.Notified)
	assert.Equal(t, 2, sum.New)
}

func TestRun_WatermarkAtHead(t *testing.T) {
	store := &memoryStore{last: &watermark.Watermark{JobTitle: "Senior QA", CompanyName: "Acme"}}
	notifier := &fakeNotifier{}
	m := New(&fakeSource{jobs: listing()}, store, notifier, filter.Options{})

	sum, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, notifier.reported)
	assert.Equal(t, 1, notifier.noJobs)
	assert.Equal(t, 0, sum.New)
	assert.Equal(t, "Senior QA", store.lastSave.JobTitle)
}

func TestRun_BlankCompanyAtHeadIsQuietOnSecondRun(t *testing.T) {
	store, err := watermark.NewFileStore(filepath.Join(t.TempDir(), "last_job.json"))
	require.NoError(t, err)
	defer store.Close()

	jobs := []scraper.Job{
		{Title: "QA Engineer", Company: ""},
		{Title: "Senior QA", Company: "Acme"},
	}
	notifier := &fakeNotifier{}
	m := New(&fakeSource{jobs: jobs}, store, notifier, filter.Options{})

	_, err = m.Run(context.Background())
	require.NoError(t, err)
	sum, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, notifier.reported, 1, "unchanged listing is reported once")
	assert.Equal(t, 0, sum.New)
	assert.Equal(t, 1, notifier.noJobs)
}
