package filter

import (
	"dou-job-monitor/internal/scraper"
	"dou-job-monitor/internal/watermark"
)

// Chain is a fluent wrapper over the stage functions:
//
//	jobs := filter.New(raw).ByWatermark(last).ByTerms(terms).ByCompanies(companies, filter.MatchExact).Jobs()
type Chain struct {
	jobs []scraper.Job
}

// New starts a chain over jobs. The input slice is never modified.
func New(jobs []scraper.Job) *Chain {
	return &Chain{jobs: jobs}
}

// ByWatermark keeps only the jobs newer than last.
func (c *Chain) ByWatermark(last *watermark.Watermark) *Chain {
	c.jobs = ByWatermark(c.jobs, last)
	return c
}

// ByTerms drops jobs whose title contains any of terms.
func (c *Chain) ByTerms(terms []string) *Chain {
	c.jobs = ByExcludedTerms(c.jobs, terms)
	return c
}

// ByCompanies drops jobs posted by any of companies, compared per mode.
func (c *Chain) ByCompanies(companies []string, mode CompanyMatch) *Chain {
	c.jobs = ByExcludedCompanies(c.jobs, companies, mode)
	return c
}

// Jobs returns what is left after the applied stages.
func (c *Chain) Jobs() []scraper.Job {
	return c.jobs
}
