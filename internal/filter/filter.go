// Package filter turns a raw listing into the jobs worth notifying about.
//
// Every stage is a pure function: it never mutates its input and returns either
// the input itself (no-op) or a new, possibly shorter slice in the same order.
package filter

import (
	"log"
	"slices"
	"strings"

	"dou-job-monitor/internal/scraper"
	"dou-job-monitor/internal/watermark"
)

// CompanyMatch selects how excluded company names are compared.
type CompanyMatch string

const (
	// MatchExact excludes a job when its lower-cased company equals an entry.
	MatchExact CompanyMatch = "exact"
	// MatchSubstring excludes a job when its lower-cased company contains an entry.
	MatchSubstring CompanyMatch = "substring"
)

// Options is the per-run filter configuration.
type Options struct {
	ExcludedTerms     []string
	ExcludedCompanies []string
	CompanyMatch      CompanyMatch // empty means MatchExact
}

// ByWatermark keeps the listings strictly newer than last.
//
// jobs must be ordered newest first. When last is nil or does not occur in jobs
// the listing is returned unchanged; a match at index 0 means nothing is new.
func ByWatermark(jobs []scraper.Job, last *watermark.Watermark) []scraper.Job {
	if len(jobs) == 0 || last == nil {
		return jobs
	}

	idx := slices.IndexFunc(jobs, last.Matches)
	switch {
	case idx < 0:
		return jobs
	case idx == 0:
		return []scraper.Job{}
	default:
		//cap the prefix so appends never write into the caller's array
		return jobs[:idx:idx]
	}
}

// ByExcludedTerms drops jobs whose title contains any of terms, ignoring case.
func ByExcludedTerms(jobs []scraper.Job, terms []string) []scraper.Job {
	if len(jobs) == 0 {
		return jobs
	}
	needles := lowerNonEmpty(terms)
	if len(needles) == 0 {
		return jobs
	}

	out := make([]scraper.Job, 0, len(jobs))
	for _, job := range jobs {
		if !titleExcluded(job.Title, needles) {
			out = append(out, job)
		}
	}
	return out
}

// ByExcludedCompanies drops jobs posted by any of companies, ignoring case.
func ByExcludedCompanies(jobs []scraper.Job, companies []string, mode CompanyMatch) []scraper.Job {
	if len(jobs) == 0 {
		return jobs
	}
	needles := lowerNonEmpty(companies)
	if len(needles) == 0 {
		return jobs
	}

	out := make([]scraper.Job, 0, len(jobs))
	for _, job := range jobs {
		if !companyExcluded(job.Company, needles, mode) {
			out = append(out, job)
		}
	}
	return out
}

// IsExcludedByTerms reports whether ByExcludedTerms would drop job.
func IsExcludedByTerms(job scraper.Job, terms []string) bool {
	return titleExcluded(job.Title, lowerNonEmpty(terms))
}

// IsExcludedByCompany reports whether ByExcludedCompanies would drop job.
func IsExcludedByCompany(job scraper.Job, companies []string, mode CompanyMatch) bool {
	return companyExcluded(job.Company, lowerNonEmpty(companies), mode)
}

// Run applies the stages in their fixed order: watermark, terms, companies.
func Run(jobs []scraper.Job, last *watermark.Watermark, opts Options) []scraper.Job {
	fresh := ByWatermark(jobs, last)
	log.Printf("🔍 Filtered by last job: %d/%d jobs remaining", len(fresh), len(jobs))

	byTerms := ByExcludedTerms(fresh, opts.ExcludedTerms)
	log.Printf("🔍 Filtered by terms %v: %d/%d jobs remaining", opts.ExcludedTerms, len(byTerms), len(fresh))

	byCompany := ByExcludedCompanies(byTerms, opts.ExcludedCompanies, opts.CompanyMatch)
	log.Printf("🔍 Filtered by company %v (%s): %d/%d jobs remaining",
		opts.ExcludedCompanies, matchMode(opts.CompanyMatch), len(byCompany), len(byTerms))

	return byCompany
}

func titleExcluded(title string, needles []string) bool {
	if len(needles) == 0 {
		return false
	}
	lower := strings.ToLower(title)
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

func companyExcluded(company string, needles []string, mode CompanyMatch) bool {
	if len(needles) == 0 {
		return false
	}
	lower := strings.ToLower(company)
	substring := matchMode(mode) == MatchSubstring
	for _, n := range needles {
		if substring && strings.Contains(lower, n) {
			return true
		}
		if !substring && lower == n {
			return true
		}
	}
	return false
}

func matchMode(mode CompanyMatch) CompanyMatch {
	if mode == MatchSubstring {
		return MatchSubstring
	}
	return MatchExact
}

func lowerNonEmpty(xs []string) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if x = strings.TrimSpace(x); x != "" {
			out = append(out, strings.ToLower(x))
		}
	}
	return out
}
