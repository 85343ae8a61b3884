package dou

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"dou-job-monitor/internal/config"
	"dou-job-monitor/internal/scraper"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "Mozilla/5.0 (compatible; dou-job-monitor/1.0)"

// DOUScraper reads the jobs.dou.ua vacancy list: the first page plus one
// "load more" XHR page.
type DOUScraper struct {
	cfg     config.SourceConfig
	hc      *http.Client
	limiter *rate.Limiter
}

func NewDOUScraper(cfg config.SourceConfig) *DOUScraper {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &DOUScraper{
		cfg:     cfg,
		hc:      &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (s *DOUScraper) Name() string {
	return "DOU"
}

// GetJobs fails only when the first page cannot be loaded. A failed "load more"
// request is logged and the first page is returned on its own.
func (s *DOUScraper) GetJobs(ctx context.Context) ([]scraper.Job, error) {
	log.Printf("📋 Searching DOU.ua (%s)...", s.listURL())

	page, csrfToken, err := s.loadPage(ctx)
	if err != nil {
		return nil, err
	}
	jobs, err := s.parseJobs(strings.NewReader(page), "#vacancyListId .l-vacancy", ".__hot")
	if err != nil {
		return nil, fmt.Errorf("dou parse vacancy list: %w", err)
	}
	log.Printf("  📄 First page: %d jobs", len(jobs))

	if s.cfg.LoadMore <= 0 {
		return jobs, nil
	}
	if csrfToken == "" {
		log.Println("⚠️ CSRF token not available. Cannot load more jobs.")
		return jobs, nil
	}

	more, err := s.loadMoreJobs(ctx, csrfToken)
	if err != nil {
		log.Printf("⚠️ Error loading more jobs: %v", err)
		return jobs, nil
	}
	log.Printf("  📄 Load more: %d jobs", len(more))

	return append(jobs, more...), nil
}

func (s *DOUScraper) query() string {
	if s.cfg.Category == "" {
		return ""
	}
	return "remote=&category=" + url.QueryEscape(s.cfg.Category)
}

func (s *DOUScraper) listURL() string {
	if q := s.query(); q != "" {
		return s.cfg.URL + "?" + q
	}
	return s.cfg.URL
}

func (s *DOUScraper) xhrURL() string {
	u := strings.TrimSuffix(s.cfg.URL, "/") + "/xhr-load/"
	if q := s.query(); q != "" {
		return u + "?" + q
	}
	return u
}

// loadPage returns the listing HTML and the csrftoken cookie, if any.
func (s *DOUScraper) loadPage(ctx context.Context) (string, string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.listURL(), nil)
	if err != nil {
		return "", "", fmt.Errorf("dou build request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	res, err := s.hc.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("dou get vacancies: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return "", "", fmt.Errorf("dou vacancies status %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", "", fmt.Errorf("dou read vacancies: %w", err)
	}

	var csrfToken string
	for _, c := range res.Cookies() {
		if c.Name == "csrftoken" {
			csrfToken = c.Value
			break
		}
	}
	return string(body), csrfToken, nil
}

type loadMoreResponse struct {
	HTML string `json:"html"`
	Last bool   `json:"last"`
	Num  int    `json:"num"`
}

func (s *DOUScraper) loadMoreJobs(ctx context.Context, csrfToken string) ([]scraper.Job, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	form := url.Values{
		"csrfmiddlewaretoken": {csrfToken},
		"count":               {strconv.Itoa(s.cfg.LoadMore)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.xhrURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build xhr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", s.listURL())
	if base, err := url.Parse(s.cfg.URL); err == nil {
		req.Header.Set("Origin", base.Scheme+"://"+base.Host)
	}
	req.AddCookie(&http.Cookie{Name: "csrftoken", Value: csrfToken})

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post xhr-load: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("xhr-load status %d", res.StatusCode)
	}

	var payload loadMoreResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode xhr-load: %w", err)
	}
	if payload.HTML == "" {
		return nil, nil
	}
	return s.parseJobs(strings.NewReader(payload.HTML), ".l-vacancy", "")
}

// parseJobs extracts one job per vacancy node, keeping document order.
func (s *DOUScraper) parseJobs(r io.Reader, selector, skip string) ([]scraper.Job, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	nodes := doc.Find(selector)
	if skip != "" {
		nodes = nodes.Not(skip)
	}

	jobs := make([]scraper.Job, 0, nodes.Length())
	nodes.Each(func(_ int, v *goquery.Selection) {
		jobs = append(jobs, s.jobFromNode(v))
	})
	return jobs, nil
}

func (s *DOUScraper) jobFromNode(v *goquery.Selection) scraper.Job {
	link := v.Find(".vt").First()
	href, _ := link.Attr("href")

	return scraper.Job{
		Title:      cleanText(link.Text()),
		Company:    cleanText(v.Find(".company").First().Text()),
		PostedDate: cleanText(v.Find(".date").First().Text()),
		Location:   cleanText(v.Find(".cities").First().Text()),
		URL:        s.absoluteURL(href),
		Salary:     cleanText(v.Find(".salary").First().Text()),
	}
}

func (s *DOUScraper) absoluteURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	base, err := url.Parse(s.cfg.URL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// cleanText composes Unicode, turns no-break spaces into spaces and collapses runs of whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
