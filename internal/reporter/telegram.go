// Package reporter renders filtered jobs into Telegram messages.
package reporter

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"dou-job-monitor/internal/scraper"
)

// Telegram rejects messages longer than this many UTF-16 code units.
const telegramMessageLimit = 4096

// Sender delivers one rendered MarkdownV2 message.
type Sender interface {
	SendMessage(text string) error
}

type Options struct {
	Title       string
	MaxJobs     int
	NotifyEmpty bool
}

type TelegramReporter struct {
	sender Sender
	opts   Options
}

func NewTelegramReporter(sender Sender, opts Options) *TelegramReporter {
	if opts.MaxJobs <= 0 {
		opts.MaxJobs = 20
	}
	return &TelegramReporter{
		sender: sender,
		opts:   opts,
	}
}

// ReportJobs sends the rendered jobs, split into as many messages as the size limit requires.
func (t *TelegramReporter) ReportJobs(jobs []scraper.Job) error {
	if len(jobs) == 0 {
		return t.ReportNoJobs()
	}
	messages := t.FormatJobs(jobs)
	for i, text := range messages {
		if err := t.sender.SendMessage(text); err != nil {
			return fmt.Errorf("send message %d/%d: %w", i+1, len(messages), err)
		}
	}
	return nil
}

// ReportNoJobs sends a short status line, only when NotifyEmpty is set.
func (t *TelegramReporter) ReportNoJobs() error {
	if !t.opts.NotifyEmpty {
		return nil
	}
	if err := t.sender.SendMessage(escapeMarkdown("ℹ️ No new vacancies found")); err != nil {
		return fmt.Errorf("send status: %w", err)
	}
	return nil
}

// FormatJobs renders at most MaxJobs jobs, one paragraph each.
func (t *TelegramReporter) FormatJobs(jobs []scraper.Job) []string {
	shown := jobs
	if len(shown) > t.opts.MaxJobs {
		shown = shown[:t.opts.MaxJobs]
	}

	paragraphs := make([]string, 0, len(shown)+2)
	if t.opts.Title != "" {
		paragraphs = append(paragraphs, "*"+escapeMarkdown(t.opts.Title)+"*\n\n")
	}
	for _, job := range shown {
		paragraphs = append(paragraphs, fitJob(job, telegramMessageLimit))
	}
	if hidden := len(jobs) - len(shown); hidden > 0 {
		paragraphs = append(paragraphs, escapeMarkdown(fmt.Sprintf("...and %d more", hidden)))
	}

	return pack(paragraphs, telegramMessageLimit)
}

func formatJob(job scraper.Job) string {
	var sb strings.Builder

	if job.URL != "" {
		sb.WriteString(fmt.Sprintf("[%s](%s)", escapeMarkdown(job.Title), escapeURL(job.URL)))
	} else {
		sb.WriteString(escapeMarkdown(job.Title))
	}
	sb.WriteString(" @ " + escapeMarkdown(job.Company) + "\n")
	sb.WriteString("🗓️ Posted: " + escapeMarkdown(job.PostedDate) + "\n")
	sb.WriteString("📍 Locations: " + escapeMarkdown(job.Location) + "\n")
	if job.Salary != "" {
		sb.WriteString("💰 Salary: " + escapeMarkdown(job.Salary) + "\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// fitJob renders job within limit. Oversized links are dropped first, then the
// longest text field is shortened with an ellipsis until the paragraph fits.
func fitJob(job scraper.Job, limit int) string {
	if utf16Len(escapeURL(job.URL)) > limit/2 {
		job.URL = ""
	}

	p := formatJob(job)
	for utf16Len(p) > limit {
		if f := longestField(&job); f != nil {
			*f = shorten(*f, utf16Len(p)-limit)
		} else if job.URL != "" {
			job.URL = ""
		} else {
			break
		}
		p = formatJob(job)
	}
	return p
}

// longestField returns the text field with the most runes, nil when none can be shortened further.
func longestField(job *scraper.Job) *string {
	var longest *string
	n := 2
	for _, f := range []*string{&job.Title, &job.Company, &job.PostedDate, &job.Location, &job.Salary} {
		if l := utf8.RuneCountInString(*f); l > n {
			longest, n = f, l
		}
	}
	return longest
}

// shorten drops at least over runes from s (len > 2) and marks the cut.
func shorten(s string, over int) string {
	runes := []rune(strings.TrimSuffix(s, "…"))
	keep := max(len(runes)-over-1, 1)
	return string(runes[:keep]) + "…"
}

// pack joins paragraphs into messages no longer than limit. A paragraph is never split.
func pack(paragraphs []string, limit int) []string {
	var messages []string
	var current strings.Builder
	size := 0

	for _, p := range paragraphs {
		n := utf16Len(p)
		if size > 0 && size+n > limit {
			messages = append(messages, strings.TrimRight(current.String(), "\n"))
			current.Reset()
			size = 0
		}
		current.WriteString(p)
		size += n
	}
	if size > 0 {
		messages = append(messages, strings.TrimRight(current.String(), "\n"))
	}
	return messages
}

func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

var markdownReplacer = strings.NewReplacer(
	"\\", "\\\\",
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
	")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
	"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
	"}", "\\}", ".", "\\.", "!", "\\!",
)

func escapeMarkdown(text string) string {
	return markdownReplacer.Replace(text)
}

var urlReplacer = strings.NewReplacer("\\", "\\\\", ")", "\\)")

// escapeURL escapes the characters MarkdownV2 reserves inside the (...) part of a link.
func escapeURL(u string) string {
	return urlReplacer.Replace(u)
}
