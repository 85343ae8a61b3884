// Load envs from .env
// Load YAML config
// Override with env vars
// Provide default values

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

// defaultLoadMore is seeded before decoding so that an explicit `load_more: 0`
// turns the extra page off.
const defaultLoadMore = 20

// Watermark backends
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Company match modes
const (
	MatchExact     = "exact"
	MatchSubstring = "substring"
)

type Config struct {
	TelegramToken  string `yaml:"telegram_token" validate:"required"`
	TelegramChatID int64  `yaml:"telegram_chat_id" validate:"required"`

	Source  SourceConfig  `yaml:"source"`
	Filters FiltersConfig `yaml:"filters"`
	Message MessageConfig `yaml:"message"`
	Store   StoreConfig   `yaml:"store"`

	//cron spec used by `monitor watch`
	Schedule string `yaml:"schedule" validate:"required"`

	//Paths
	CachePath   string        `yaml:"cache_path"`
	LockPath    string        `yaml:"lock_path" validate:"required"`
	LockTimeout time.Duration `yaml:"lock_timeout" validate:"gte=0"`
}

type SourceConfig struct {
	URL               string        `yaml:"url" validate:"required,url"`
	Category          string        `yaml:"category"`
	LoadMore          int           `yaml:"load_more" validate:"gte=0,lte=200"`
	Timeout           time.Duration `yaml:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `yaml:"requests_per_second" validate:"gt=0"`
	UserAgent         string        `yaml:"user_agent"`
}

type FiltersConfig struct {
	ExcludedTerms     []string `yaml:"excluded_terms"`
	ExcludedCompanies []string `yaml:"excluded_companies"`
	CompanyMatch      string   `yaml:"company_match" validate:"oneof=exact substring"`
}

type MessageConfig struct {
	Title       string `yaml:"title"`
	MaxJobs     int    `yaml:"max_jobs" validate:"min=1,max=50"`
	NotifyEmpty bool   `yaml:"notify_empty"`
}

type StoreConfig struct {
	Backend     string `yaml:"backend" validate:"oneof=file sqlite postgres redis"`
	Path        string `yaml:"path" validate:"required_if=Backend file"`
	SQLitePath  string `yaml:"sqlite_path" validate:"required_if=Backend sqlite"`
	DatabaseURL string `yaml:"database_url" validate:"required_if=Backend postgres"`
	RedisURL    string `yaml:"redis_url" validate:"required_if=Backend redis"`
	RedisKey    string `yaml:"redis_key"`
}

// Load reads .env, the YAML file at path and the environment, then fills defaults.
// A missing YAML file is not an error. Validate is left to the caller because the
// bot token may still be resolved from the OS keychain.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	//Load yaml config
	cfg := &Config{Source: SourceConfig{LoadMore: defaultLoadMore}}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Printf("⚠️ Config file %s not found, using env and defaults", path)
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	cfg.Filters.ExcludedTerms = normalizeList(cfg.Filters.ExcludedTerms)
	cfg.Filters.ExcludedCompanies = normalizeList(cfg.Filters.ExcludedCompanies)

	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config validation failed: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.TelegramToken = token
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	if terms := os.Getenv("EXCLUDED_TERMS"); terms != "" {
		cfg.Filters.ExcludedTerms = strings.Split(terms, ",")
	}
	if companies := os.Getenv("EXCLUDED_COMPANIES"); companies != "" {
		cfg.Filters.ExcludedCompanies = strings.Split(companies, ",")
	}
	if mode := os.Getenv("COMPANY_MATCH"); mode != "" {
		cfg.Filters.CompanyMatch = strings.ToLower(strings.TrimSpace(mode))
	}

	if maxJobs := os.Getenv("MAX_JOBS_PER_MESSAGE"); maxJobs != "" {
		n, err := strconv.Atoi(maxJobs)
		if err != nil {
			return fmt.Errorf("invalid MAX_JOBS_PER_MESSAGE: %w", err)
		}
		cfg.Message.MaxJobs = n
	}

	if category := os.Getenv("DOU_CATEGORY"); category != "" {
		cfg.Source.Category = category
	}
	if loadMore := os.Getenv("DOU_LOAD_MORE"); loadMore != "" {
		n, err := strconv.Atoi(loadMore)
		if err != nil {
			return fmt.Errorf("invalid DOU_LOAD_MORE: %w", err)
		}
		cfg.Source.LoadMore = n
	}

	if backend := os.Getenv("WATERMARK_BACKEND"); backend != "" {
		cfg.Store.Backend = strings.ToLower(strings.TrimSpace(backend))
	}
	if p := os.Getenv("WATERMARK_PATH"); p != "" {
		cfg.Store.Path = p
	}
	if p := os.Getenv("SQLITE_PATH"); p != "" {
		cfg.Store.SQLitePath = p
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Store.DatabaseURL = dbURL
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cfg.Store.RedisURL = redisURL
	}

	if schedule := os.Getenv("SCHEDULE"); schedule != "" {
		cfg.Schedule = schedule
	}
	if cachePath := os.Getenv("CACHE_PATH"); cachePath != "" {
		cfg.CachePath = cachePath
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.CachePath == "" {
		cfg.CachePath = ".cache"
	}
	if cfg.LockPath == "" {
		cfg.LockPath = filepath.Join(cfg.CachePath, "monitor.lock")
	}
	if cfg.LockTimeout == 0 {
		cfg.LockTimeout = 30 * time.Second
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 30m"
	}

	if cfg.Source.URL == "" {
		cfg.Source.URL = "https://jobs.dou.ua/vacancies/"
	}
	if cfg.Source.Category == "" {
		cfg.Source.Category = "QA"
	}
	if cfg.Source.Timeout == 0 {
		cfg.Source.Timeout = 20 * time.Second
	}
	if cfg.Source.RequestsPerSecond == 0 {
		cfg.Source.RequestsPerSecond = 1
	}

	if cfg.Filters.CompanyMatch == "" {
		cfg.Filters.CompanyMatch = MatchExact
	}

	if cfg.Message.Title == "" {
		cfg.Message.Title = "📊 DOU QA vacancies"
	}
	if cfg.Message.MaxJobs == 0 {
		cfg.Message.MaxJobs = 20
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendFile
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join(cfg.CachePath, "last_job.json")
	}
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = filepath.Join(cfg.CachePath, "monitor.db")
	}
	if cfg.Store.RedisKey == "" {
		cfg.Store.RedisKey = "dou-monitor:last_job"
	}
}

// normalizeList trims entries and drops blanks and case-insensitive duplicates,
// keeping the first spelling seen.
func normalizeList(xs []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, x := range xs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		key := strings.ToLower(x)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, x)
	}
	return out
}
