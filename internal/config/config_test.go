package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_YAMLAndDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram_token: "123:abc"
telegram_chat_id: 42
cache_path: /tmp/monitor-cache
filters:
  excluded_terms: ["Python", " java ", "", "python"]
  excluded_companies: ["Acme"]
source:
  timeout: 5s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, int64(42), cfg.TelegramChatID)
	assert.Equal(t, []string{"Python", "java"}, cfg.Filters.ExcludedTerms)
	assert.Equal(t, []string{"Acme"}, cfg.Filters.ExcludedCompanies)
	assert.Equal(t, MatchExact, cfg.Filters.CompanyMatch)
	assert.Equal(t, 5*time.Second, cfg.Source.Timeout)
	assert.Equal(t, "https://jobs.dou.ua/vacancies/", cfg.Source.URL)
	assert.Equal(t, "QA", cfg.Source.Category)
	assert.Equal(t, 20, cfg.Source.LoadMore)
	assert.Equal(t, 20, cfg.Message.MaxJobs)
	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.Equal(t, filepath.Join("/tmp/monitor-cache", "last_job.json"), cfg.Store.Path)
	assert.Equal(t, filepath.Join("/tmp/monitor-cache", "monitor.lock"), cfg.LockPath)
	assert.Equal(t, "@every 30m", cfg.Schedule)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
telegram_token: "from-yaml"
telegram_chat_id: 1
filters:
  excluded_terms: ["Lead"]
`)
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200300")
	t.Setenv("EXCLUDED_TERMS", "Python, Java,,C#")
	t.Setenv("EXCLUDED_COMPANIES", "Acme,Beta")
	t.Setenv("COMPANY_MATCH", "Substring")
	t.Setenv("MAX_JOBS_PER_MESSAGE", "30")
	t.Setenv("WATERMARK_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", "/var/lib/monitor.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.TelegramToken)
	assert.Equal(t, int64(-100200300), cfg.TelegramChatID)
	assert.Equal(t, []string{"Python", "Java", "C#"}, cfg.Filters.ExcludedTerms)
	assert.Equal(t, []string{"Acme", "Beta"}, cfg.Filters.ExcludedCompanies)
	assert.Equal(t, MatchSubstring, cfg.Filters.CompanyMatch)
	assert.Equal(t, 30, cfg.Message.MaxJobs)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "/var/lib/monitor.db", cfg.Store.SQLitePath)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_LoadMore(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  string
		want int
	}{
		{name: "unset uses default", body: "source:\n  category: QA\n", want: 20},
		{name: "explicit zero disables", body: "source:\n  load_more: 0\n", want: 0},
		{name: "explicit value", body: "source:\n  load_more: 40\n", want: 40},
		{name: "env zero disables", body: "source:\n  load_more: 40\n", env: "0", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv("DOU_LOAD_MORE", tt.env)
			}
			cfg, err := Load(writeConfig(t, tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Source.LoadMore)
		})
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DOU_CATEGORY=Python\n"), 0o644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	// restored to unset on cleanup
	t.Setenv("DOU_CATEGORY", "")
	require.NoError(t, os.Unsetenv("DOU_CATEGORY"))

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Python", cfg.Source.Category)
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "7")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "tok", cfg.TelegramToken)
	assert.Equal(t, 20, cfg.Source.LoadMore)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "filters: [unclosed")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("bad chat id", func(t *testing.T) {
		t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "TELEGRAM_CHAT_ID")
	})

	t.Run("bad load more", func(t *testing.T) {
		t.Setenv("DOU_LOAD_MORE", "lots")
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "DOU_LOAD_MORE")
	})

	t.Run("bad max jobs", func(t *testing.T) {
		t.Setenv("MAX_JOBS_PER_MESSAGE", "many")
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "MAX_JOBS_PER_MESSAGE")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{TelegramToken: "tok", TelegramChatID: 1}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing token", mutate: func(c *Config) { c.TelegramToken = "" }, wantErr: "TelegramToken"},
		{name: "missing chat", mutate: func(c *Config) { c.TelegramChatID = 0 }, wantErr: "TelegramChatID"},
		{name: "unknown match mode", mutate: func(c *Config) { c.Filters.CompanyMatch = "fuzzy" }, wantErr: "CompanyMatch"},
		{name: "max jobs too large", mutate: func(c *Config) { c.Message.MaxJobs = 500 }, wantErr: "MaxJobs"},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "mongo" }, wantErr: "Backend"},
		{name: "postgres without url", mutate: func(c *Config) { c.Store.Backend = BackendPostgres }, wantErr: "DatabaseURL"},
		{name: "redis without url", mutate: func(c *Config) { c.Store.Backend = BackendRedis }, wantErr: "RedisURL"},
		{name: "postgres with url", mutate: func(c *Config) {
			c.Store.Backend = BackendPostgres
			c.Store.DatabaseURL = "postgres://localhost/monitor"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
