package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"dou-job-monitor/internal/config"
	"dou-job-monitor/internal/filter"
	"dou-job-monitor/internal/monitor"
	"dou-job-monitor/internal/reporter"
	"dou-job-monitor/internal/runlock"
	"dou-job-monitor/internal/scraper/dou"
	"dou-job-monitor/internal/secrets"
	"dou-job-monitor/internal/telegram"
	"dou-job-monitor/internal/watermark"
)

// app holds everything a run needs. Build it once per process.
type app struct {
	cfg     *config.Config
	bot     *telegram.Bot
	store   watermark.Store
	monitor *monitor.Monitor
}

// loadConfig reads the config and falls back to the keychain for the bot token.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.TelegramToken == "" {
		token, err := secrets.GetBotToken()
		if err != nil && !errors.Is(err, secrets.ErrTokenNotFound) {
			return nil, err
		}
		if err == nil {
			log.Println("🔑 Telegram token loaded from keychain")
			cfg.TelegramToken = token
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	bot, err := telegram.NewBot(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		return nil, err
	}
	log.Println("🤖 Telegram Bot initialized.")

	store, err := watermark.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open watermark store: %w", err)
	}
	log.Printf("💾 Watermark store: %s", cfg.Store.Backend)

	rep := reporter.NewTelegramReporter(bot, reporter.Options{
		Title:       cfg.Message.Title,
		MaxJobs:     cfg.Message.MaxJobs,
		NotifyEmpty: cfg.Message.NotifyEmpty,
	})
	opts := filter.Options{
		ExcludedTerms:     cfg.Filters.ExcludedTerms,
		ExcludedCompanies: cfg.Filters.ExcludedCompanies,
		CompanyMatch:      filter.CompanyMatch(cfg.Filters.CompanyMatch),
	}

	return &app{
		cfg:     cfg,
		bot:     bot,
		store:   store,
		monitor: monitor.New(dou.NewDOUScraper(cfg.Source), store, rep, opts),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Printf("⚠️ Failed to close watermark store: %v", err)
	}
}

// runOnce executes one monitor run under the cross-process lock and reports
// failures to the chat.
func (a *app) runOnce(ctx context.Context) error {
	lock, err := runlock.Acquire(ctx, a.cfg.LockPath, a.cfg.LockTimeout)
	if err != nil {
		return err
	}
	defer lock.Release()

	sum, err := a.monitor.Run(ctx)
	if err != nil {
		if sendErr := a.bot.SendError(err); sendErr != nil {
			log.Printf("⚠️ Failed to report error to Telegram: %v", sendErr)
		}
		return err
	}
	log.Printf("✅ Run %s: %d fetched, %d new, watermark saved: %t", sum.RunID, sum.Fetched, sum.New, sum.WatermarkSaved)
	return nil
}
