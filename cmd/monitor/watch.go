package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dou-job-monitor/internal/scheduler"

	"github.com/spf13/cobra"
)

var (
	watchSchedule string
	watchNow      bool
	watchTimeout  time.Duration
)

var watchCommand = &cobra.Command{
	Use:   "watch",
	Short: "Keep running on a cron schedule",
	Long: `Runs the monitor on a cron schedule until interrupted. Accepts standard 5-field specs
and descriptors such as "@every 30m". Overlapping ticks are skipped.`,
	RunE: watchCmd,
}

func init() {
	watchCommand.Flags().StringVar(&watchSchedule, "schedule", "", "Cron spec (defaults to the config schedule)")
	watchCommand.Flags().BoolVar(&watchNow, "now", false, "Run once immediately before the first tick")
	watchCommand.Flags().DurationVar(&watchTimeout, "timeout", 2*time.Minute, "Upper bound for each run")
	rootCmd.AddCommand(watchCommand)
}

func watchCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if watchSchedule != "" {
		cfg.Schedule = watchSchedule
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := scheduler.New(cfg.Schedule, func(ctx context.Context) error {
		runCtx, cancel := context.WithTimeout(ctx, watchTimeout)
		defer cancel()
		return a.runOnce(runCtx)
	})
	if err != nil {
		return err
	}

	if err := s.Start(ctx, watchNow); err != nil {
		return err
	}
	log.Printf("👀 Watching DOU on %q, Ctrl+C to stop", cfg.Schedule)

	<-ctx.Done()
	log.Println("🛑 Shutting down...")
	s.Stop()
	return nil
}
