package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var runTimeout time.Duration

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the monitor once and exit",
	Long:  `Fetches, filters and notifies once. Exits non-zero when the lock is held, the config is invalid or Telegram delivery fails.`,
	RunE:  runOnceCmd,
}

func init() {
	runCommand.Flags().DurationVar(&runTimeout, "timeout", 2*time.Minute, "Upper bound for the whole run")
	rootCmd.AddCommand(runCommand)
}

func runOnceCmd(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.runOnce(ctx)
}
