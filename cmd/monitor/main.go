// Command monitor watches DOU vacancies and posts new ones to Telegram.
package main

import (
	"fmt"
	"os"

	"dou-job-monitor/internal/config"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "monitor",
	Short: "DOU vacancy monitor",
	Long: `Fetches the newest DOU vacancies, drops everything at or below the stored watermark,
filters excluded terms and companies and sends what is left to a Telegram chat.

Use "run" under an external scheduler (cron, systemd timer, CI) or "watch" to keep the
process alive with its own schedule.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to config.yaml (env vars override file values)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
