package main

import (
	"fmt"

	"dou-job-monitor/internal/config"
	"dou-job-monitor/internal/watermark"

	"github.com/spf13/cobra"
)

var watermarkCommand = &cobra.Command{
	Use:   "watermark",
	Short: "Inspect the stored watermark",
}

var watermarkShowCommand = &cobra.Command{
	Use:   "show",
	Short: "Print the stored watermark",
	Args:  cobra.NoArgs,
	RunE:  watermarkShowCmd,
}

func init() {
	watermarkCommand.AddCommand(watermarkShowCommand)
	rootCmd.AddCommand(watermarkCommand)
}

// watermarkShowCmd only needs the store section, so it skips full validation.
func watermarkShowCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := watermark.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open watermark store: %w", err)
	}
	defer store.Close()

	return printWatermark(cmd, store)
}

func printWatermark(cmd *cobra.Command, store watermark.Store) error {
	last, err := store.GetLastJob(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if last == nil {
		fmt.Fprintln(out, "no watermark stored yet")
		return nil
	}
	fmt.Fprintf(out, "title:   %s\ncompany: %s\n", last.JobTitle, last.CompanyName)
	if !last.UpdatedAt.IsZero() {
		fmt.Fprintf(out, "updated: %s\n", last.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}
