package main

import (
	"fmt"

	"dou-job-monitor/internal/secrets"

	"github.com/spf13/cobra"
)

var tokenCommand = &cobra.Command{
	Use:   "token",
	Short: "Manage the Telegram bot token in the OS keychain",
}

var tokenSetCommand = &cobra.Command{
	Use:   "set <token>",
	Short: "Store the bot token in the OS keychain",
	Long:  `Stores the token so TELEGRAM_BOT_TOKEN can stay out of .env and config files. An env or config token still takes precedence.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := secrets.SetBotToken(args[0]); err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🔑 Token stored in keychain (service %q)\n", secrets.KeyringService)
		return nil
	},
}

var tokenDeleteCommand = &cobra.Command{
	Use:   "delete",
	Short: "Remove the bot token from the OS keychain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return secrets.DeleteBotToken()
	},
}

func init() {
	tokenCommand.AddCommand(tokenSetCommand, tokenDeleteCommand)
	rootCmd.AddCommand(tokenCommand)
}
