package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "valuation",
	Short: "Conversational company valuation",
	Long: `valuation walks you through the questions a valuation needs, one at a
time, validates every answer and sends the result to the valuation backend.

Run it as a terminal chat or as a Telegram bot. Configuration is read from
~/.valuation/config.yaml, a .env file and VALUATION_* environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx available to every command
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.valuation/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json")
	rootCmd.PersistentFlags().String("log-file", "", "append logs to this file")
}
