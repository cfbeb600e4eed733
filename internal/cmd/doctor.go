package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/valuation/internal/errors"
	"github.com/felixgeelhaar/valuation/internal/health"
	"github.com/felixgeelhaar/valuation/internal/version"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that a valuation can be completed",
	Long: `Check the dependencies of a conversation:

  • valuation backend reachability
  • questionnaire validity
  • preferences file writability
  • Telegram bot token

Exits with an error when any check is unhealthy.

Examples:
  valuation doctor
  valuation doctor --json`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

var doctorJSON bool

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.checks()
	if err != nil {
		return err
	}
	token := a.cfg.Telegram.Token
	m.Add(health.Func("telegram-token", func(context.Context) *health.Result {
		if token == "" {
			return health.Degraded("not configured, the telegram command is unavailable").
				WithDetail("suggestion", "Set TELEGRAM_BOT_TOKEN")
		}
		return health.Healthy("configured")
	}))

	report := m.Check(cmd.Context())
	report.Version = version.Version
	a.logger.Debug("health checks finished", "status", report.Status.String())

	out := cmd.OutOrStdout()
	if doctorJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return errors.Wrap(errors.ErrCodeFileMarshal, "failed to marshal report", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		printReport(out, report)
	}

	if report.Status == health.StatusUnhealthy {
		return fmt.Errorf("health check failed")
	}
	return nil
}

func printReport(w io.Writer, report *health.Report) {
	for _, c := range report.Checks {
		icon := "✓"
		switch c.Status {
		case health.StatusDegraded:
			icon = "⚠"
		case health.StatusUnhealthy:
			icon = "✗"
		}
		fmt.Fprintf(w, "  %s %s: %s\n", icon, c.Name, c.Message)

		keys := make([]string, 0, len(c.Details))
		for k := range c.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "      %s: %v\n", k, c.Details[k])
		}
	}
	fmt.Fprintf(w, "\nStatus: %s\n", report.Status)
}
