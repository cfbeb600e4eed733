package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/valuation/internal/errors"
	"github.com/felixgeelhaar/valuation/internal/health"
	"github.com/felixgeelhaar/valuation/internal/metrics"
	"github.com/felixgeelhaar/valuation/internal/telegram"
	"github.com/felixgeelhaar/valuation/internal/version"
)

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Run the valuation chat as a Telegram bot",
	Long: `Serve the valuation questions to Telegram users until interrupted. Every
chat gets its own conversation; ratings are answered with inline buttons.

The bot token is read from TELEGRAM_BOT_TOKEN or telegram.token in the config.
With --metrics-addr (or VALUATION_METRICS_ADDR) Prometheus metrics are served
on /metrics at that address, and the health checks of "valuation doctor" on
/healthz.`,
	Args: cobra.NoArgs,
	RunE: runTelegram,
}

var (
	telegramPacing      string
	telegramMetricsAddr string
)

func init() {
	telegramCmd.Flags().StringVar(&telegramPacing, "pacing", "", "delay before the next question, e.g. 1s (overrides config)")
	telegramCmd.Flags().StringVar(&telegramMetricsAddr, "metrics-addr", "", "serve Prometheus metrics at this address, e.g. :9090")

	rootCmd.AddCommand(telegramCmd)
}

func runTelegram(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	pacing, err := pacingOverride(a.cfg.Pacing, telegramPacing)
	if err != nil {
		return err
	}

	q, err := a.questions()
	if err != nil {
		return err
	}
	client, err := a.client()
	if err != nil {
		return err
	}

	if telegramMetricsAddr != "" {
		a.cfg.MetricsAddr = telegramMetricsAddr
	}

	a.logger.Info("starting telegram front-end",
		"endpoint", client.Endpoint(),
		"questions", len(q.Questions),
		"pacing", pacing.String(),
	)

	opts := telegram.Options{
		Submitter:  client,
		Pacing:     pacing,
		HistoryURL: a.cfg.HistoryURL,
		Logger:     a.logger,
	}
	if a.cfg.MetricsAddr == "" {
		return telegram.Run(cmd.Context(), a.cfg.Telegram.Token, q.Questions, opts)
	}

	reg, m := metrics.NewRegistry()
	opts.Metrics = m
	opts.Submitter = metrics.InstrumentSubmitter(client, m, "telegram")

	checks, err := a.checks()
	if err != nil {
		return err
	}
	healthz := metrics.Route{Pattern: "/healthz", Handler: health.Handler(checks, version.Version)}

	// The metrics server stops with the bot, whichever ends first
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return metrics.Serve(ctx, a.cfg.MetricsAddr, reg, a.logger, healthz)
	})
	g.Go(func() error {
		err := telegram.Run(ctx, a.cfg.Telegram.Token, q.Questions, opts)
		if err == nil {
			err = context.Canceled
		}
		return err
	})

	if err := g.Wait(); err != nil && !stderrors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// pacingOverride returns flag parsed as a duration, or fallback when flag is empty
func pacingOverride(fallback time.Duration, flag string) (time.Duration, error) {
	if flag == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(flag)
	if err != nil || d < 0 {
		return 0, errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("invalid --pacing value %q", flag)).
			WithSuggestion("Use a non-negative duration such as 500ms or 1s")
	}
	return d, nil
}
