package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/valuation/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Answer the valuation questions in the terminal",
	Long: `Start the terminal chat. Questions are asked one at a time; numbers are
validated as you type them and ratings are picked from a row of buttons.

Keys:
  enter        send the answer or pick the highlighted option
  ←/→, 1-9     move between options
  ctrl+s       calculate the valuation once every question is answered
  ctrl+n       start over
  ctrl+t       switch between light and dark mode
  ctrl+c       quit

Logs go to --log-file (or log.file in the config) and are dropped otherwise.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

var chatPacing string

func init() {
	chatCmd.Flags().StringVar(&chatPacing, "pacing", "", "delay before the next question, e.g. 500ms (overrides config)")

	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	pacing, err := pacingOverride(a.cfg.Pacing, chatPacing)
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
	themes, err := a.themes()
	if err != nil {
		return err
	}

	chat, err := tui.NewChat(q.Questions, tui.ChatOptions{
		Context:    cmd.Context(),
		Submitter:  client,
		Pacing:     pacing,
		HistoryURL: a.cfg.HistoryURL,
		Themes:     themes,
		Logger:     a.logger,
	})
	if err != nil {
		return err
	}

	opened, err := tui.RunChat(cmd.Context(), chat)
	if err != nil {
		return err
	}
	if opened != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Histórico: %s\n", opened)
	}
	return nil
}
