package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/valuation/internal/theme"
	"github.com/felixgeelhaar/valuation/internal/tui"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Show or change the display theme",
	Long: `Show or change the light/dark preference used by the terminal chat.

Without a subcommand, an interactive terminal offers a selection; otherwise
the current theme is printed.

Examples:
  valuation theme get
  valuation theme set dark
  valuation theme toggle`,
	Args: cobra.NoArgs,
	RunE: runTheme,
}

var themeGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current theme",
	Args:  cobra.NoArgs,
	RunE:  runThemeGet,
}

var themeSetCmd = &cobra.Command{
	Use:       "set <light|dark>",
	Short:     "Store a theme",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(theme.Light), string(theme.Dark)},
	RunE:      runThemeSet,
}

var themeToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Switch between light and dark",
	Args:  cobra.NoArgs,
	RunE:  runThemeToggle,
}

func init() {
	themeCmd.AddCommand(themeGetCmd)
	themeCmd.AddCommand(themeSetCmd)
	themeCmd.AddCommand(themeToggleCmd)

	rootCmd.AddCommand(themeCmd)
}

func openThemes(cmd *cobra.Command) (*theme.Store, func(), error) {
	a, err := setup(cmd, false)
	if err != nil {
		return nil, nil, err
	}
	store, err := a.themes()
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	return store, func() { _ = a.Close() }, nil
}

func runTheme(cmd *cobra.Command, args []string) error {
	if !tui.ShouldPrompt() {
		return runThemeGet(cmd, args)
	}

	store, done, err := openThemes(cmd)
	if err != nil {
		return err
	}
	defer done()

	choice, err := tui.PromptForSelect("Tema", []tui.Option{
		{Label: "Claro", Value: string(theme.Light)},
		{Label: "Escuro", Value: string(theme.Dark)},
	}, string(store.Current()))
	if err != nil {
		return err
	}

	t, err := theme.Parse(choice)
	if err != nil {
		return err
	}
	if err := store.Set(t); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Label())
	return nil
}

func runThemeGet(cmd *cobra.Command, args []string) error {
	store, done, err := openThemes(cmd)
	if err != nil {
		return err
	}
	defer done()

	fmt.Fprintln(cmd.OutOrStdout(), store.Current())
	return nil
}

func runThemeSet(cmd *cobra.Command, args []string) error {
	t, err := theme.Parse(args[0])
	if err != nil {
		return err
	}

	store, done, err := openThemes(cmd)
	if err != nil {
		return err
	}
	defer done()

	if err := store.Set(t); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), t)
	return nil
}

func runThemeToggle(cmd *cobra.Command, args []string) error {
	store, done, err := openThemes(cmd)
	if err != nil {
		return err
	}
	defer done()

	t, err := store.Toggle()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), t)
	return nil
}
