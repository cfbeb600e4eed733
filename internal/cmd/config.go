package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/valuation/internal/config"
	"github.com/felixgeelhaar/valuation/internal/errors"
	"github.com/felixgeelhaar/valuation/internal/tui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or edit the valuation configuration",
	Long: `Manage the configuration stored at ~/.valuation/config.yaml

Values in the file are overridden by a .env file in the working directory
and by environment variables:

  VALUATION_ENDPOINT      valuation backend URL
  VALUATION_HISTORY_URL   report history page offered after a submission
  VALUATION_API_TOKEN     bearer token sent to the backend
  VALUATION_PACING        delay before the next question (e.g. 500ms)
  VALUATION_TIMEOUT       request timeout (default: none)
  VALUATION_QUESTIONS     custom questionnaire file
  VALUATION_PREFERENCES   preferences file holding the theme
  TELEGRAM_BOT_TOKEN      Telegram bot token
  VALUATION_METRICS_ADDR  address of the Prometheus endpoint of the bot

Examples:
  # Write a configuration file with the defaults
  valuation config init

  # Show the effective configuration
  valuation config view

  # Edit configuration in $EDITOR
  valuation config edit
`,
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Display the effective configuration",
	Long:  `Display the configuration after applying the file, .env and environment. Secrets are masked.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigView,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the defaults",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration in $EDITOR",
	Long:  `Open the configuration file in your default editor (from $EDITOR environment variable).`,
	Args:  cobra.NoArgs,
	RunE:  runConfigEdit,
}

var (
	configViewJSON  bool
	configInitForce bool
)

func init() {
	configViewCmd.Flags().BoolVar(&configViewJSON, "json", false, "output as JSON")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file without asking")

	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEditCmd)

	rootCmd.AddCommand(configCmd)
}

// configPath returns the --config flag, or the default location
func configPath(cmd *cobra.Command) (string, error) {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return "", err
	}
	if cc.ConfigFile != "" {
		return cc.ConfigFile, nil
	}
	return config.DefaultPath()
}

func runConfigView(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg.Redacted()
	out := cmd.OutOrStdout()

	if configViewJSON {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return errors.Wrap(errors.ErrCodeFileMarshal, "failed to marshal config", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	path, _ := configPath(cmd)
	fmt.Fprintf(out, "Configuration file: %s\n\n", path)

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileMarshal, "failed to marshal config", err)
	}
	fmt.Fprint(out, string(data))
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := configPath(cmd)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := configPath(cmd)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !configInitForce {
		if !tui.ShouldPrompt() {
			return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("config file already exists: %s", path)).
				WithSuggestion("Use --force to overwrite it")
		}
		overwrite, err := tui.PromptForConfirmation(fmt.Sprintf("%s já existe. Sobrescrever?", path), false)
		if err != nil {
			return err
		}
		if !overwrite {
			return nil
		}
	}

	if err := config.Default().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration written to %s\n", path)
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	path, err := configPath(cmd)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Default().Save(path); err != nil {
			return err
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	editorCmd := exec.CommandContext(cmd.Context(), editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor: %w", err)
	}

	if _, err := config.Load(path); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Configuration may contain errors. Please check and fix the configuration file.\n")
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration updated successfully")
	return nil
}
