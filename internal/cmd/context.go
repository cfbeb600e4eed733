package cmd

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/valuation/internal/config"
	"github.com/felixgeelhaar/valuation/internal/health"
	"github.com/felixgeelhaar/valuation/internal/log"
	"github.com/felixgeelhaar/valuation/internal/questionnaire"
	"github.com/felixgeelhaar/valuation/internal/theme"
	"github.com/felixgeelhaar/valuation/internal/valuation"
	"github.com/felixgeelhaar/valuation/internal/version"
)

// CommandContext holds the persistent flags shared by every command
type CommandContext struct {
	ConfigFile string
	LogLevel   string
	LogFormat  string
	LogFile    string
}

// NewCommandContext extracts the persistent flags from cmd
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}

	logFormat, err := cmd.Flags().GetString("log-format")
	if err != nil {
		return nil, err
	}

	logFile, err := cmd.Flags().GetString("log-file")
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		ConfigFile: configFile,
		LogLevel:   logLevel,
		LogFormat:  logFormat,
		LogFile:    logFile,
	}, nil
}

// app is the effective configuration and the logger built from it
type app struct {
	cfg    *config.Config
	logger *log.Logger
	output log.Output
}

// setup loads the configuration, applies the log flags and installs the
// process logger. With quiet set and no log file configured, logs are
// dropped instead of written to stderr, which the terminal chat owns.
func setup(cmd *cobra.Command, quiet bool) (*app, error) {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(cc.ConfigFile)
	if err != nil {
		return nil, err
	}
	if cc.LogLevel != "" {
		cfg.Log.Level = cc.LogLevel
	}
	if cc.LogFormat != "" {
		cfg.Log.Format = cc.LogFormat
	}
	if cc.LogFile != "" {
		cfg.Log.File = cc.LogFile
	}

	output := log.OutputStderr()
	switch {
	case cfg.Log.File != "":
		output, err = log.OutputFile(cfg.Log.File)
		if err != nil {
			return nil, err
		}
	case quiet:
		output = log.OutputDiscard()
	}

	logger := log.New(log.Config{
		Level:          log.ParseLevel(cfg.Log.Level),
		Format:         log.ParseFormat(cfg.Log.Format),
		Output:         output,
		ServiceName:    "valuation",
		ServiceVersion: version.Version,
	})
	log.SetDefaultLogger(logger)

	return &app{cfg: cfg, logger: logger, output: output}, nil
}

// Close releases the log file, if any
func (a *app) Close() error {
	return a.output.Close()
}

// questions returns the configured questionnaire, or the built-in one
func (a *app) questions() (questionnaire.Questionnaire, error) {
	q, err := questionnaire.Resolve(a.cfg.QuestionsFile)
	if err != nil {
		return questionnaire.Questionnaire{}, err
	}
	a.logger.Debug("questionnaire loaded", "name", q.Name, "questions", len(q.Questions))
	return q, nil
}

// client builds the valuation backend client
func (a *app) client() (*valuation.Client, error) {
	return valuation.NewClient(a.cfg.Endpoint,
		valuation.WithToken(a.cfg.APIToken),
		valuation.WithHTTPClient(&http.Client{Timeout: a.cfg.Timeout}),
		valuation.WithLogger(a.logger),
	)
}

// themes opens the preferences file holding the theme
func (a *app) themes() (*theme.Store, error) {
	path, err := a.cfg.ResolvePreferencesFile()
	if err != nil {
		return nil, err
	}
	return theme.NewStore(path), nil
}

// checks builds the health checks of the configured dependencies
func (a *app) checks() (*health.Manager, error) {
	prefs, err := a.cfg.ResolvePreferencesFile()
	if err != nil {
		return nil, err
	}

	timeout := a.cfg.Timeout
	if timeout <= 0 {
		timeout = health.DefaultTimeout
	}

	m := health.NewManager().WithTimeout(timeout)
	m.Add(
		health.NewEndpointChecker(a.cfg.Endpoint, &http.Client{Timeout: timeout}),
		health.Func("questionnaire", func(context.Context) *health.Result {
			q, err := questionnaire.Resolve(a.cfg.QuestionsFile)
			if err != nil {
				return health.Unhealthy("questionnaire invalid").WithDetail("error", err.Error())
			}
			source := a.cfg.QuestionsFile
			if source == "" {
				source = "built-in"
			}
			return health.Healthy(q.Name).
				WithDetail("questions", len(q.Questions)).
				WithDetail("source", source)
		}),
		health.NewPreferencesChecker(prefs),
	)
	return m, nil
}
