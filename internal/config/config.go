// Package config loads the valuation chat configuration from a YAML file,
// an optional .env file and environment variables, in increasing order of
// precedence.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/valuation/internal/errors"
)

const (
	DefaultEndpoint   = "http://localhost:8000/chatbot/api/calculate/"
	DefaultHistoryURL = "http://localhost:8000/reports/history/"
	DefaultPacing     = 500 * time.Millisecond

	dirName  = ".valuation"
	fileName = "config.yaml"
)

// Environment variables that override file values
const (
	EnvEndpoint    = "VALUATION_ENDPOINT"
	EnvHistoryURL  = "VALUATION_HISTORY_URL"
	EnvAPIToken    = "VALUATION_API_TOKEN"
	EnvPacing      = "VALUATION_PACING"
	EnvTimeout     = "VALUATION_TIMEOUT"
	EnvQuestions   = "VALUATION_QUESTIONS"
	EnvPreferences = "VALUATION_PREFERENCES"
	EnvTelegram    = "TELEGRAM_BOT_TOKEN"
	EnvMetricsAddr = "VALUATION_METRICS_ADDR"
	EnvLogLevel    = "VALUATION_LOG_LEVEL"
	EnvLogFormat   = "VALUATION_LOG_FORMAT"
	EnvLogFile     = "VALUATION_LOG_FILE"
)

// Config is the effective configuration
type Config struct {
	Endpoint        string         `yaml:"endpoint" json:"endpoint"`
	HistoryURL      string         `yaml:"history_url" json:"history_url"`
	APIToken        string         `yaml:"api_token,omitempty" json:"api_token,omitempty"`
	Pacing          time.Duration  `yaml:"pacing" json:"pacing"`
	Timeout         time.Duration  `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	QuestionsFile   string         `yaml:"questions_file,omitempty" json:"questions_file,omitempty"`
	PreferencesFile string         `yaml:"preferences_file,omitempty" json:"preferences_file,omitempty"`
	MetricsAddr     string         `yaml:"metrics_addr,omitempty" json:"metrics_addr,omitempty"`
	Telegram        TelegramConfig `yaml:"telegram,omitempty" json:"telegram,omitempty"`
	Log             LogConfig      `yaml:"log,omitempty" json:"log,omitempty"`
}

// TelegramConfig configures the messenger front-end
type TelegramConfig struct {
	Token string `yaml:"token,omitempty" json:"token,omitempty"`
}

// LogConfig configures the process logger
type LogConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Endpoint:   DefaultEndpoint,
		HistoryURL: DefaultHistoryURL,
		Pacing:     DefaultPacing,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Dir returns ~/.valuation
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeDirectoryFailed, "failed to get home directory", err)
	}
	return filepath.Join(home, dirName), nil
}

// DefaultPath returns ~/.valuation/config.yaml
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load builds the effective configuration. An empty path means the default
// location; a missing file there is not an error, but a missing file given
// explicitly is.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if err := cfg.readFile(path, explicit); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if required {
				return errors.NewFileNotFoundError(path)
			}
			return nil
		}
		return errors.Wrap(errors.ErrCodeFileReadFailed, "read config", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrap(errors.ErrCodeConfigUnmarshal, fmt.Sprintf("failed to parse config: %s", path), err).
			WithSuggestion("Check the YAML syntax, durations are written like 500ms or 2s")
	}
	return nil
}

// applyEnv overrides file values with non-empty environment values
func (c *Config) applyEnv(getenv func(string) string) error {
	env := func(key string) string {
		return strings.TrimSpace(getenv(key))
	}

	c.Endpoint = firstNonEmpty(env(EnvEndpoint), c.Endpoint)
	c.HistoryURL = firstNonEmpty(env(EnvHistoryURL), c.HistoryURL)
	c.APIToken = firstNonEmpty(env(EnvAPIToken), c.APIToken)
	c.QuestionsFile = firstNonEmpty(env(EnvQuestions), c.QuestionsFile)
	c.PreferencesFile = firstNonEmpty(env(EnvPreferences), c.PreferencesFile)
	c.Telegram.Token = firstNonEmpty(env(EnvTelegram), c.Telegram.Token)
	c.MetricsAddr = firstNonEmpty(env(EnvMetricsAddr), c.MetricsAddr)
	c.Log.Level = firstNonEmpty(env(EnvLogLevel), c.Log.Level)
	c.Log.Format = firstNonEmpty(env(EnvLogFormat), c.Log.Format)
	c.Log.File = firstNonEmpty(env(EnvLogFile), c.Log.File)

	if raw := env(EnvPacing); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return errors.Wrap(errors.ErrCodeConfigInvalid, fmt.Sprintf("invalid %s", EnvPacing), err)
		}
		c.Pacing = d
	}
	if raw := env(EnvTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return errors.Wrap(errors.ErrCodeConfigInvalid, fmt.Sprintf("invalid %s", EnvTimeout), err)
		}
		c.Timeout = d
	}
	return nil
}

// expandPaths resolves a leading ~ in file settings
func (c *Config) expandPaths() {
	c.QuestionsFile = expandHome(c.QuestionsFile)
	c.PreferencesFile = expandHome(c.PreferencesFile)
	c.Log.File = expandHome(c.Log.File)
}

// Validate checks URLs and durations
func (c *Config) Validate() error {
	if err := checkURL("endpoint", c.Endpoint); err != nil {
		return err
	}
	if err := checkURL("history_url", c.HistoryURL); err != nil {
		return err
	}
	if c.Pacing < 0 {
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("pacing must not be negative: %s", c.Pacing))
	}
	if c.Timeout < 0 {
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("timeout must not be negative: %s", c.Timeout))
	}
	return nil
}

// ResolvePreferencesFile returns the preferences file, defaulting to
// ~/.valuation/preferences.yaml
func (c *Config) ResolvePreferencesFile() (string, error) {
	if c.PreferencesFile != "" {
		return c.PreferencesFile, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "preferences.yaml"), nil
}

// Redacted returns a copy safe to print
func (c *Config) Redacted() *Config {
	cp := *c
	if cp.APIToken != "" {
		cp.APIToken = "********"
	}
	if cp.Telegram.Token != "" {
		cp.Telegram.Token = "********"
	}
	return &cp
}

// Save writes the configuration as YAML, creating parent directories
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeDirectoryFailed, "failed to create config directory", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileMarshal, "failed to marshal config", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to write config", err)
	}
	return nil
}

func checkURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.NewConfigEndpointError(key, raw)
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
