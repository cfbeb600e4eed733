package cmd

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/valuation/internal/errors"
	"github.com/felixgeelhaar/valuation/internal/exitcode"
	"github.com/felixgeelhaar/valuation/internal/questionnaire"
)

// testEnv isolates a command run from the user's home, environment and
// terminal, and returns the default config path under the temporary home
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("CI", "true")
	for _, key := range []string{
		"VALUATION_ENDPOINT", "VALUATION_HISTORY_URL", "VALUATION_API_TOKEN",
		"VALUATION_PACING", "VALUATION_TIMEOUT", "VALUATION_QUESTIONS",
		"VALUATION_LOG_LEVEL", "VALUATION_LOG_FORMAT", "VALUATION_LOG_FILE",
		"TELEGRAM_BOT_TOKEN", "VALUATION_METRICS_ADDR",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("VALUATION_PREFERENCES", filepath.Join(dir, "preferences.yaml"))
	t.Setenv("VALUATION_LOG_FILE", filepath.Join(dir, "valuation.log"))
	return filepath.Join(dir, ".valuation", "config.yaml")
}

// resetFlags restores every flag to its default so runs do not leak into
// each other through the package-level commands
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	var vErr *errors.ValuationError
	require.True(t, stderrors.As(err, &vErr), "not a coded error: %v", err)
	assert.Equal(t, code, vErr.Code)
}

func TestVersion(t *testing.T) {
	testEnv(t)

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "valuation "))

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "go_version")
}

func TestQuestions(t *testing.T) {
	testEnv(t)

	t.Run("text", func(t *testing.T) {
		out, err := execute(t, "questions")
		require.NoError(t, err)
		assert.Contains(t, out, "valuation (24 perguntas)")
		assert.Contains(t, out, "id: faturamento_mensal  tipo: number_positive")
		assert.Contains(t, out, "opções: BAIXO | NÃO CONSIGO AVALIAR | MÉDIO | ALTO | ELEVADO")
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "questions", "--json")
		require.NoError(t, err)
		var q questionnaire.Questionnaire
		require.NoError(t, json.Unmarshal([]byte(out), &q))
		assert.Len(t, q.Questions, 24)
	})

	t.Run("yaml output loads back", func(t *testing.T) {
		out, err := execute(t, "questions", "--yaml")
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "questions.yaml")
		require.NoError(t, os.WriteFile(path, []byte(out), 0o600))

		out, err = execute(t, "questions", "--file", path, "--json")
		require.NoError(t, err)
		var q questionnaire.Questionnaire
		require.NoError(t, json.Unmarshal([]byte(out), &q))
		assert.Equal(t, questionnaire.Valuation().Questions, q.Questions)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "questions", "--file", filepath.Join(t.TempDir(), "nope.yaml"))
		requireCode(t, err, errors.ErrCodeFileNotFound)
	})

	t.Run("json and yaml are exclusive", func(t *testing.T) {
		_, err := execute(t, "questions", "--json", "--yaml")
		assert.Error(t, err)
	})
}

func TestTheme(t *testing.T) {
	testEnv(t)

	out, err := execute(t, "theme", "get")
	require.NoError(t, err)
	assert.Equal(t, "light\n", out)

	out, err = execute(t, "theme", "set", "dark")
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)

	out, err = execute(t, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)

	out, err = execute(t, "theme", "toggle")
	require.NoError(t, err)
	assert.Equal(t, "light\n", out)

	_, err = execute(t, "theme", "set", "sepia")
	requireCode(t, err, errors.ErrCodeThemeUnknown)
	assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))
}

func TestConfigCommands(t *testing.T) {
	cfg := testEnv(t)

	t.Run("path", func(t *testing.T) {
		out, err := execute(t, "config", "path")
		require.NoError(t, err)
		assert.Equal(t, cfg+"\n", out)

		custom := filepath.Join(t.TempDir(), "custom.yaml")
		out, err = execute(t, "config", "path", "--config", custom)
		require.NoError(t, err)
		assert.Equal(t, custom+"\n", out)
	})

	t.Run("init", func(t *testing.T) {
		out, err := execute(t, "config", "init")
		require.NoError(t, err)
		assert.Contains(t, out, cfg)

		data, err := os.ReadFile(cfg)
		require.NoError(t, err)
		assert.Contains(t, string(data), "endpoint: http://localhost:8000/chatbot/api/calculate/")
	})

	t.Run("init refuses to overwrite without a terminal", func(t *testing.T) {
		_, err := execute(t, "config", "init")
		requireCode(t, err, errors.ErrCodeConfigInvalid)

		_, err = execute(t, "config", "init", "--force")
		assert.NoError(t, err)
	})

	t.Run("view masks secrets", func(t *testing.T) {
		t.Setenv("VALUATION_API_TOKEN", "s3cret")
		t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

		out, err := execute(t, "config", "view")
		require.NoError(t, err)
		assert.Contains(t, out, "Configuration file: "+cfg)
		assert.Contains(t, out, "********")
		assert.NotContains(t, out, "s3cret")
		assert.NotContains(t, out, "123:abc")

		out, err = execute(t, "config", "view", "--json")
		require.NoError(t, err)
		var view map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &view))
		assert.Equal(t, "********", view["api_token"])
	})
}

func TestInvalidConfigFails(t *testing.T) {
	testEnv(t)
	t.Setenv("VALUATION_ENDPOINT", "not a url")

	_, err := execute(t, "questions")
	requireCode(t, err, errors.ErrCodeConfigEndpoint)
	assert.Equal(t, exitcode.ConfigError, exitcode.DetermineExitCode(err))
}

func TestMissingExplicitConfigFails(t *testing.T) {
	testEnv(t)

	_, err := execute(t, "questions", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestTelegramRequiresToken(t *testing.T) {
	testEnv(t)

	_, err := execute(t, "telegram")
	requireCode(t, err, errors.ErrCodeConfigTelegram)
}

func TestTelegramRejectsBadPacing(t *testing.T) {
	testEnv(t)

	_, err := execute(t, "telegram", "--pacing", "soon")
	requireCode(t, err, errors.ErrCodeConfigInvalid)
}

func TestLogFlagsOverrideConfig(t *testing.T) {
	testEnv(t)
	logFile := filepath.Join(t.TempDir(), "logs", "run.log")

	_, err := execute(t, "questions", "--log-level", "debug", "--log-format", "json", "--log-file", logFile)
	require.NoError(t, err)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"questionnaire loaded"`)
}

func TestPacingOverride(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		want    time.Duration
		wantErr bool
	}{
		{"empty keeps config", "", 500 * time.Millisecond, false},
		{"duration", "1s", time.Second, false},
		{"zero", "0s", 0, false},
		{"negative", "-1s", 0, true},
		{"garbage", "soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pacingOverride(500*time.Millisecond, tt.flag)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDoctor(t *testing.T) {
	testEnv(t)

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer backend.Close()
	t.Setenv("VALUATION_ENDPOINT", backend.URL)

	out, err := execute(t, "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ valuation-endpoint")
	assert.Contains(t, out, "✓ questionnaire")
	assert.Contains(t, out, "✓ preferences")
	assert.Contains(t, out, "⚠ telegram-token")
	assert.Contains(t, out, "Status: degraded")

	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	out, err = execute(t, "doctor", "--json")
	require.NoError(t, err)
	var report struct {
		Status string `json:"status"`
		Checks []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "healthy", report.Status)
	require.Len(t, report.Checks, 4)
	assert.Equal(t, "valuation-endpoint", report.Checks[0].Name)
	assert.Equal(t, "telegram-token", report.Checks[3].Name)
}

func TestDoctorFailsWhenBackendIsDown(t *testing.T) {
	testEnv(t)

	backend := httptest.NewServer(http.NotFoundHandler())
	backend.Close()
	t.Setenv("VALUATION_ENDPOINT", backend.URL)

	out, err := execute(t, "doctor")
	require.Error(t, err)
	assert.Contains(t, out, "✗ valuation-endpoint")
	assert.Contains(t, out, "Status: unhealthy")
}
