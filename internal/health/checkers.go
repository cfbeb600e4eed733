package health

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// EndpointChecker probes the valuation backend
type EndpointChecker struct {
	endpoint string
	client   *http.Client
}

// NewEndpointChecker creates a checker for endpoint. A nil client uses
// http.DefaultClient.
func NewEndpointChecker(endpoint string, client *http.Client) *EndpointChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &EndpointChecker{endpoint: endpoint, client: client}
}

func (c *EndpointChecker) Name() string {
	return "valuation-endpoint"
}

// Check sends a HEAD request to the endpoint. Any response below 500 counts
// as reachable since the endpoint only accepts POST. A 5xx is degraded and
// a transport error is unhealthy.
func (c *EndpointChecker) Check(ctx context.Context) *Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.endpoint, nil)
	if err != nil {
		return Unhealthy("invalid endpoint").
			WithDetail("endpoint", c.endpoint).
			WithDetail("error", err.Error())
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Unhealthy("valuation backend unreachable").
			WithDetail("endpoint", c.endpoint).
			WithDetail("error", err.Error()).
			WithDetail("suggestion", "Check VALUATION_ENDPOINT and that the backend is running")
	}
	resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Degraded(fmt.Sprintf("valuation backend answered %d", resp.StatusCode)).
			WithDetail("endpoint", c.endpoint).
			WithDetail("status_code", resp.StatusCode)
	}
	return Healthy("valuation backend reachable").
		WithDetail("endpoint", c.endpoint).
		WithDetail("status_code", resp.StatusCode)
}

// PreferencesChecker verifies that the theme preference can be persisted
type PreferencesChecker struct {
	path string
}

func NewPreferencesChecker(path string) *PreferencesChecker {
	return &PreferencesChecker{path: path}
}

func (c *PreferencesChecker) Name() string {
	return "preferences"
}

// Check is degraded rather than unhealthy when the file cannot be written:
// the conversation still works, only the theme choice is lost on exit.
func (c *PreferencesChecker) Check(ctx context.Context) *Result {
	if info, err := os.Stat(c.path); err == nil && info.IsDir() {
		return Degraded("preferences path is a directory").WithDetail("path", c.path)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Degraded("cannot create preferences directory").
			WithDetail("path", c.path).
			WithDetail("error", err.Error())
	}

	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return Degraded("preferences directory is not writable").
			WithDetail("path", c.path).
			WithDetail("error", err.Error())
	}
	f.Close()
	os.Remove(f.Name())

	return Healthy("preferences writable").WithDetail("path", c.path)
}
