package health

import (
	"encoding/json"
	"net/http"
)

// Handler serves the report of m as JSON. Unhealthy reports answer 503 so
// the endpoint can back a readiness probe.
func Handler(m *Manager, version string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := m.Check(r.Context())
		report.Version = version

		code := http.StatusOK
		if report.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(report)
	})
}
