package valuation

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/valuation/internal/conversation"
	"github.com/felixgeelhaar/valuation/internal/log"
)

func newTestClient(t *testing.T, url string, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithLogger(log.Discard())}, opts...)
	c, err := NewClient(url, opts...)
	require.NoError(t, err)
	return c
}

func sampleSubmission() conversation.Submission {
	return conversation.Submission{
		ConversationID: "conv-1",
		Answers: conversation.Answers{
			"faturamento_mensal": 1500.0,
			"num_vendas":         int64(37),
			"setor_atuacao":      "Varejo",
			"pmf":                "ALTO",
		},
	}
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	_, err := NewClient("  ")
	require.Error(t, err)
}

func TestSubmitRequest(t *testing.T) {
	var (
		gotMethod  string
		gotHeaders http.Header
		gotBody    map[string]map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeaders = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"ok","report_id":42}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, WithToken("secret"))
	res := c.Submit(context.Background(), sampleSubmission())

	require.True(t, res.Success())
	assert.Equal(t, "ok", res.Message)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "42", res.ReportID)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Equal(t, "application/json", gotHeaders.Get("Accept"))
	assert.Equal(t, "conv-1", gotHeaders.Get(ConversationHeader))
	assert.Equal(t, "Bearer secret", gotHeaders.Get("Authorization"))

	require.Contains(t, gotBody, "inputs")
	inputs := gotBody["inputs"]
	assert.Equal(t, 1500.0, inputs["faturamento_mensal"])
	assert.Equal(t, 37.0, inputs["num_vendas"])
	assert.Equal(t, "Varejo", inputs["setor_atuacao"])
	assert.Equal(t, "ALTO", inputs["pmf"])
}

func TestSubmitWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer server.Close()

	res := newTestClient(t, server.URL).Submit(context.Background(), sampleSubmission())
	assert.True(t, res.Success())
	assert.Empty(t, res.ReportID)
}

func TestSubmitEmptyAnswersSendsObject(t *testing.T) {
	var raw []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer server.Close()

	newTestClient(t, server.URL).Submit(context.Background(), conversation.Submission{})
	assert.JSONEq(t, `{"inputs":{}}`, string(raw))
}

func TestSubmitOutcomes(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantSuccess bool
		wantMessage string
		wantReport  string
	}{
		{"accepted", 200, `{"message":"ok"}`, true, "ok", ""},
		{"accepted created", 201, `{"message":"criado","report_id":"r-9"}`, true, "criado", "r-9"},
		{"server message", 500, `{"message":"db down"}`, false, "db down", ""},
		{"forbidden message", 403, `{"message":"Acesso negado."}`, false, "Acesso negado.", ""},
		{"no message", 502, `{"detail":"bad gateway"}`, false, "error 502", ""},
		{"html error", 500, `<html>boom</html>`, false, "error 500", ""},
		{"empty error body", 404, ``, false, "error 404", ""},
		{"success unparseable", 200, `not json`, false, "", ""},
		{"success without message", 200, `{"report_id":1}`, false, "invalid response: missing message", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			res := newTestClient(t, server.URL).Submit(context.Background(), sampleSubmission())

			assert.Equal(t, tt.wantSuccess, res.Success())
			assert.Equal(t, tt.status, res.StatusCode)
			assert.Equal(t, tt.wantReport, res.ReportID)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, res.Message)
			} else {
				assert.Contains(t, res.Message, "invalid response")
			}
		})
	}
}

func TestSubmitTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	res := newTestClient(t, url).Submit(context.Background(), sampleSubmission())

	assert.False(t, res.Success())
	assert.Zero(t, res.StatusCode)
	assert.NotEmpty(t, res.Message)
}

func TestSubmitHonoursContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res := newTestClient(t, server.URL).Submit(ctx, sampleSubmission())

	assert.False(t, res.Success())
	assert.Contains(t, res.Message, "context deadline exceeded")
}

func TestClientDrivesConversation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"Cálculo iniciado"}`))
	}))
	defer server.Close()

	var _ conversation.Submitter = (*Client)(nil)

	c := newTestClient(t, server.URL)
	res := conversation.SubmitterFunc(c.Submit).Submit(context.Background(), sampleSubmission())
	assert.Equal(t, "Cálculo iniciado", res.Message)
}
