// Package valuation submits completed answer sets to the valuation backend.
package valuation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/felixgeelhaar/valuation/internal/conversation"
	"github.com/felixgeelhaar/valuation/internal/errors"
	"github.com/felixgeelhaar/valuation/internal/log"
)

// ConversationHeader carries the conversation id on every request
const ConversationHeader = "X-Conversation-ID"

// maxBodyBytes bounds how much of a response is read
const maxBodyBytes = 1 << 20

// Client posts answers to the valuation endpoint. It implements
// conversation.Submitter.
type Client struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *log.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.client = c
		}
	}
}

// WithToken sends an Authorization bearer token on every request
func WithToken(token string) Option {
	return func(cl *Client) {
		cl.token = strings.TrimSpace(token)
	}
}

// WithLogger sets the logger used for request outcomes
func WithLogger(logger *log.Logger) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

// NewClient creates a client for endpoint. The caller's context governs
// request lifetime; no client timeout is set by default.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New(errors.ErrCodeConfigMissing, "valuation endpoint is not configured").
			WithSuggestion("Set 'endpoint' in the config file or VALUATION_ENDPOINT")
	}

	c := &Client{
		endpoint: endpoint,
		client:   &http.Client{},
		logger:   log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the URL submissions are posted to
func (c *Client) Endpoint() string {
	return c.endpoint
}

type request struct {
	Inputs conversation.Answers `json:"inputs"`
}

type response struct {
	Message  *string         `json:"message"`
	ReportID json.RawMessage `json:"report_id,omitempty"`
}

// Submit posts the answers and classifies the reply. It never returns an
// error: transport and protocol failures become failure results carrying a
// message fit for display.
func (c *Client) Submit(ctx context.Context, sub conversation.Submission) conversation.Result {
	logger := c.logger.With("conversation_id", sub.ConversationID, "answers", len(sub.Answers))

	body, err := c.encode(sub.Answers)
	if err != nil {
		logger.WithError(err).Error("encode submission")
		return failure(0, "could not encode answers")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		err = errors.Wrap(errors.ErrCodeSubmitTransport, "create request", err)
		logger.WithError(err).Error("build submission request")
		return failure(0, "invalid valuation endpoint")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if sub.ConversationID != "" {
		req.Header.Set(ConversationHeader, sub.ConversationID)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		logger.WithError(errors.Wrap(errors.ErrCodeSubmitTransport, "send request", err)).Warn("submission transport failure")
		return failure(0, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		logger.WithError(errors.Wrap(errors.ErrCodeSubmitTransport, "read response", err)).Warn("submission transport failure")
		return failure(resp.StatusCode, err.Error())
	}

	res := classify(resp.StatusCode, raw)
	if res.Success() {
		logger.Info("submission accepted", "status", res.StatusCode, "report_id", res.ReportID)
	} else {
		logger.WithError(errors.New(errors.ErrCodeSubmitRejected, res.Message)).Warn("submission rejected", "status", res.StatusCode)
	}
	return res
}

func (c *Client) encode(answers conversation.Answers) ([]byte, error) {
	if answers == nil {
		answers = conversation.Answers{}
	}
	body, err := json.Marshal(request{Inputs: answers})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSubmitEncode, "encode answers", err)
	}
	return body, nil
}

// classify maps a status code and body to a Result
func classify(status int, raw []byte) conversation.Result {
	var body response
	decodeErr := json.Unmarshal(raw, &body)

	if status < 200 || status > 299 {
		if decodeErr == nil && body.Message != nil && *body.Message != "" {
			return failure(status, *body.Message)
		}
		return failure(status, fmt.Sprintf("error %d", status))
	}

	if decodeErr != nil {
		return failure(status, fmt.Sprintf("invalid response: %v", decodeErr))
	}
	if body.Message == nil {
		return failure(status, "invalid response: missing message")
	}

	return conversation.Result{
		Outcome:    conversation.OutcomeSuccess,
		Message:    *body.Message,
		StatusCode: status,
		ReportID:   reportID(body.ReportID),
	}
}

// reportID accepts numeric or string ids
func reportID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func failure(status int, message string) conversation.Result {
	return conversation.Result{Outcome: conversation.OutcomeFailure, Message: message, StatusCode: status}
}
