// Package parseapi talks to the external parsing service over HTTP.
//
// One Parse call is one POST; there are no retries. Transport errors and non-2xx
// statuses fail, and so does a body with an error and no steps. A body with
// success false that still carries a trace is a valid answer.
package parseapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/parsetrail/internal/logging"
	"github.com/aretw0/parsetrail/pkg/domain"
	"github.com/aretw0/parsetrail/pkg/ports"
)

// DefaultEndpoint is where the parsing service listens unless configured otherwise.
const DefaultEndpoint = "http://0.0.0.0:8001/parse"

// maxErrorBody caps how much of a failing response is kept for the error message.
const maxErrorBody = 4 << 10

// ErrRejected is returned when the service answered 2xx with an error and no steps.
var ErrRejected = errors.New("parsing service rejected the request")

// StatusError reports a non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("parsing service returned status %d", e.Code)
	}
	return fmt.Sprintf("parsing service returned status %d: %s", e.Code, e.Message)
}

// Response is the body the service answers with.
type Response struct {
	Steps   []domain.Step `json:"steps"`
	Success *bool         `json:"success,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Client implements ports.TraceService.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *slog.Logger
}

var _ ports.TraceService = (*Client)(nil)

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithTimeout bounds each request. Zero leaves the client without a timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.http.Timeout = d
	}
}

// WithLogger configures a logger for the Client.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// New creates a client for the given endpoint (DefaultEndpoint when empty).
func New(endpoint string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{},
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the configured service URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Parse POSTs the request as JSON and returns the ordered steps.
func (c *Client) Parse(ctx context.Context, req ports.ParseRequest) ([]domain.Step, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode parse request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build parse request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("parse request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("parse response",
		"status", resp.StatusCode,
		"algorithm", req.Algorithm,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Message: errorMessage(raw)}
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode parse response: %w", err)
	}

	// A sentence the grammar does not derive still comes with its trace, ending in a
	// reject step. Only a body that carries an error and nothing to replay fails.
	if out.Error != "" && len(out.Steps) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRejected, out.Error)
	}
	if out.Success != nil && !*out.Success {
		c.logger.Debug("sentence not derived", "algorithm", req.Algorithm, "steps", len(out.Steps))
	}

	if out.Steps == nil {
		out.Steps = []domain.Step{}
	}
	return out.Steps, nil
}

// errorMessage extracts {"error": "..."} from a failing body, falling back to the raw text.
func errorMessage(raw []byte) string {
	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Detail != "" {
			return body.Detail
		}
	}
	return string(bytes.TrimSpace(raw))
}
