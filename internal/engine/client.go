// Package engine talks to the rule engine's HTTP API: rule execution
// and per-persona decision history.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"ruliad/internal/core"
)

var (
	// ErrNoEndpoint is returned when the client has no base URL configured.
	ErrNoEndpoint = errors.New("rule engine endpoint is not configured")
)

// ExecuteInput is the payload sent to the engine's execute endpoint.
type ExecuteInput struct {
	RuleName    string          `json:"ruleName"`
	Environment string          `json:"environment"`
	PersonaType string          `json:"personaType,omitempty"`
	PersonaID   string          `json:"personaId,omitempty"`
	JSONContext json.RawMessage `json:"jsonContext,omitempty"`
}

// ExecuteResult is the engine's decision for a single evaluation.
type ExecuteResult struct {
	Result         bool            `json:"result"`
	Status         string          `json:"status"`
	ExecutionTime  int64           `json:"executionTime"`
	EvaluationData json.RawMessage `json:"evaluationData,omitempty"`
	Explanation    string          `json:"explanation,omitempty"`
}

// HistoryEntry is one past decision recorded by the engine.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	Result    bool      `json:"result"`
}

// Client calls a single environment's rule engine.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the engine at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Execute evaluates a stored request against the engine.
func (c *Client) Execute(ctx context.Context, req *core.Request) (*ExecuteResult, error) {
	return c.ExecuteInput(ctx, ExecuteInput{
		RuleName:    req.RuleName,
		Environment: req.Environment,
		PersonaType: req.PersonaType,
		PersonaID:   req.PersonaID,
		JSONContext: req.JSONContext,
	})
}

// ExecuteInput evaluates an arbitrary input against the engine.
func (c *Client) ExecuteInput(ctx context.Context, input ExecuteInput) (*ExecuteResult, error) {
	if c.baseURL == "" {
		return nil, ErrNoEndpoint
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode execute request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("engine execute failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read engine response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("engine returned %d: %s", httpResp.StatusCode, truncate(respBody, 200))
	}

	var result ExecuteResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode engine response: %w", err)
	}

	return &result, nil
}

// History fetches past decisions for a rule and persona.
func (c *Client) History(ctx context.Context, ruleName, personaID string) ([]HistoryEntry, error) {
	if c.baseURL == "" {
		return nil, ErrNoEndpoint
	}

	endpoint := fmt.Sprintf("%s/history/%s/%s",
		c.baseURL, url.PathEscape(ruleName), url.PathEscape(personaID))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("engine history failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read engine response: %w", err)
	}

	if httpResp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("engine returned %d: %s", httpResp.StatusCode, truncate(respBody, 200))
	}

	var entries []HistoryEntry
	if err := json.Unmarshal(respBody, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode engine history: %w", err)
	}

	return entries, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
