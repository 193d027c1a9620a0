// Package apicaller sends stored API calls against live services and
// captures the response for display.
package apicaller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ruliad/internal/core"
)

// Result is the captured outcome of a sent API call.
type Result struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       string
	Duration   time.Duration
	Size       int64
}

// OK reports whether the response status is 2xx.
func (r *Result) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client executes API calls.
type Client struct {
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

// WithNoRedirects disables automatic redirect following.
func WithNoRedirects() Option {
	return func(c *Client) {
		c.httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
}

// NewClient creates a new API call client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Send executes the call and returns the captured response.
func (c *Client) Send(ctx context.Context, call *core.APICall) (*Result, error) {
	if err := call.Validate(); err != nil {
		return nil, err
	}

	httpReq, err := c.toHTTPRequest(ctx, call)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	duration := time.Since(start)

	return fromHTTPResponse(httpResp, bodyBytes, duration), nil
}

func (c *Client) toHTTPRequest(ctx context.Context, call *core.APICall) (*http.Request, error) {
	var bodyReader io.Reader
	if call.Body != "" {
		bodyReader = strings.NewReader(call.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, call.Method, call.URL, bodyReader)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(call.Headers))
	for k, v := range call.Headers {
		headers[k] = v
	}

	query := url.Values{}
	for k, v := range call.QueryParams {
		query.Set(k, v)
	}

	// Auth may contribute a header or a query parameter.
	if call.Auth != nil {
		for k, v := range call.Auth.ApplyToHeaders(headers) {
			query.Set(k, v)
		}
	}

	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	if len(query) > 0 {
		existing := httpReq.URL.Query()
		for k, vs := range query {
			for _, v := range vs {
				existing.Set(k, v)
			}
		}
		httpReq.URL.RawQuery = existing.Encode()
	}

	return httpReq, nil
}

func fromHTTPResponse(httpResp *http.Response, bodyBytes []byte, duration time.Duration) *Result {
	headers := make(map[string]string, len(httpResp.Header))
	for key := range httpResp.Header {
		headers[key] = httpResp.Header.Get(key)
	}

	return &Result{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    headers,
		Body:       formatBody(bodyBytes, httpResp.Header.Get("Content-Type")),
		Duration:   duration,
		Size:       int64(len(bodyBytes)),
	}
}

// formatBody pretty-prints JSON responses; anything else passes through.
func formatBody(body []byte, contentType string) string {
	if len(body) == 0 {
		return ""
	}
	if strings.Contains(contentType, "json") && json.Valid(body) {
		var buf bytes.Buffer
		if json.Indent(&buf, body, "", "  ") == nil {
			return buf.String()
		}
	}
	return string(body)
}
