// Package metadata fetches rule metadata: the list of deployed rule names
// and full rule definitions. Responses are cached because the metadata
// service is slow and rule definitions rarely change mid-session.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"ruliad/internal/core"
)

var (
	// ErrNoEndpoint is returned when the client has no base URL configured.
	ErrNoEndpoint = errors.New("rule metadata endpoint is not configured")

	// ErrRuleNotFound is returned when the service has no such rule.
	ErrRuleNotFound = errors.New("rule not found")
)

const (
	rulesKey         = "rules"
	definitionPrefix = "def:"
)

// RuleInfo is one deployed rule as listed by the metadata service.
type RuleInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Client calls a single environment's rule metadata service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *gocache.Cache
}

// Option configures the Client.
type Option func(*Client)

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithCacheTTL gives cached metadata a lifetime. By default entries never
// expire; Invalidate is the only way to refresh.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = gocache.New(ttl, 2*ttl)
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a metadata client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		cache: gocache.New(gocache.NoExpiration, 0),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Rules returns the deployed rules, cached.
func (c *Client) Rules(ctx context.Context) ([]RuleInfo, error) {
	if cached, ok := c.cache.Get(rulesKey); ok {
		return cached.([]RuleInfo), nil
	}

	body, err := c.get(ctx, "/rules")
	if err != nil {
		return nil, err
	}

	var rules []RuleInfo
	if err := json.Unmarshal(body, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode rule list: %w", err)
	}

	c.cache.Set(rulesKey, rules, gocache.DefaultExpiration)
	return rules, nil
}

// Definition returns the full definition of a rule, cached per rule.
func (c *Client) Definition(ctx context.Context, ruleName string) (*core.RuleDefinition, error) {
	key := definitionPrefix + ruleName
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*core.RuleDefinition), nil
	}

	body, err := c.get(ctx, "/rule/"+url.PathEscape(ruleName))
	if err != nil {
		return nil, err
	}

	var def core.RuleDefinition
	if err := json.Unmarshal(body, &def); err != nil {
		return nil, fmt.Errorf("failed to decode rule definition: %w", err)
	}
	if def.Name == "" {
		def.Name = ruleName
	}

	c.cache.Set(key, &def, gocache.DefaultExpiration)
	return &def, nil
}

// Invalidate drops all cached metadata, forcing fresh fetches.
func (c *Client) Invalidate() {
	c.cache.Flush()
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if c.baseURL == "" {
		return nil, ErrNoEndpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metadata request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrRuleNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata service returned %d", resp.StatusCode)
	}

	return body, nil
}
