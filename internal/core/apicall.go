package core

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// APICall is a saved generic HTTP request: method, URL, headers, query
// parameters, raw body, and an optional auth descriptor.
type APICall struct {
	ID          string            `json:"id,omitempty"`
	Name        string            `json:"name"`
	Environment string            `json:"environment"`
	RuleName    string            `json:"rule_name,omitempty"`
	URL         string            `json:"url"`
	Method      string            `json:"method"`
	Headers     map[string]string `json:"headers,omitempty"`
	QueryParams map[string]string `json:"query_params,omitempty"`
	Body        string            `json:"body,omitempty"`
	Auth        *AuthConfig       `json:"auth,omitempty"`
	Status      Status            `json:"status"`
	CreatedBy   string            `json:"created_by"`
	CreatedAt   time.Time         `json:"created_at,omitempty"`
}

func (a *APICall) Kind() ItemKind   { return KindAPICall }
func (a *APICall) ItemID() string   { return a.ID }
func (a *APICall) ItemName() string { return a.Name }
func (a *APICall) Env() string      { return a.Environment }

// Validate checks the fields required before sending or persisting.
func (a *APICall) Validate() error {
	if a.Name == "" {
		return errors.New("api call name cannot be empty")
	}
	if a.Method == "" {
		return errors.New("method cannot be empty")
	}
	if a.URL == "" {
		return errors.New("url cannot be empty")
	}
	u, err := url.Parse(a.URL)
	if err != nil {
		return errors.New("url is not parseable")
	}
	if !strings.HasPrefix(u.Scheme, "http") {
		return errors.New("url must be http or https")
	}
	if a.Auth != nil {
		return a.Auth.Validate()
	}
	return nil
}

// Clone returns a deep copy.
func (a *APICall) Clone() *APICall {
	clone := *a
	if a.Headers != nil {
		clone.Headers = make(map[string]string, len(a.Headers))
		for k, v := range a.Headers {
			clone.Headers[k] = v
		}
	}
	if a.QueryParams != nil {
		clone.QueryParams = make(map[string]string, len(a.QueryParams))
		for k, v := range a.QueryParams {
			clone.QueryParams[k] = v
		}
	}
	if a.Auth != nil {
		auth := *a.Auth
		clone.Auth = &auth
	}
	return &clone
}
