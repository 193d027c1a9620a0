package core

import (
	"encoding/base64"
	"fmt"
)

// AuthType represents the type of authentication on a generic API call.
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeBearer AuthType = "bearer"
	AuthTypeAPIKey AuthType = "api-key"
)

// AuthTypeNames returns display names for auth types.
var AuthTypeNames = map[AuthType]string{
	AuthTypeNone:   "No Auth",
	AuthTypeBasic:  "Basic Auth",
	AuthTypeBearer: "Bearer Token",
	AuthTypeAPIKey: "API Key",
}

// APIKeyLocation specifies where to place the API key.
type APIKeyLocation string

const (
	APIKeyInHeader APIKeyLocation = "header"
	APIKeyInQuery  APIKeyLocation = "query"
)

// AuthConfig describes how an API call authenticates.
type AuthConfig struct {
	Type string `json:"type"`

	// Basic auth
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	// Bearer token
	Token string `json:"token,omitempty"`

	// API key
	Key   string `json:"key,omitempty"`
	Value string `json:"value,omitempty"`
	In    string `json:"in,omitempty"` // header or query
}

// IsConfigured returns true if authentication is configured (not none/empty).
func (a *AuthConfig) IsConfigured() bool {
	if a == nil {
		return false
	}
	return a.Type != "" && AuthType(a.Type) != AuthTypeNone
}

// GetAuthType returns the auth type as AuthType enum.
func (a *AuthConfig) GetAuthType() AuthType {
	if a == nil || a.Type == "" {
		return AuthTypeNone
	}
	return AuthType(a.Type)
}

// Validate checks if the auth configuration is valid.
func (a *AuthConfig) Validate() error {
	switch a.GetAuthType() {
	case AuthTypeNone:
		return nil

	case AuthTypeBasic:
		if a.Username == "" {
			return fmt.Errorf("basic auth requires username")
		}
		// Password can be empty

	case AuthTypeBearer:
		if a.Token == "" {
			return fmt.Errorf("bearer auth requires token")
		}

	case AuthTypeAPIKey:
		if a.Key == "" {
			return fmt.Errorf("API key auth requires key name")
		}
		if a.Value == "" {
			return fmt.Errorf("API key auth requires key value")
		}

	default:
		return fmt.Errorf("unknown auth type %q", a.Type)
	}

	return nil
}

// ApplyToHeaders adds authentication headers to the provided map.
// Returns any query parameters that should be added (for API key in query).
func (a *AuthConfig) ApplyToHeaders(headers map[string]string) map[string]string {
	queryParams := make(map[string]string)

	if a == nil || !a.IsConfigured() {
		return queryParams
	}

	switch a.GetAuthType() {
	case AuthTypeBasic:
		credentials := base64.StdEncoding.EncodeToString(
			[]byte(a.Username + ":" + a.Password),
		)
		headers["Authorization"] = "Basic " + credentials

	case AuthTypeBearer:
		headers["Authorization"] = "Bearer " + a.Token

	case AuthTypeAPIKey:
		if APIKeyLocation(a.In) == APIKeyInQuery {
			queryParams[a.Key] = a.Value
		} else {
			headers[a.Key] = a.Value
		}
	}

	return queryParams
}
