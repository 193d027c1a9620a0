package core

import (
	"encoding/json"
	"errors"
	"time"
)

// Request is a single rule-evaluation request: which rule to run, against
// which environment, and with what persona and context.
//
// ID is empty until the store assigns one. Copy/paste must strip it so the
// store creates a new identity on insert.
type Request struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name"`
	Environment string          `json:"environment"`
	RuleName    string          `json:"rule_name"`
	PersonaType string          `json:"persona_type"`
	PersonaID   string          `json:"persona_id"`
	JSONContext json.RawMessage `json:"json_context,omitempty"`
	Status      Status          `json:"status"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at,omitempty"`
}

func (r *Request) Kind() ItemKind   { return KindRequest }
func (r *Request) ItemID() string   { return r.ID }
func (r *Request) ItemName() string { return r.Name }
func (r *Request) Env() string      { return r.Environment }

// Validate checks the fields required before any store or engine call.
func (r *Request) Validate() error {
	if r.Name == "" {
		return errors.New("request name cannot be empty")
	}
	if r.RuleName == "" {
		return errors.New("rule name cannot be empty")
	}
	if len(r.JSONContext) > 0 && !json.Valid(r.JSONContext) {
		return errors.New("json context is not valid JSON")
	}
	return nil
}

// Clone returns a deep copy. The copy keeps the source ID; paste logic
// strips it separately.
func (r *Request) Clone() *Request {
	clone := *r
	if r.JSONContext != nil {
		clone.JSONContext = make(json.RawMessage, len(r.JSONContext))
		copy(clone.JSONContext, r.JSONContext)
	}
	return &clone
}
