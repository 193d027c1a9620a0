package core

import (
	"encoding/json"
	"fmt"
)

// ItemKind identifies which record type an item is.
type ItemKind string

const (
	KindRequest ItemKind = "request"
	KindSuite   ItemKind = "suite"
	KindAPICall ItemKind = "api_call"
)

// Valid reports whether k is one of the known kinds.
func (k ItemKind) Valid() bool {
	switch k {
	case KindRequest, KindSuite, KindAPICall:
		return true
	}
	return false
}

// Status is the lifecycle state of a persisted item.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Toggle returns the opposite status.
func (s Status) Toggle() Status {
	if s == StatusActive {
		return StatusInactive
	}
	return StatusActive
}

// Item is the tagged union over the three persisted record types.
// Every consumption site switches exhaustively on Kind().
type Item interface {
	Kind() ItemKind
	ItemID() string
	ItemName() string
	Env() string
}

// DecodeSnapshot decodes a serialized item snapshot of the given kind.
// Callers that tolerate corrupt snapshots degrade to an ID-only item
// themselves; this function just reports the failure.
func DecodeSnapshot(kind ItemKind, data []byte) (Item, error) {
	switch kind {
	case KindRequest:
		var r Request
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decode request snapshot: %w", err)
		}
		return &r, nil
	case KindSuite:
		var s Suite
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("decode suite snapshot: %w", err)
		}
		return &s, nil
	case KindAPICall:
		var a APICall
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("decode api call snapshot: %w", err)
		}
		return &a, nil
	default:
		return nil, fmt.Errorf("unknown item kind %q", kind)
	}
}

// EncodeSnapshot serializes an item for embedding in tree rows.
func EncodeSnapshot(item Item) ([]byte, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode %s snapshot: %w", item.Kind(), err)
	}
	return data, nil
}
