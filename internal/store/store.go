package store

import (
	"context"
	"errors"
	"time"

	"ruliad/internal/core"
)

// Common errors
var (
	ErrNotFound    = errors.New("record not found")
	ErrInvalidID   = errors.New("invalid record ID")
	ErrStoreClosed = errors.New("store is closed")
	ErrUnknownKind = errors.New("unknown item kind")
)

// Run is one persisted execution of a request or suite: what ran, against
// which environment, and what came back.
type Run struct {
	ID          string        `json:"id"`
	RunType     core.ItemKind `json:"run_type"`
	ReferenceID string        `json:"reference_id"`
	Environment string        `json:"environment"`
	Status      string        `json:"status"`
	Result      string        `json:"result,omitempty"`
	ExecutionMS int64         `json:"execution_ms"`
	CreatedBy   string        `json:"created_by"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Gateway is the persistence boundary for the navigator. All reads are
// scoped by the environment column; callers resolve unknown environment
// names to the configured default before calling in.
type Gateway interface {
	// Create persists a new item of any kind and returns the assigned ID.
	// The item's own ID field is ignored; the store always mints a new one.
	Create(ctx context.Context, item core.Item) (string, error)

	ListRequests(ctx context.Context, env string) ([]*core.Request, error)
	ListSuites(ctx context.Context, env string) ([]*core.Suite, error)
	ListAPICalls(ctx context.Context, env string) ([]*core.APICall, error)

	// UpdateStatus flips an item's lifecycle status and records who did it.
	UpdateStatus(ctx context.Context, kind core.ItemKind, id string, status core.Status, modifiedBy string) error

	// Delete removes an item by kind and ID.
	Delete(ctx context.Context, kind core.ItemKind, id string) error

	// SaveRun appends a run record and returns its ID.
	SaveRun(ctx context.Context, run Run) (string, error)

	// RunHistory returns runs for one request or suite, newest first.
	RunHistory(ctx context.Context, env string, kind core.ItemKind, referenceID string) ([]Run, error)

	// AllRunHistory returns the most recent runs for an environment.
	AllRunHistory(ctx context.Context, env string, limit int) ([]Run, error)

	// Close releases store resources.
	Close() error
}
