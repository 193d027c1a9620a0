package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ruliad/internal/core"
)

// Memory is an in-process Gateway used by tests and as a last-resort
// fallback when no database is reachable. Contents vanish on exit.
type Memory struct {
	mu       sync.RWMutex
	closed   bool
	requests map[string]*core.Request
	suites   map[string]*core.Suite
	apiCalls map[string]*core.APICall
	runs     []Run
}

// NewMemory creates an empty in-memory gateway.
func NewMemory() *Memory {
	return &Memory{
		requests: make(map[string]*core.Request),
		suites:   make(map[string]*core.Suite),
		apiCalls: make(map[string]*core.APICall),
	}
}

func (m *Memory) Create(ctx context.Context, item core.Item) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", ErrStoreClosed
	}

	id := uuid.New().String()
	now := time.Now()

	switch it := item.(type) {
	case *core.Request:
		clone := it.Clone()
		clone.ID = id
		clone.CreatedAt = now
		m.requests[id] = clone
	case *core.Suite:
		clone := it.Clone()
		clone.ID = id
		clone.CreatedAt = now
		m.suites[id] = clone
	case *core.APICall:
		clone := it.Clone()
		clone.ID = id
		clone.CreatedAt = now
		m.apiCalls[id] = clone
	default:
		return "", ErrUnknownKind
	}

	return id, nil
}

func (m *Memory) ListRequests(ctx context.Context, env string) ([]*core.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	var out []*core.Request
	for _, r := range m.requests {
		if r.Environment == env {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListSuites(ctx context.Context, env string) ([]*core.Suite, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	var out []*core.Suite
	for _, s := range m.suites {
		if s.Environment == env {
			out = append(out, s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListAPICalls(ctx context.Context, env string) ([]*core.APICall, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	var out []*core.APICall
	for _, a := range m.apiCalls {
		if a.Environment == env {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateStatus(ctx context.Context, kind core.ItemKind, id string, status core.Status, modifiedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	if id == "" {
		return ErrInvalidID
	}

	switch kind {
	case core.KindRequest:
		if r, ok := m.requests[id]; ok {
			r.Status = status
			return nil
		}
	case core.KindSuite:
		if s, ok := m.suites[id]; ok {
			s.Status = status
			return nil
		}
	case core.KindAPICall:
		if a, ok := m.apiCalls[id]; ok {
			a.Status = status
			return nil
		}
	default:
		return ErrUnknownKind
	}
	return ErrNotFound
}

func (m *Memory) Delete(ctx context.Context, kind core.ItemKind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	switch kind {
	case core.KindRequest:
		if _, ok := m.requests[id]; ok {
			delete(m.requests, id)
			return nil
		}
	case core.KindSuite:
		if _, ok := m.suites[id]; ok {
			delete(m.suites, id)
			return nil
		}
	case core.KindAPICall:
		if _, ok := m.apiCalls[id]; ok {
			delete(m.apiCalls, id)
			return nil
		}
	default:
		return ErrUnknownKind
	}
	return ErrNotFound
}

func (m *Memory) SaveRun(ctx context.Context, run Run) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", ErrStoreClosed
	}

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	m.runs = append(m.runs, run)
	return run.ID, nil
}

func (m *Memory) RunHistory(ctx context.Context, env string, kind core.ItemKind, referenceID string) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	var out []Run
	for _, r := range m.runs {
		if r.Environment == env && r.RunType == kind && r.ReferenceID == referenceID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) AllRunHistory(ctx context.Context, env string, limit int) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	var out []Run
	for _, r := range m.runs {
		if r.Environment == env {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
