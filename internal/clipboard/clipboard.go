// Package clipboard holds the copy/paste slot used to move stored items
// between environments. The slot keeps a full snapshot of the copied item,
// so a paste works even after the source row changes or disappears.
package clipboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	osclip "github.com/atotto/clipboard"

	"ruliad/internal/core"
	"ruliad/internal/store"
)

var (
	// ErrEmpty is returned by Paste when nothing has been copied.
	ErrEmpty = errors.New("clipboard is empty")
)

// CopySuffix is appended to pasted item names so duplicates are easy to spot.
const CopySuffix = " (Copy)"

// Slot is a snapshot of a copied item.
type Slot struct {
	ID        string        `json:"id"`
	Kind      core.ItemKind `json:"kind"`
	SourceEnv string        `json:"source_env"`
	Item      core.Item     `json:"item"`
}

// Service owns the in-process slot and mirrors copies to the OS clipboard.
type Service struct {
	mu      sync.RWMutex
	slot    *Slot
	gateway store.Gateway
	user    string

	// writeOS writes to the system clipboard. Injectable for tests and
	// headless environments.
	writeOS func(string) error
}

// NewService creates a clipboard service backed by gw. Pasted items are
// stamped with user as their creator.
func NewService(gw store.Gateway, user string) *Service {
	return &Service{
		gateway: gw,
		user:    user,
		writeOS: osclip.WriteAll,
	}
}

// Copy snapshots item into the slot and mirrors it to the OS clipboard.
// fallbackEnv stands in for the source environment when the item carries
// none. A failed OS write does not invalidate the slot; the error is
// returned so the caller can surface a warning.
func (s *Service) Copy(item core.Item, fallbackEnv string) error {
	if item == nil {
		return errors.New("cannot copy a nil item")
	}
	if !item.Kind().Valid() {
		return fmt.Errorf("%w: %s", store.ErrUnknownKind, item.Kind())
	}

	sourceEnv := item.Env()
	if sourceEnv == "" {
		sourceEnv = fallbackEnv
	}

	snapshot := cloneItem(item)

	s.mu.Lock()
	s.slot = &Slot{
		ID:        item.ItemID(),
		Kind:      item.Kind(),
		SourceEnv: sourceEnv,
		Item:      snapshot,
	}
	s.mu.Unlock()

	payload, err := json.MarshalIndent(map[string]interface{}{
		"kind":       string(item.Kind()),
		"source_env": sourceEnv,
		"item":       snapshot,
	}, "", "  ")
	if err != nil {
		return nil
	}
	return s.writeOS(string(payload))
}

// Slot returns a copy of the current slot, if any.
func (s *Service) Slot() (Slot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.slot == nil {
		return Slot{}, false
	}
	return *s.slot, true
}

// HasContent reports whether something has been copied.
func (s *Service) HasContent() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slot != nil
}

// Paste materializes the slot's snapshot as a new item in targetEnv.
// The copy gets a fresh ID, a " (Copy)" name suffix, and the service
// user as creator. When targetRule is non-empty, requests and api calls
// are retargeted to that rule; suites carry no rule association and
// ignore it. The slot survives the paste, so one copy can seed many
// environments.
func (s *Service) Paste(ctx context.Context, targetEnv, targetRule string) (core.Item, error) {
	s.mu.RLock()
	slot := s.slot
	s.mu.RUnlock()

	if slot == nil {
		return nil, ErrEmpty
	}

	item := cloneItem(slot.Item)

	env := targetEnv
	if env == "" {
		env = slot.SourceEnv
	}

	switch v := item.(type) {
	case *core.Request:
		v.ID = ""
		v.Environment = env
		v.Name = copyName(v.Name)
		v.CreatedBy = s.user
		if targetRule != "" {
			v.RuleName = targetRule
		}
	case *core.Suite:
		v.ID = ""
		v.Environment = env
		v.Name = copyName(v.Name)
		v.CreatedBy = s.user
	case *core.APICall:
		v.ID = ""
		v.Environment = env
		v.Name = copyName(v.Name)
		v.CreatedBy = s.user
		if targetRule != "" {
			v.RuleName = targetRule
		}
	default:
		return nil, fmt.Errorf("%w: %s", store.ErrUnknownKind, slot.Kind)
	}

	id, err := s.gateway.Create(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("failed to paste %s: %w", slot.Kind, err)
	}

	setID(item, id)
	return item, nil
}

func copyName(name string) string {
	return name + CopySuffix
}

func cloneItem(item core.Item) core.Item {
	switch v := item.(type) {
	case *core.Request:
		return v.Clone()
	case *core.Suite:
		return v.Clone()
	case *core.APICall:
		return v.Clone()
	default:
		return item
	}
}

func setID(item core.Item, id string) {
	switch v := item.(type) {
	case *core.Request:
		v.ID = id
	case *core.Suite:
		v.ID = id
	case *core.APICall:
		v.ID = id
	}
}
