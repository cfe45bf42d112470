package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tracewire/tracewire/pkg/diagram"
)

// MemoryStore keeps snapshots and templates in process memory. Used in
// tests and for sessions that opt out of persistence.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
	templates map[string]*Template
	now       func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: map[string]*Snapshot{},
		templates: map[string]*Template{},
		now:       time.Now,
	}
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, l diagram.Layout, note string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &Snapshot{
		ID:        uuid.NewString(),
		Note:      note,
		Layout:    l,
		CreatedAt: s.now(),
	}
	s.snapshots[snap.ID] = snap
	return snap, nil
}

func (s *MemoryStore) ListSnapshots(context.Context) ([]*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Snapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		out = append(out, snap)
	}
	sortSnapshots(out)
	return out, nil
}

func (s *MemoryStore) GetSnapshot(_ context.Context, id string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	return snap, nil
}

func (s *MemoryStore) DeleteSnapshot(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snapshots[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	delete(s.snapshots, id)
	return nil
}

func (s *MemoryStore) SaveTemplate(_ context.Context, name string, l diagram.Layout) (*Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	t := &Template{Name: name, Layout: l, CreatedAt: now, UpdatedAt: now}
	if prev, ok := s.templates[name]; ok {
		t.CreatedAt = prev.CreatedAt
	}
	s.templates[name] = t
	return t, nil
}

func (s *MemoryStore) GetTemplate(_ context.Context, name string) (*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return t, nil
}

func (s *MemoryStore) ListTemplates(context.Context) ([]*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Template, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b *Template) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (s *MemoryStore) DeleteTemplate(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[name]; !ok {
		return fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	delete(s.templates, name)
	return nil
}

// sortSnapshots orders newest first, ties broken by id for stability.
func sortSnapshots(snaps []*Snapshot) {
	slices.SortFunc(snaps, func(a, b *Snapshot) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

var (
	_ VersionStore  = (*MemoryStore)(nil)
	_ TemplateStore = (*MemoryStore)(nil)
)
