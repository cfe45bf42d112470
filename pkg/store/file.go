package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tracewire/tracewire/pkg/diagram"
)

// FileStore persists snapshots and templates as msgpack records under a
// base directory, one file per record. Suited to CLI usage.
//
// Layout on disk:
//
//	<base>/versions/<id>.msgpack
//	<base>/templates/<name>.msgpack
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
	now     func() time.Time
}

// NewFileStore opens a file store rooted at baseDir. If baseDir is empty
// it defaults to ~/.config/tracewire/store.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "tracewire", "store")
	}
	for _, sub := range []string{"versions", "templates"} {
		if err := os.MkdirAll(filepath.Join(baseDir, sub), 0o700); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	return &FileStore{baseDir: baseDir, now: time.Now}, nil
}

func (s *FileStore) snapshotPath(id string) string {
	return filepath.Join(s.baseDir, "versions", id+".msgpack")
}

func (s *FileStore) templatePath(name string) string {
	return filepath.Join(s.baseDir, "templates", name+".msgpack")
}

func writeRecord(path string, v any) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

func readRecord(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read record: %w", err)
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode record: %w", err)
	}
	return true, nil
}

func (s *FileStore) SaveSnapshot(_ context.Context, l diagram.Layout, note string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &Snapshot{
		ID:        uuid.NewString(),
		Note:      note,
		Layout:    l,
		CreatedAt: s.now(),
	}
	if err := writeRecord(s.snapshotPath(snap.ID), snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *FileStore) ListSnapshots(context.Context) ([]*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(s.baseDir, "versions"))
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}

	var out []*Snapshot
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".msgpack") {
			continue
		}
		var snap Snapshot
		ok, err := readRecord(filepath.Join(s.baseDir, "versions", e.Name()), &snap)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, &snap)
		}
	}
	sortSnapshots(out)
	return out, nil
}

func (s *FileStore) GetSnapshot(_ context.Context, id string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap Snapshot
	ok, err := readRecord(s.snapshotPath(id), &snap)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	return &snap, nil
}

func (s *FileStore) DeleteSnapshot(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.snapshotPath(id))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	return err
}

func (s *FileStore) SaveTemplate(_ context.Context, name string, l diagram.Layout) (*Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	t := &Template{Name: name, Layout: l, CreatedAt: now, UpdatedAt: now}

	var prev Template
	if ok, err := readRecord(s.templatePath(name), &prev); err == nil && ok {
		t.CreatedAt = prev.CreatedAt
	}
	if err := writeRecord(s.templatePath(name), t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *FileStore) GetTemplate(_ context.Context, name string) (*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t Template
	ok, err := readRecord(s.templatePath(name), &t)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return &t, nil
}

func (s *FileStore) ListTemplates(context.Context) ([]*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(s.baseDir, "templates"))
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	var out []*Template
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".msgpack") {
			continue
		}
		var t Template
		ok, err := readRecord(filepath.Join(s.baseDir, "templates", e.Name()), &t)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, &t)
		}
	}
	// ReadDir is name-sorted already; record names match file names.
	return out, nil
}

func (s *FileStore) DeleteTemplate(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.templatePath(name))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return err
}

var (
	_ VersionStore  = (*FileStore)(nil)
	_ TemplateStore = (*FileStore)(nil)
)
