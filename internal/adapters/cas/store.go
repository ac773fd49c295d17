// Package cas persists the outcome of task runs.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.BuildInfoStore = (*Store)(nil)

// schemaVersion is bumped whenever the record layout changes. Files of another
// version are discarded, since records are informational only.
const schemaVersion = 1

type document struct {
	Version int                         `json:"version"`
	Tasks   map[string]domain.BuildInfo `json:"tasks"`
}

// Store implements ports.BuildInfoStore with one JSON document holding the
// last record of every task. The document is rewritten on every Put.
type Store struct {
	path string

	mu    sync.RWMutex
	tasks map[string]domain.BuildInfo
}

// NewStore opens the store at path. A missing or empty file yields an empty store.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:  filepath.Clean(path),
		tasks: make(map[string]domain.BuildInfo),
	}

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "path", s.path)
	case len(data) == 0:
		return s, nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error()), "path", s.path)
	}
	if doc.Version == schemaVersion && doc.Tasks != nil {
		s.tasks = doc.Tasks
	}
	return s, nil
}

// Get returns the last record of taskName, or nil when the task never ran.
func (s *Store) Get(taskName string) (*domain.BuildInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.tasks[taskName]
	if !ok {
		return nil, nil
	}
	return &info, nil
}

// Put replaces the record of info.TaskName and persists the store.
func (s *Store) Put(info domain.BuildInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[info.TaskName] = info
	return s.writeLocked()
}

// List returns every record sorted by task name.
func (s *Store) List() ([]domain.BuildInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := slices.Sorted(maps.Keys(s.tasks))
	out := make([]domain.BuildInfo, 0, len(names))
	for _, name := range names {
		out = append(out, s.tasks[name])
	}
	return out, nil
}

// writeLocked replaces the file through a temporary sibling so readers never
// see a partial document. s.mu must be held.
func (s *Store) writeLocked() error {
	data, err := json.MarshalIndent(document{Version: schemaVersion, Tasks: s.tasks}, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}

	if err := os.MkdirAll(filepath.Dir(s.path), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "path", filepath.Dir(s.path))
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", s.path)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", s.path)
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", s.path)
	}
	if err := os.Chmod(tmp.Name(), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", s.path)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", s.path)
	}
	return nil
}
