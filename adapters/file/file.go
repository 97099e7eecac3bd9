package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lborres/assessgate/core"
)

// Store implements core.EntryStore as a single JSON object on disk.
// Writes go to a temp file that is renamed over the original, so readers
// never see one entry updated without the other.
type Store struct {
	path string
	mu   sync.Mutex
}

var _ core.EntryStore = (*Store)(nil)

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("session file path is required")
	}
	return &Store{path: path}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(_ context.Context, keys ...string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readLocked()
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := all[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *Store) Put(_ context.Context, entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readLocked()
	if err != nil {
		// a corrupt file is replaced rather than blocking every future login
		all = make(map[string]string)
	}
	for k, v := range entries {
		all[k] = v
	}
	return s.writeLocked(all)
}

func (s *Store) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readLocked()
	if err != nil {
		all = make(map[string]string)
	}
	changed := false
	for _, k := range keys {
		if _, ok := all[k]; ok {
			delete(all, k)
			changed = true
		}
	}

	if len(all) == 0 {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove session file: %w", err)
		}
		return nil
	}
	if !changed {
		return nil
	}
	return s.writeLocked(all)
}

func (s *Store) readLocked() (map[string]string, error) {
	all := make(map[string]string)

	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return all, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if len(b) == 0 {
		return all, nil
	}

	if err := json.Unmarshal(b, &all); err != nil {
		return nil, fmt.Errorf("%w: decode session file: %v", core.ErrHydration, err)
	}
	return all, nil
}

func (s *Store) writeLocked(all map[string]string) error {
	b, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
