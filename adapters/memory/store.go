package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/lborres/assessgate/core"
)

// Store implements core.EntryStore in process memory.
// It backs the CLI's ephemeral mode and tests; nothing survives a restart.
type Store struct {
	entries map[string]string
	mu      sync.RWMutex

	// counters
	reads   int64
	writes  int64
	deletes int64
}

var _ core.EntryStore = (*Store)(nil)

// Stats are operation counters for a Store.
type Stats struct {
	Reads   int64
	Writes  int64
	Deletes int64
	Size    int
}

func New() *Store {
	return &Store{entries: make(map[string]string)}
}

func (s *Store) Get(_ context.Context, keys ...string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	atomic.AddInt64(&s.reads, 1)

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := s.entries[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *Store) Put(_ context.Context, entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range entries {
		s.entries[k] = v
	}

	atomic.AddInt64(&s.writes, 1)
	return nil
}

func (s *Store) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		if _, existed := s.entries[k]; existed {
			delete(s.entries, k)
			atomic.AddInt64(&s.deletes, 1)
		}
	}
	return nil
}

// Len returns the number of stored entries
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) Stats() Stats {
	return Stats{
		Reads:   atomic.LoadInt64(&s.reads),
		Writes:  atomic.LoadInt64(&s.writes),
		Deletes: atomic.LoadInt64(&s.deletes),
		Size:    s.Len(),
	}
}
