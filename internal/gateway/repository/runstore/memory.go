package runstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]Snapshot)}
}

func (s *MemoryStore) Save(_ context.Context, snap Snapshot) error {
	id := strings.TrimSpace(snap.RunID)
	if id == "" {
		return fmt.Errorf("run_id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[id] = cloneSnapshot(snap)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, runID string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.byID[strings.TrimSpace(runID)]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return cloneSnapshot(snap), nil
}
