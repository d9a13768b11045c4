package artifact

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Object
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Object)}
}

func (s *MemoryStore) Put(_ context.Context, runID, path string, obj Object) error {
	key, err := objectKey(runID, path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = Object{ContentType: contentTypeOr(obj.ContentType), Data: append([]byte(nil), obj.Data...)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, runID, path string) (Object, error) {
	key, err := objectKey(runID, path)
	if err != nil {
		return Object{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.data[key]
	if !ok {
		return Object{}, ErrNotFound
	}
	obj.Data = append([]byte(nil), obj.Data...)
	return obj, nil
}

func (s *MemoryStore) List(_ context.Context, runID string) ([]string, error) {
	prefix := strings.TrimSpace(runID) + "/"
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, 16)
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			out = append(out, strings.TrimPrefix(key, prefix))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) GetURL(context.Context, string, string) (string, error) {
	return "", ErrNoURL
}
