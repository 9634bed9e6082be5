package store

import (
	"context"
	"sync"
)

// InMemoryStore keeps everything in process memory.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[string]map[string][]byte)}
}

func (s *InMemoryStore) Get(_ context.Context, learnerID, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[learnerID][key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *InMemoryStore) Put(_ context.Context, learnerID, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(learnerID, key, value)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, learnerID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[learnerID], key)
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, learnerID, key string, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var current []byte
	if v, ok := s.data[learnerID][key]; ok {
		current = append([]byte(nil), v...)
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	s.putLocked(learnerID, key, next)
	return nil
}

func (s *InMemoryStore) Ping(context.Context) error { return nil }

func (s *InMemoryStore) Close() error { return nil }

func (s *InMemoryStore) putLocked(learnerID, key string, value []byte) {
	m, ok := s.data[learnerID]
	if !ok {
		m = make(map[string][]byte)
		s.data[learnerID] = m
	}
	m[key] = append([]byte(nil), value...)
}
