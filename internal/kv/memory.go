package kv

import (
	"context"
	"sync"
)

// InMemory keeps values in a map. Values are copied in and out.
type InMemory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewInMemory() *InMemory {
	return &InMemory{values: make(map[string][]byte)}
}

func (s *InMemory) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *InMemory) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	return nil
}
