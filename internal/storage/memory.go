package storage

import (
	"bytes"
	"context"
	"sync"
)

type memoryStoreImpl struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryStore() Store {
	return &memoryStoreImpl{
		values: make(map[string][]byte),
	}
}

func (s *memoryStoreImpl) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(value), nil
}

func (s *memoryStoreImpl) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = bytes.Clone(value)
	return nil
}

func (s *memoryStoreImpl) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

func (s *memoryStoreImpl) Close() error {
	return nil
}
