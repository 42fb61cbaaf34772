package session

import (
	"errors"
	"sync"
)

// Keys under which session state is persisted.
const (
	KeyUser        = "user"
	KeyAccessToken = "accessToken"
	KeyCookies     = "cookies"
)

// ErrNotFound is returned by a Store when a key has no value.
var ErrNotFound = errors.New("key not found")

// Store is a durable string key-value store for client state.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(keys ...string) error
}

// MemoryStore is a Store that lives only as long as the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}
