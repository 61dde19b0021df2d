package kv

import (
	"github.com/patrickmn/go-cache"
)

// MemoryStore is a process-local store; contents are lost on exit
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

// Get returns the value stored under key
func (s *MemoryStore) Get(key string) (string, bool, error) {
	if data, found := s.cache.Get(key); found {
		if value, ok := data.(string); ok {
			return value, true, nil
		}
	}
	return "", false, nil
}

// Set stores value under key
func (s *MemoryStore) Set(key, value string) error {
	s.cache.Set(key, value, cache.NoExpiration)
	return nil
}

// Remove deletes key
func (s *MemoryStore) Remove(key string) error {
	s.cache.Delete(key)
	return nil
}
