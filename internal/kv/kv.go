// Package kv defines the durable key/value port that backs the client session,
// with an in-memory implementation and a JSON file implementation.
package kv

import (
	"context"
	"sync"
)

// Store is a string key/value store.
//
// Implementations must be safe for concurrent use within a process. There is no
// cross-process locking: when two processes share a store the last write wins.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// MemoryStore implements Store in memory.
//
// Suitable for tests and for sessions that should not outlive the process.
type MemoryStore struct {
	values sync.Map
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the value stored under key.
func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.values.Load(key)
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

// Set stores a value.
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.values.Store(key, value)
	return nil
}

// Delete removes a value.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.values.Delete(key)
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStore) Len() int {
	count := 0
	m.values.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}
