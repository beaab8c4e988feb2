// Package cache persists parse results between runs, keyed by content
// fingerprint. The store holds parse output only: resolution and graph
// facts depend on the whole tree and are recomputed every run. Deleting
// the store at any time is equivalent to a cold run, never a fault.
package cache

import (
	"errors"
	"sync"
)

// ErrNotFound marks a key with no stored value.
var ErrNotFound = errors.New("cache: key not found")

// Store is the persistence surface. Implementations must be safe for
// concurrent use by the parse workers.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Len() (int, error)
	Close() error
}

// Silent adapts a Store to the parse phase's miss/no-op error policy:
// read failures report a miss and write failures vanish, so a damaged
// cache only ever costs a re-parse.
type Silent struct {
	Store Store
}

func (s Silent) Get(key string) ([]byte, bool) {
	if s.Store == nil {
		return nil, false
	}
	data, err := s.Store.Get(key)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (s Silent) Put(key string, value []byte) {
	if s.Store == nil {
		return
	}
	_ = s.Store.Put(key, value)
}

// Memory is a map-backed Store for tests, --no-cache runs, and as the
// fallback when the disk store cannot be opened.
type Memory struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{m: make(map[string][]byte)}
}

func (c *Memory) Get(key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.m[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (c *Memory) Put(key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = stored
	return nil
}

func (c *Memory) Len() (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m), nil
}

func (c *Memory) Close() error { return nil }
