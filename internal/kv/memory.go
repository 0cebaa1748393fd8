package kv

import (
	"context"
	"sync"
)

// MemoryStore keeps values in process memory. Used by tests and the
// memory backend.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	return s.SetMany(ctx, map[string][]byte{key: value})
}

func (s *MemoryStore) SetMany(ctx context.Context, entries map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range entries {
		s.data[k] = clone(v)
	}
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, fn func(Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	txn := &memoryTxn{data: s.data, staged: make(map[string][]byte)}
	if err := fn(txn); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for k, v := range txn.staged {
		s.data[k] = v
	}
	return nil
}

type memoryTxn struct {
	data   map[string][]byte
	staged map[string][]byte
}

func (t *memoryTxn) Get(key string) ([]byte, bool, error) {
	if v, ok := t.staged[key]; ok {
		return clone(v), true, nil
	}
	v, ok := t.data[key]
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (t *memoryTxn) Set(key string, value []byte) {
	t.staged[key] = clone(value)
}

// Delete removes a key. Used by tests to simulate a fresh install.
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

func (s *MemoryStore) Close() error { return nil }

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
