package kvstore

import (
	"context"
	"sort"
	"sync"
)

// Backend is a persistent string-to-string key-value table.
type Backend interface {
	// Get returns the raw value stored under key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all stored keys in ascending order.
	Keys(ctx context.Context) ([]string, error)

	// Apply runs all ops atomically: either every op is visible
	// afterwards or none is.
	Apply(ctx context.Context, ops []Op) error

	// Close releases backend resources.
	Close() error
}

// OpKind identifies a batch operation.
type OpKind int

const (
	OpSet OpKind = iota
	OpDelete
)

// Op is a single write inside an atomic batch.
type Op struct {
	Kind  OpKind
	Key   string
	Value string
}

// MemoryBackend keeps everything in a map. It is used by tests and by
// callers that want state without durability.
type MemoryBackend struct {
	mu   sync.Mutex
	data map[string]string
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]string)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryBackend) Keys(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryBackend) Apply(_ context.Context, ops []Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range ops {
		switch op.Kind {
		case OpSet:
			m.data[op.Key] = op.Value
		case OpDelete:
			delete(m.data, op.Key)
		}
	}
	return nil
}

func (m *MemoryBackend) Close() error {
	return nil
}
