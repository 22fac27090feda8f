// Package kvstore is a typed JSON key-value adapter over a persistent
// backend. Reads never fail: a missing backend, a missing key or a value
// that does not decode yields the caller's default. Write failures are
// logged and returned so callers can decide whether to care.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNoBackend is returned by writes on a Store without a backend.
var ErrNoBackend = errors.New("no storage backend available")

// Store wraps a Backend with JSON encoding and error reporting.
type Store struct {
	backend Backend
	log     *zap.Logger
}

// New creates a Store. A nil backend yields a store whose reads return
// defaults and whose writes do nothing.
func New(backend Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{backend: backend, log: log.Named("kvstore")}
}

// Available reports whether the store has a backend.
func (s *Store) Available() bool {
	return s != nil && s.backend != nil
}

// Load decodes the value stored under key into a T. found is false when
// the key does not exist; err is set when the backend fails or the value
// does not decode.
func Load[T any](s *Store, key string) (v T, found bool, err error) {
	if !s.Available() {
		return v, false, nil
	}
	raw, ok, err := s.backend.Get(context.Background(), key)
	if err != nil {
		s.log.Warn("read failed", zap.String("key", key), zap.Error(err))
		return v, false, err
	}
	if !ok {
		return v, false, nil
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		s.log.Warn("corrupt value", zap.String("key", key), zap.Error(err))
		return v, true, fmt.Errorf("decode %q: %w", key, err)
	}
	return v, true, nil
}

// Get returns the value under key, or def when it is missing or unreadable.
func Get[T any](s *Store, key string, def T) T {
	v, found, err := Load[T](s, key)
	if !found || err != nil {
		return def
	}
	return v
}

// Raw returns the undecoded value stored under key.
func (s *Store) Raw(key string) (string, bool) {
	if !s.Available() {
		return "", false
	}
	raw, ok, err := s.backend.Get(context.Background(), key)
	if err != nil {
		s.log.Warn("read failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return raw, ok
}

// Set JSON-encodes v and stores it under key.
func (s *Store) Set(key string, v any) error {
	if !s.Available() {
		return nil
	}
	op, err := SetOp(key, v)
	if err != nil {
		s.log.Warn("encode failed", zap.String("key", key), zap.Error(err))
		return err
	}
	if err := s.backend.Set(context.Background(), key, op.Value); err != nil {
		s.log.Warn("write failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// SetRaw stores an already encoded value under key.
func (s *Store) SetRaw(key, raw string) error {
	if !s.Available() {
		return ErrNoBackend
	}
	if err := s.backend.Set(context.Background(), key, raw); err != nil {
		s.log.Warn("write failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Remove deletes key.
func (s *Store) Remove(key string) error {
	if !s.Available() {
		return nil
	}
	if err := s.backend.Delete(context.Background(), key); err != nil {
		s.log.Warn("remove failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Has reports whether key exists.
func (s *Store) Has(key string) bool {
	_, ok := s.Raw(key)
	return ok
}

// Keys returns every stored key, including keys outside the app namespace.
func (s *Store) Keys() []string {
	if !s.Available() {
		return nil
	}
	keys, err := s.backend.Keys(context.Background())
	if err != nil {
		s.log.Warn("list keys failed", zap.Error(err))
		return nil
	}
	return keys
}

// Clear removes every key in the application namespace and leaves
// unrelated keys alone.
func (s *Store) Clear() error {
	if !s.Available() {
		return nil
	}
	var ops []Op
	for _, k := range s.Keys() {
		if IsAppKey(k) {
			ops = append(ops, DeleteOp(k))
		}
	}
	return s.Apply(ops)
}

// Apply runs ops atomically.
func (s *Store) Apply(ops []Op) error {
	if !s.Available() {
		return ErrNoBackend
	}
	if len(ops) == 0 {
		return nil
	}
	if err := s.backend.Apply(context.Background(), ops); err != nil {
		s.log.Warn("batch write failed", zap.Int("ops", len(ops)), zap.Error(err))
		return err
	}
	return nil
}

// Close closes the backend.
func (s *Store) Close() error {
	if !s.Available() {
		return nil
	}
	return s.backend.Close()
}

// SetOp builds a batch op storing the JSON encoding of v under key.
func SetOp(key string, v any) (Op, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Op{}, fmt.Errorf("encode %q: %w", key, err)
	}
	return Op{Kind: OpSet, Key: key, Value: string(b)}, nil
}

// DeleteOp builds a batch op removing key.
func DeleteOp(key string) Op {
	return Op{Kind: OpDelete, Key: key}
}
