// Package pathstore namespaces the key-value store by learning-path id.
// Each (path, kind) pair maps to exactly one storage key.
package pathstore

import (
	"sort"
	"strings"

	"github.com/abhisek/learnpath/internal/kvstore"
)

// Kind identifies one category of per-path data.
type Kind int

const (
	KindCustomModules Kind = iota
	KindQuizAttempts
	KindCertificates
	KindCustomQuestions
)

var kindPrefixes = map[Kind]string{
	KindCustomModules:   kvstore.PrefixCustomModules,
	KindQuizAttempts:    kvstore.PrefixQuizAttempts,
	KindCertificates:    kvstore.PrefixCertificates,
	KindCustomQuestions: kvstore.PrefixCustomQuestions,
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindCustomModules, KindQuizAttempts, KindCertificates, KindCustomQuestions}
}

// String returns the kind's storage name.
func (k Kind) String() string {
	p, ok := kindPrefixes[k]
	if !ok {
		return "unknown"
	}
	return strings.TrimSuffix(p, "-")
}

// Key returns the storage key holding kind data for pathID.
func Key(pathID string, kind Kind) string {
	return kindPrefixes[kind] + pathID
}

// ParseKey reverses Key. Legacy single-path keys that happen to share a
// prefix, such as quiz-attempts-backup, are rejected.
func ParseKey(key string) (pathID string, kind Kind, ok bool) {
	if kvstore.IsLegacyKey(key) {
		return "", 0, false
	}
	for _, k := range Kinds() {
		p := kindPrefixes[k]
		if strings.HasPrefix(key, p) && len(key) > len(p) {
			return key[len(p):], k, true
		}
	}
	return "", 0, false
}

// Store reads and writes per-path data through a kvstore.Store.
type Store struct {
	kv *kvstore.Store
}

// New creates a path-scoped view of kv.
func New(kv *kvstore.Store) *Store {
	return &Store{kv: kv}
}

// KV returns the underlying key-value store.
func (s *Store) KV() *kvstore.Store {
	return s.kv
}

// Get returns the kind data for pathID, or def when absent or unreadable.
func Get[T any](s *Store, pathID string, kind Kind, def T) T {
	return kvstore.Get(s.kv, Key(pathID, kind), def)
}

// Set stores v as the kind data for pathID.
func (s *Store) Set(pathID string, kind Kind, v any) error {
	return s.kv.Set(Key(pathID, kind), v)
}

// Remove deletes the kind data for pathID.
func (s *Store) Remove(pathID string, kind Kind) error {
	return s.kv.Remove(Key(pathID, kind))
}

// Clear deletes every kind of data for pathID in one batch.
func (s *Store) Clear(pathID string) error {
	if !s.kv.Available() {
		return nil
	}
	return s.kv.Apply(ClearOps(pathID))
}

// ClearOps returns the batch ops that delete all data for pathID.
func ClearOps(pathID string) []kvstore.Op {
	ops := make([]kvstore.Op, 0, len(kindPrefixes))
	for _, k := range Kinds() {
		ops = append(ops, kvstore.DeleteOp(Key(pathID, k)))
	}
	return ops
}

// PathIDs returns the sorted set of path ids that have any stored data.
func (s *Store) PathIDs() []string {
	seen := make(map[string]bool)
	for _, key := range s.kv.Keys() {
		if id, _, ok := ParseKey(key); ok {
			seen[id] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SetOp builds a batch op storing v as the kind data for pathID.
func SetOp(pathID string, kind Kind, v any) (kvstore.Op, error) {
	return kvstore.SetOp(Key(pathID, kind), v)
}
