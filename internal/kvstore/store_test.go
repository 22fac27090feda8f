package kvstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLiteBackend(t *testing.T) *SQLiteBackend {
	t.Helper()
	b, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func backends(t *testing.T) map[string]Backend {
	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"sqlite": openSQLiteBackend(t),
	}
}

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestStoreRoundTrip(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(b, nil)

			require.NoError(t, s.Set("learning-paths", []sample{{Name: "a", Count: 1}}))
			got := Get(s, "learning-paths", []sample(nil))
			assert.Equal(t, []sample{{Name: "a", Count: 1}}, got)
			assert.True(t, s.Has("learning-paths"))

			require.NoError(t, s.Remove("learning-paths"))
			assert.False(t, s.Has("learning-paths"))
			assert.Nil(t, Get(s, "learning-paths", []sample(nil)))
		})
	}
}

func TestGetReturnsDefaultForCorruptValue(t *testing.T) {
	b := NewMemoryBackend()
	require.NoError(t, b.Set(context.Background(), "active-path-id", "{not json"))
	s := New(b, nil)

	assert.Equal(t, "fallback", Get(s, "active-path-id", "fallback"))

	_, found, err := Load[string](s, "active-path-id")
	assert.True(t, found)
	assert.Error(t, err)
}

func TestStoreWithoutBackend(t *testing.T) {
	s := New(nil, nil)

	assert.False(t, s.Available())
	assert.NoError(t, s.Set("learning-paths", 1))
	assert.Equal(t, 7, Get(s, "learning-paths", 7))
	assert.False(t, s.Has("learning-paths"))
	assert.NoError(t, s.Remove("learning-paths"))
	assert.NoError(t, s.Clear())
	assert.Nil(t, s.Keys())
	assert.ErrorIs(t, s.Apply([]Op{DeleteOp("x")}), ErrNoBackend)
}

func TestSetReportsEncodeError(t *testing.T) {
	s := New(NewMemoryBackend(), nil)
	err := s.Set("learning-paths", make(chan int))
	assert.Error(t, err)
	assert.False(t, s.Has("learning-paths"))
}

func TestClearKeepsForeignKeys(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(b, nil)
			for _, k := range []string{
				"learning-paths",
				"active-path-id",
				"quiz-attempts-path-1",
				"custom-questions-path-1",
				"legacy-backup-1700000000000",
				"learning-path",
				"theme",
				"someone-elses-key",
			} {
				require.NoError(t, s.Set(k, true))
			}

			require.NoError(t, s.Clear())
			assert.Equal(t, []string{"someone-elses-key", "theme"}, s.Keys())
		})
	}
}

func TestApplyIsAtomicOnSQLite(t *testing.T) {
	b := openSQLiteBackend(t)
	s := New(b, nil)
	require.NoError(t, s.Set("learning-paths", "before"))

	ops := []Op{
		{Kind: OpSet, Key: "learning-paths", Value: `"after"`},
		{Kind: OpKind(99), Key: "broken"},
	}
	require.Error(t, s.Apply(ops))
	assert.Equal(t, "before", Get(s, "learning-paths", ""))

	op, err := SetOp("learning-paths", "after")
	require.NoError(t, err)
	require.NoError(t, s.Apply([]Op{op, DeleteOp("missing")}))
	assert.Equal(t, "after", Get(s, "learning-paths", ""))
}

type failingBackend struct {
	*MemoryBackend
}

func (f failingBackend) Set(context.Context, string, string) error {
	return errors.New("quota exceeded")
}

func TestSetReturnsBackendError(t *testing.T) {
	s := New(failingBackend{NewMemoryBackend()}, nil)
	assert.EqualError(t, s.Set("learning-paths", 1), "quota exceeded")
	assert.Equal(t, 0, Get(s, "learning-paths", 0))
}

func TestIsAppKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"learning-paths", true},
		{"imported-questions", true},
		{"custom-module-questions", true},
		{"custom-modules-path-1", true},
		{"custom-modules-", false},
		{"certificates-abc", true},
		{"legacy-backup-123", true},
		{"learning-paths-extra", false},
		{"other", false},
	}
	for _, tt := range tests {
		if got := IsAppKey(tt.key); got != tt.want {
			t.Errorf("IsAppKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestIsLegacyKey(t *testing.T) {
	assert.True(t, IsLegacyKey("quiz-attempts-timestamp"))
	assert.False(t, IsLegacyKey("imported-questions"))
	assert.False(t, IsLegacyKey("quiz-attempts-path-1"))
}
