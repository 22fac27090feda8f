package migrate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/learnpath/internal/kvstore"
	"github.com/abhisek/learnpath/internal/learning"
	"github.com/abhisek/learnpath/internal/pathstore"
	"github.com/abhisek/learnpath/internal/questionbank"
)

var t0 = time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)

func opts() Options {
	return Options{Now: func() time.Time { return t0 }}
}

func seedLegacy(t *testing.T, kv *kvstore.Store) {
	t.Helper()
	legacy := LegacyPath{
		Name: "Old Path",
		Modules: []learning.Module{
			{ID: "git-basics", Title: "Git Basics", Duration: 120, Status: learning.StatusCompleted, Progress: 100},
			{ID: "docker-intro", Title: "Docker", Duration: 180, Status: learning.StatusInProgress, Progress: 40},
			{ID: "k8s", Title: "Kubernetes", Duration: 240},
		},
		CompletedModules: []string{"git-basics"},
	}
	require.NoError(t, kv.Set(kvstore.KeyLegacyLearningPath, legacy))
	require.NoError(t, kv.Set(kvstore.KeyLegacyCustomModules, []learning.Module{{ID: "my-mod", Title: "Mine"}}))
	require.NoError(t, kv.Set(kvstore.KeyLegacyQuizAttempts, []learning.QuizAttempt{
		{ID: "a1", ModuleID: "git-basics", Score: 100, Passed: true},
		{ID: "a2", ModuleID: "docker-intro", Score: 40},
	}))
	require.NoError(t, kv.Set(kvstore.KeyLegacyCertificates, []learning.Certificate{
		{ID: "c1", ModuleID: "git-basics", ModuleName: "Git Basics", Score: 100},
	}))
	require.NoError(t, kv.Set(kvstore.KeyLegacyCustomQuestions, learning.CustomQuestionBank{
		"git-basics": {{Question: questionbank.Question{ID: "q1", Text: "?", Options: []string{"a", "b"}}}},
	}))
	require.NoError(t, kv.Set(kvstore.KeyImportedQuestions, []questionbank.Question{{ID: "imp-1"}}))
}

func TestDetect(t *testing.T) {
	kv := kvstore.New(kvstore.NewMemoryBackend(), nil)
	assert.False(t, Detect(kv))

	require.NoError(t, kv.Set(kvstore.KeyImportedQuestions, []questionbank.Question{}))
	assert.False(t, Detect(kv), "imported questions alone are not legacy data")

	require.NoError(t, kv.Set(kvstore.KeyLegacyQuizAttemptsTimestamp, 1))
	assert.True(t, Detect(kv))
}

func TestRunWithoutLegacyData(t *testing.T) {
	kv := kvstore.New(kvstore.NewMemoryBackend(), nil)
	res := Run(context.Background(), kv, opts())
	assert.False(t, res.Success)
	assert.Equal(t, []string{ErrNoLegacy}, res.Errors)
	assert.Empty(t, kv.Keys())
}

func TestRunMigratesLegacyData(t *testing.T) {
	kv := kvstore.New(kvstore.NewMemoryBackend(), nil)
	seedLegacy(t, kv)

	res := Run(context.Background(), kv, opts())
	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Equal(t, 1, res.PathsCreated)
	assert.Equal(t, Counts{Modules: 3, QuizAttempts: 2, Certificates: 1, CustomQuestions: 1}, res.DataMigrated)
	assert.Equal(t, "legacy-backup-1714644000000", res.BackupKey)
	assert.True(t, kv.Has(res.BackupKey))

	for _, k := range kvstore.LegacyKeys() {
		assert.False(t, kv.Has(k), "legacy key %s should be gone", k)
	}
	assert.True(t, kv.Has(kvstore.KeyImportedQuestions))
	assert.False(t, Detect(kv))

	m := learning.NewManager(kv)
	m.Load()
	paths := m.Paths()
	require.Len(t, paths, 1)
	p := paths[0]
	assert.Equal(t, res.PathID, p.ID)
	assert.Equal(t, "Old Path", p.Name)
	assert.Equal(t, Description, p.Description)
	assert.Equal(t, DefaultColor, p.Color)
	assert.True(t, p.IsActive)
	assert.Equal(t, 540, p.TotalDuration)
	assert.Equal(t, []string{"git-basics"}, p.CompletedModules)
	assert.Equal(t, 47, p.OverallProgress)
	for i, mod := range p.Modules {
		assert.Equal(t, i, mod.Position)
		assert.Equal(t, p.ID, mod.PathID)
	}
	assert.Equal(t, learning.StatusNotStarted, p.Modules[2].Status)

	attempts := m.AllQuizAttempts()
	require.Len(t, attempts, 2)
	for _, a := range attempts {
		assert.Equal(t, p.ID, a.PathID)
	}
	cert, ok := m.Certificate("git-basics")
	require.True(t, ok)
	assert.Equal(t, "Old Path", cert.PathName)
	assert.Equal(t, p.ID, cert.PathID)

	qs := m.CustomQuestions("git-basics")
	require.Len(t, qs, 1)
	assert.Equal(t, p.ID, qs[0].PathID)
	assert.True(t, m.IsCustomModule("my-mod"))
}

func TestRunKeepsExistingPaths(t *testing.T) {
	kv := kvstore.New(kvstore.NewMemoryBackend(), nil)
	m := learning.NewManager(kv)
	m.Load()
	existing := m.ActivePathID()

	require.NoError(t, kv.Set(kvstore.KeyLegacyQuizAttempts, []learning.QuizAttempt{{ID: "a1", ModuleID: "x"}}))
	res := Run(context.Background(), kv, opts())
	require.True(t, res.Success)

	m = learning.NewManager(kv)
	m.Load()
	require.Len(t, m.Paths(), 2)
	assert.Equal(t, res.PathID, m.ActivePathID())
	old, ok := m.Path(existing)
	require.True(t, ok)
	assert.False(t, old.IsActive)

	migrated, _ := m.Path(res.PathID)
	assert.Equal(t, DefaultName, migrated.Name)
	assert.Empty(t, migrated.Modules)
}

func TestRunFallsBackToAttemptsBackup(t *testing.T) {
	kv := kvstore.New(kvstore.NewMemoryBackend(), nil)
	require.NoError(t, kv.Set(kvstore.KeyLegacyQuizAttemptsBackup, []learning.QuizAttempt{{ID: "a1", ModuleID: "x"}}))

	res := Run(context.Background(), kv, opts())
	require.True(t, res.Success)
	assert.Equal(t, 1, res.DataMigrated.QuizAttempts)
	assert.False(t, kv.Has(kvstore.KeyLegacyQuizAttemptsBackup))
}

type failingApply struct{ *kvstore.MemoryBackend }

func (failingApply) Apply(context.Context, []kvstore.Op) error {
	return errors.New("disk full")
}

func TestCommitFailureLeavesLegacyData(t *testing.T) {
	kv := kvstore.New(failingApply{kvstore.NewMemoryBackend()}, nil)
	seedLegacy(t, kv)
	before := map[string]string{}
	for _, k := range kvstore.LegacyKeys() {
		if raw, ok := kv.Raw(k); ok {
			before[k] = raw
		}
	}

	res := Run(context.Background(), kv, opts())
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "disk full")

	for k, raw := range before {
		got, ok := kv.Raw(k)
		assert.True(t, ok, k)
		assert.Equal(t, raw, got, k)
	}
	assert.False(t, kv.Has(kvstore.KeyLearningPaths))
	assert.False(t, kv.Has(kvstore.KeyPathManager))
	assert.Empty(t, pathstore.New(kv).PathIDs())
}

func TestCorruptLegacyValueAborts(t *testing.T) {
	kv := kvstore.New(kvstore.NewMemoryBackend(), nil)
	require.NoError(t, kv.SetRaw(kvstore.KeyLegacyLearningPath, "{not json"))

	res := Run(context.Background(), kv, opts())
	assert.False(t, res.Success)
	require.NotEmpty(t, res.Errors)
	assert.True(t, strings.HasPrefix(res.Errors[0], "read legacy data"))
	assert.True(t, kv.Has(kvstore.KeyLegacyLearningPath))
	assert.True(t, kv.Has(res.BackupKey))

	raw, _ := kv.Raw(res.BackupKey)
	assert.Contains(t, raw, `"{not json"`)
}

func TestRetriedMigrationReusesBackup(t *testing.T) {
	kv := kvstore.New(kvstore.NewMemoryBackend(), nil)
	require.NoError(t, kv.SetRaw(kvstore.KeyLegacyLearningPath, "{not json"))

	first := Run(context.Background(), kv, opts())
	require.False(t, first.Success)
	later := Options{Now: func() time.Time { return t0.Add(time.Hour) }}
	second := Run(context.Background(), kv, later)
	require.False(t, second.Success)
	assert.Equal(t, first.BackupKey, second.BackupKey)

	backups := 0
	for _, k := range kv.Keys() {
		if strings.HasPrefix(k, kvstore.PrefixLegacyBackup) {
			backups++
		}
	}
	assert.Equal(t, 1, backups)

	require.NoError(t, kv.SetRaw(kvstore.KeyLegacyLearningPath, "{still not json"))
	third := Run(context.Background(), kv, later)
	assert.NotEqual(t, first.BackupKey, third.BackupKey, "changed data gets a new backup")
}

func TestBackupFailureAborts(t *testing.T) {
	kv := kvstore.New(nil, nil)
	res := Run(context.Background(), kv, opts())
	assert.False(t, res.Success)

	mem := kvstore.NewMemoryBackend()
	kv = kvstore.New(readOnly{mem}, nil)
	require.NoError(t, mem.Set(context.Background(), kvstore.KeyLegacyCertificates, "[]"))
	res = Run(context.Background(), kv, opts())
	assert.False(t, res.Success)
	assert.Empty(t, res.BackupKey)
	assert.True(t, strings.HasPrefix(res.Errors[0], "backup legacy data"))
}

type readOnly struct{ *kvstore.MemoryBackend }

func (readOnly) Set(context.Context, string, string) error { return errors.New("read only") }

func TestTransformDerivesStatus(t *testing.T) {
	l := Legacy{Path: &LegacyPath{
		Modules: []learning.Module{
			{ID: "a", Progress: 100},
			{ID: "b", Progress: 30},
			{ID: "c"},
			{ID: "d", Status: learning.StatusInProgress, Progress: 60},
			{ID: "a", Progress: 10},
		},
		CompletedModules: []string{"d"},
	}}
	plan, err := Transform(l, "path-1", t0)
	require.NoError(t, err)

	p := plan.Path
	require.Len(t, p.Modules, 4, "duplicates are dropped")
	want := []learning.ModuleStatus{learning.StatusCompleted, learning.StatusInProgress, learning.StatusNotStarted, learning.StatusCompleted}
	for i, mod := range p.Modules {
		assert.Equal(t, want[i], mod.Status, mod.ID)
		assert.Equal(t, mod.Status == learning.StatusCompleted, mod.Progress == 100, mod.ID)
	}
	assert.Equal(t, []string{"d", "a"}, p.CompletedModules)
	assert.Equal(t, DefaultName, p.Name)

	_, err = Transform(Legacy{Path: &LegacyPath{Modules: []learning.Module{{Title: "no id"}}}}, "path-1", t0)
	assert.Error(t, err)
}
