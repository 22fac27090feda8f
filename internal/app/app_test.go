package app

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/learnpath/internal/config"
	"github.com/abhisek/learnpath/internal/kvstore"
	"github.com/abhisek/learnpath/internal/learning"
	"github.com/abhisek/learnpath/internal/llm"
	"github.com/abhisek/learnpath/internal/migrate"
	"github.com/abhisek/learnpath/internal/questionbank"
	"github.com/abhisek/learnpath/internal/quiz"
)

var t0 = time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Paths: config.PathsConfig{AutoSave: true, DefaultColor: learning.DefaultColor},
		LLM:   config.LLMConfig{Provider: llm.ProviderMock},
	}
}

func openTest(t *testing.T, backend kvstore.Backend) *App {
	t.Helper()
	a, err := Open(Options{Config: testConfig(), Backend: backend, Now: func() time.Time { return t0 }})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestLoadFreshStore(t *testing.T) {
	a := openTest(t, kvstore.NewMemoryBackend())
	res, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res)

	p, ok := a.Manager().ActivePath()
	require.True(t, ok)
	assert.Equal(t, learning.DefaultPathName, p.Name)
	assert.Equal(t, questionbank.Default().Len(), a.Bank().Len())
}

func TestLoadMigratesLegacyData(t *testing.T) {
	backend := kvstore.NewMemoryBackend()
	kv := kvstore.New(backend, nil)
	require.NoError(t, kv.Set(kvstore.KeyLegacyLearningPath, migrate.LegacyPath{
		Name:    "Frontend",
		Modules: []learning.Module{{ID: "html-basics", Title: "HTML", Duration: 60}},
	}))

	a := openTest(t, backend)
	res, err := a.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)
	require.True(t, res.Success, "%v", res.Errors)

	p, ok := a.Manager().ActivePath()
	require.True(t, ok)
	assert.Equal(t, res.PathID, p.ID)
	assert.Equal(t, "Frontend", p.Name)
	assert.True(t, a.Manager().InLearningPath("html-basics"))
	assert.False(t, migrate.Detect(a.Store()), "legacy keys removed")

	again, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, again, "migration runs once")
}

func TestImportQuestionsExtendsBank(t *testing.T) {
	a := openTest(t, kvstore.NewMemoryBackend())
	_, err := a.Load(context.Background())
	require.NoError(t, err)

	before := a.Bank().Len()
	n := a.ImportQuestions([]questionbank.Question{{
		ID: "imp-1", Text: "Imported?", Category: "Imported Only", Difficulty: questionbank.Beginner,
		Options: []string{"yes", "no"}, CorrectAnswer: 0,
	}})
	assert.Equal(t, 1, n)
	assert.Equal(t, before+1, a.Bank().Len())

	s := a.NewQuizSession(quiz.WithTickInterval(0))
	defer s.Close()
	attempt, err := s.Start(learning.Module{ID: "x", Category: "Imported Only", Difficulty: questionbank.Beginner})
	require.NoError(t, err)
	assert.Equal(t, "imp-1", attempt.Questions[0].ID)
}

func TestQuestionGeneratorUsesConfiguredProvider(t *testing.T) {
	a := openTest(t, kvstore.NewMemoryBackend())
	gen, err := a.QuestionGenerator(context.Background())
	require.NoError(t, err)
	require.NotNil(t, gen)

	a.cfg.LLM.Provider = llm.ProviderOpenAI
	t.Setenv("OPENAI_API_KEY", "")
	_, err = a.QuestionGenerator(context.Background())
	assert.Error(t, err, "missing key")
}

func TestRunQuizRequiresLoad(t *testing.T) {
	a := openTest(t, kvstore.NewMemoryBackend())
	_, err := a.RunQuiz(context.Background(), "html-basics")
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestOpenSQLiteRoundTrip(t *testing.T) {
	cfg := testConfig()
	cfg.DB = filepath.Join(t.TempDir(), "learnpath.db")

	a, err := Open(Options{Config: cfg})
	require.NoError(t, err)
	_, err = a.Load(context.Background())
	require.NoError(t, err)
	created := a.Manager().CreatePath(learning.CreatePathInput{Name: "Backend"})
	require.NoError(t, a.Close())

	b, err := Open(Options{Config: cfg})
	require.NoError(t, err)
	defer b.Close()
	_, err = b.Load(context.Background())
	require.NoError(t, err)

	raw, ok := b.Store().Raw(kvstore.KeyLearningPaths)
	require.True(t, ok)
	var paths []learning.LearningPath
	require.NoError(t, json.Unmarshal([]byte(raw), &paths))
	require.Len(t, paths, 2)
	assert.Equal(t, created.ID, paths[1].ID)
}

func TestCloseSavesHeldChanges(t *testing.T) {
	cfg := testConfig()
	cfg.Paths.AutoSave = false
	backend := kvstore.NewMemoryBackend()

	a, err := Open(Options{Config: cfg, Backend: backend, Now: func() time.Time { return t0 }})
	require.NoError(t, err)
	_, err = a.Load(context.Background())
	require.NoError(t, err)
	require.True(t, a.Manager().AddModule(learning.Module{ID: "html-basics", Title: "HTML", Duration: 60}))
	require.True(t, a.Manager().Dirty())
	require.NoError(t, a.Close())

	b := openTest(t, backend)
	_, err = b.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, b.Manager().InLearningPath("html-basics"))
}

func TestNowUsesInjectedClock(t *testing.T) {
	a := openTest(t, kvstore.NewMemoryBackend())
	assert.Equal(t, t0, a.Now())
}
