package questiongen

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/learnpath/internal/kvstore"
	"github.com/abhisek/learnpath/internal/learning"
	"github.com/abhisek/learnpath/internal/llm"
	"github.com/abhisek/learnpath/internal/questionbank"
)

func gitModule() learning.Module {
	return learning.Module{
		ID:                 "git-version-control",
		Title:              "Git Version Control",
		Description:        "Track changes and collaborate on code",
		Category:           "Tools",
		Difficulty:         questionbank.Beginner,
		Topics:             []string{"commits", "branches", "merging"},
		LearningObjectives: []string{"Create and merge branches"},
	}
}

const batchJSON = `{"questions":[
	{"text":"Which command records staged changes?","options":["git commit","git add","git push","git log"],"correctAnswer":0,"explanation":"commit records the index."},
	{"text":"Which command creates a branch?","options":["git merge","git branch feature","git clone","git stash"],"correctAnswer":1,"explanation":"branch creates a ref."},
	{"text":"  which COMMAND records   staged changes? ","options":["a","b","c","d"],"correctAnswer":2,"explanation":"dup"},
	{"text":"What does git fetch do?","options":["x","X","y","z"],"correctAnswer":3,"explanation":"repeated option"}
]}`

func TestGenerate(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	mock := llm.NewMockProvider(llm.MockReply{Content: json.RawMessage(batchJSON)})
	gen := New(mock, DefaultConfig(), zap.New(core))

	qs, err := gen.Generate(context.Background(), gitModule(), 5, nil)
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "Which command records staged changes?", qs[0].Text)
	assert.Equal(t, "Tools", qs[0].Category)
	assert.Equal(t, questionbank.Beginner, qs[1].Difficulty)
	assert.Equal(t, 1, qs[1].CorrectAnswer)
	assert.Equal(t, 2, logs.FilterMessage("dropping generated question").Len())

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, BatchSchema, calls[0].Schema)
	assert.Equal(t, 0.7, calls[0].Temperature)
	user := calls[0].Messages[0].Content
	assert.Contains(t, user, "Module: Git Version Control")
	assert.Contains(t, user, "Topics: commits, branches, merging")
	assert.Contains(t, user, "Number of questions: 5")
	assert.Contains(t, user, "Already asked:\nNone")
}

func TestGenerateSkipsPriorAndCapsCount(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockReply{Content: json.RawMessage(batchJSON)})
	gen := New(mock, DefaultConfig(), nil)

	qs, err := gen.Generate(context.Background(), gitModule(), 1, []string{"Which command records staged changes?"})
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "Which command creates a branch?", qs[0].Text)
	assert.Contains(t, mock.Calls()[0].Messages[0].Content, "1. Which command records staged changes?")
}

func TestGenerateErrors(t *testing.T) {
	t.Run("provider failure", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockReply{Err: &llm.UnavailableError{Err: errors.New("down")}})
		_, err := New(mock, DefaultConfig(), nil).Generate(context.Background(), gitModule(), 3, nil)
		var un *llm.UnavailableError
		assert.True(t, errors.As(err, &un))
	})
	t.Run("schema violation", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockReply{Content: json.RawMessage(`{"questions":[{"text":"q","options":["a","b"],"correctAnswer":0,"explanation":""}]}`)})
		_, err := New(mock, DefaultConfig(), nil).Generate(context.Background(), gitModule(), 3, nil)
		var inv *llm.InvalidResponseError
		assert.True(t, errors.As(err, &inv))
	})
	t.Run("all rejected", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockReply{Content: json.RawMessage(`{"questions":[{"text":"  ","options":["a","b","c","d"],"correctAnswer":0,"explanation":""}]}`)})
		_, err := New(mock, DefaultConfig(), nil).Generate(context.Background(), gitModule(), 3, nil)
		assert.ErrorIs(t, err, ErrNoValidQuestions)
	})
}

func TestBuildDedup(t *testing.T) {
	assert.Equal(t, "None", buildDedup(nil, 3))
	assert.Equal(t, "1. c\n2. d", buildDedup([]string{"a", "b", "c", "d"}, 2))
}

func TestInputRoundTrip(t *testing.T) {
	m := learning.NewManager(kvstore.New(kvstore.NewMemoryBackend(), nil))
	m.Load()
	require.True(t, m.AddModule(gitModule()))

	q := questionbank.Question{
		Text: "Which command shows history?", Options: []string{"git log", "git add", "git rm", "git mv"},
		CorrectAnswer: 0, Category: "Tools", Difficulty: questionbank.Beginner,
	}
	stored, err := m.AddCustomQuestion("git-version-control", Input(q))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.ID, "custom-q-"))
	assert.Len(t, m.CustomQuestions("git-version-control"), 1)
}
