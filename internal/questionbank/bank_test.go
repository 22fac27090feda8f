package questionbank

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBankLoads(t *testing.T) {
	b := Default()
	assert.Equal(t, 54, b.Len())
	assert.Equal(t, []string{"Backend Development", "Data Science", "DevOps", "Web Development"}, b.Categories())
	for _, q := range b.All() {
		require.NoError(t, Validate(q), q.ID)
		assert.True(t, q.Difficulty.Valid(), q.ID)
	}
}

func TestQuestionsForModuleRestriction(t *testing.T) {
	b := Default()

	tests := []struct {
		name     string
		moduleID string
		want     int
	}{
		{"no module", "", 5},
		{"unrelated module", "ci-basics", 5},
		{"git module", "git-basics", 7},
		{"docker module", "docker-basics", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.QuestionsFor("DevOps", Beginner, tt.moduleID)
			assert.Len(t, got, tt.want)
			for _, q := range got {
				assert.Equal(t, "DevOps", q.Category)
				assert.Equal(t, Beginner, q.Difficulty)
				assert.True(t, q.AppliesTo(tt.moduleID))
			}
		})
	}
}

func TestQuestionsForUnknownCategory(t *testing.T) {
	assert.Empty(t, Default().QuestionsFor("Soft Skills", Beginner, "communication-skills"))
	assert.Empty(t, Default().RandomSample(nil, "Soft Skills", Beginner, 5, ""))
}

func TestRandomSampleBounded(t *testing.T) {
	b := Default()
	rng := rand.New(rand.NewPCG(1, 2))

	got := b.RandomSample(rng, "Web Development", Beginner, 3, "")
	assert.Len(t, got, 3)

	got = b.RandomSample(rng, "Web Development", Beginner, 50, "")
	assert.Len(t, got, 5)

	seen := map[string]bool{}
	for _, q := range got {
		assert.False(t, seen[q.ID], "duplicate %s", q.ID)
		seen[q.ID] = true
	}

	assert.Nil(t, b.RandomSample(rng, "Web Development", Beginner, 0, ""))
}

func TestSampleDeterministicWithSeed(t *testing.T) {
	qs := Default().QuestionsFor("Backend Development", Advanced, "")
	a := Sample(rand.New(rand.NewPCG(7, 7)), qs, 5)
	b := Sample(rand.New(rand.NewPCG(7, 7)), qs, 5)
	assert.Equal(t, a, b)
	assert.Len(t, qs, 5, "sample must not mutate the input")
}

func TestScore(t *testing.T) {
	q1 := Question{ID: "q1", Options: []string{"a", "b"}, CorrectAnswer: 0}
	q2 := Question{ID: "q2", Options: []string{"a", "b"}, CorrectAnswer: 1}
	q3 := Question{ID: "q3", Options: []string{"a", "b", "c"}, CorrectAnswer: 2}

	tests := []struct {
		name      string
		questions []Question
		answers   []int
		want      int
	}{
		{"half", []Question{q1, q2}, []int{q1.CorrectAnswer, 0}, 50},
		{"all", []Question{q1, q2}, []int{0, 1}, 100},
		{"unanswered", []Question{q1, q2}, []int{Unanswered, Unanswered}, 0},
		{"short answers", []Question{q1, q2}, []int{0}, 50},
		{"rounded", []Question{q1, q2, q3}, []int{0, 1, 0}, 67},
		{"rounded down", []Question{q1, q2, q3}, []int{0, 0, 0}, 33},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		if got := Score(tt.questions, tt.answers); got != tt.want {
			t.Errorf("%s: Score() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestWithImported(t *testing.T) {
	base := New([]Question{{ID: "a", Category: "X", Difficulty: Beginner, Options: []string{"1", "2"}}})
	ext := base.WithImported([]Question{
		{ID: "a", Category: "Y", Difficulty: Beginner, Options: []string{"1", "2"}},
		{ID: "b", Category: "X", Difficulty: Beginner, Options: []string{"1", "2"}},
	})

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, ext.Len())
	assert.Len(t, ext.QuestionsFor("X", Beginner, ""), 2)
	assert.Empty(t, ext.QuestionsFor("Y", Beginner, ""))
}

func TestParseQuestions(t *testing.T) {
	valid := `[{"id":"i1","text":"T?","category":"Web Development","difficulty":"Beginner",
		"options":["a","b"],"correctAnswer":1}]`
	qs, err := ParseQuestions([]byte(valid))
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, 1, qs[0].CorrectAnswer)

	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"not array", `{"id":"x"}`},
		{"one option", `[{"id":"i","text":"t","category":"c","difficulty":"Beginner","options":["a"],"correctAnswer":0}]`},
		{"bad difficulty", `[{"id":"i","text":"t","category":"c","difficulty":"Expert","options":["a","b"],"correctAnswer":0}]`},
		{"answer out of range", `[{"id":"i","text":"t","category":"c","difficulty":"Beginner","options":["a","b"],"correctAnswer":2}]`},
		{"missing text", `[{"id":"i","category":"c","difficulty":"Beginner","options":["a","b"],"correctAnswer":0}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuestions([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
