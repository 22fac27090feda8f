// Package questionbank serves quiz questions from an embedded, read-only
// table, optionally extended with questions imported by the learner.
package questionbank

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed questions.json
var questionsJSON []byte

//go:embed schema.json
var schemaJSON []byte

// Difficulty is a module or question difficulty level.
type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
)

// Difficulties lists the levels from easiest to hardest.
var Difficulties = []Difficulty{Beginner, Intermediate, Advanced}

// Valid reports whether d is a known level.
func (d Difficulty) Valid() bool {
	return slices.Contains(Difficulties, d)
}

// Unanswered marks a question with no recorded answer.
const Unanswered = -1

// Question is a multiple-choice quiz question.
type Question struct {
	ID            string     `json:"id"`
	Text          string     `json:"text"`
	Category      string     `json:"category"`
	Difficulty    Difficulty `json:"difficulty"`
	ModuleIDs     []string   `json:"moduleIds,omitempty"`
	Options       []string   `json:"options"`
	CorrectAnswer int        `json:"correctAnswer"`
	Explanation   string     `json:"explanation,omitempty"`
}

// AppliesTo reports whether q may be used for moduleID. Questions without
// a module restriction apply to every module.
func (q Question) AppliesTo(moduleID string) bool {
	return len(q.ModuleIDs) == 0 || slices.Contains(q.ModuleIDs, moduleID)
}

// Bank is an immutable question table.
type Bank struct {
	questions []Question
}

var (
	defaultOnce sync.Once
	defaultBank *Bank
	compiled    *jsonschema.Schema
	compileErr  error
	compileOnce sync.Once
)

// Default returns the embedded bank. It panics if the embedded data is
// invalid, which can only happen at build time.
func Default() *Bank {
	defaultOnce.Do(func() {
		qs, err := ParseQuestions(questionsJSON)
		if err != nil {
			panic(fmt.Sprintf("questionbank: embedded questions: %v", err))
		}
		defaultBank = New(qs)
	})
	return defaultBank
}

// New creates a bank over qs.
func New(qs []Question) *Bank {
	return &Bank{questions: slices.Clone(qs)}
}

// WithImported returns a bank serving b's questions plus qs. Imported
// questions whose id already exists are skipped.
func (b *Bank) WithImported(qs []Question) *Bank {
	seen := make(map[string]bool, len(b.questions))
	for _, q := range b.questions {
		seen[q.ID] = true
	}
	out := slices.Clone(b.questions)
	for _, q := range qs {
		if seen[q.ID] {
			continue
		}
		seen[q.ID] = true
		out = append(out, q)
	}
	return &Bank{questions: out}
}

// Len returns the number of questions.
func (b *Bank) Len() int {
	return len(b.questions)
}

// All returns a copy of every question.
func (b *Bank) All() []Question {
	return slices.Clone(b.questions)
}

// Categories returns the distinct categories, sorted.
func (b *Bank) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range b.questions {
		if !seen[q.Category] {
			seen[q.Category] = true
			out = append(out, q.Category)
		}
	}
	sort.Strings(out)
	return out
}

// QuestionsFor returns every question matching category and difficulty
// that applies to moduleID. Module-restricted questions are only returned
// when moduleID is one of their modules.
func (b *Bank) QuestionsFor(category string, difficulty Difficulty, moduleID string) []Question {
	var out []Question
	for _, q := range b.questions {
		if q.Category != category || q.Difficulty != difficulty {
			continue
		}
		if !q.AppliesTo(moduleID) {
			continue
		}
		out = append(out, q)
	}
	return out
}

// RandomSample returns up to count matching questions in random order.
// Fewer are returned when fewer exist. A nil rng uses the global source.
func (b *Bank) RandomSample(rng *rand.Rand, category string, difficulty Difficulty, count int, moduleID string) []Question {
	return Sample(rng, b.QuestionsFor(category, difficulty, moduleID), count)
}

// Sample shuffles a copy of qs and returns at most count of them.
func Sample(rng *rand.Rand, qs []Question, count int) []Question {
	if count <= 0 || len(qs) == 0 {
		return nil
	}
	out := slices.Clone(qs)
	swap := func(i, j int) { out[i], out[j] = out[j], out[i] }
	if rng != nil {
		rng.Shuffle(len(out), swap)
	} else {
		rand.Shuffle(len(out), swap)
	}
	if len(out) > count {
		out = out[:count]
	}
	return out
}

// IsCorrect reports whether answer is the correct option of q.
func IsCorrect(q Question, answer int) bool {
	return answer != Unanswered && answer == q.CorrectAnswer
}

// Score returns the rounded percentage of questions answered correctly.
// Missing answers count as incorrect; no questions scores 0.
func Score(questions []Question, answers []int) int {
	if len(questions) == 0 {
		return 0
	}
	correct := 0
	for i, q := range questions {
		if i < len(answers) && IsCorrect(q, answers[i]) {
			correct++
		}
	}
	return int(math.Round(float64(correct) * 100 / float64(len(questions))))
}

// ParseQuestions validates data against the question schema and decodes
// it. correctAnswer must index into options.
func ParseQuestions(data []byte) ([]Question, error) {
	schema, err := questionSchema()
	if err != nil {
		return nil, err
	}

	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var qs []Question
	if err := json.Unmarshal(data, &qs); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	for _, q := range qs {
		if err := Validate(q); err != nil {
			return nil, err
		}
	}
	return qs, nil
}

// Validate checks the constraints the schema cannot express.
func Validate(q Question) error {
	if len(q.Options) < 2 {
		return fmt.Errorf("question %q: needs at least 2 options", q.ID)
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("question %q: correct answer %d out of range", q.ID, q.CorrectAnswer)
	}
	return nil
}

func questionSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://questions.json", doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile("schema://questions.json")
	})
	return compiled, compileErr
}
