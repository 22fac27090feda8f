// Package questiongen drafts custom quiz questions for a module with a
// language model. Drafts are checked before they are returned; storing
// them is left to learning.Manager.AddCustomQuestion.
package questiongen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/learnpath/internal/learning"
	"github.com/abhisek/learnpath/internal/llm"
	"github.com/abhisek/learnpath/internal/questionbank"
)

// ErrNoValidQuestions is returned when every drafted question was rejected.
var ErrNoValidQuestions = errors.New("no valid questions generated")

// Config controls generation.
type Config struct {
	MaxTokens   int
	Temperature float64
	// MaxPriorQuestions caps how many existing questions are listed in the
	// prompt for deduplication.
	MaxPriorQuestions int
	// Timeout bounds one Generate call. Zero means no extra deadline.
	Timeout time.Duration
}

// DefaultConfig returns the recommended settings.
func DefaultConfig() Config {
	return Config{
		MaxTokens:         2048,
		Temperature:       0.7,
		MaxPriorQuestions: 10,
		Timeout:           60 * time.Second,
	}
}

// Generator drafts questions through an llm.Provider.
type Generator struct {
	provider llm.Provider
	cfg      Config
	log      *zap.Logger
}

// New returns a generator. A nil logger discards output.
func New(provider llm.Provider, cfg Config, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{provider: provider, cfg: cfg, log: log.Named("questiongen")}
}

// Generate drafts up to count questions for m. prior holds the text of
// questions the module already has; drafts repeating one of them, or each
// other, are dropped. Category and difficulty are taken from m.
func (g *Generator) Generate(ctx context.Context, m learning.Module, count int, prior []string) ([]questionbank.Question, error) {
	if count < 1 {
		count = 1
	}
	if count > MaxCount {
		count = MaxCount
	}
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}
	ctx = llm.WithPurpose(ctx, "custom-questions")

	req := llm.Prompt(systemPrompt, buildUserMessage(m, count, prior, g.cfg.MaxPriorQuestions), BatchSchema, g.cfg.MaxTokens)
	req.Temperature = g.cfg.Temperature

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate questions for %s: %w", m.ID, err)
	}
	out, err := llm.Decode[batchOutput](resp)
	if err != nil {
		return nil, fmt.Errorf("decode questions for %s: %w", m.ID, err)
	}

	seen := make(map[string]bool, len(prior)+len(out.Questions))
	for _, p := range prior {
		seen[normalize(p)] = true
	}
	var qs []questionbank.Question
	for i, raw := range out.Questions {
		if len(qs) == count {
			break
		}
		q := questionbank.Question{
			ID:            fmt.Sprintf("draft-%d", i+1),
			Text:          strings.TrimSpace(raw.Text),
			Category:      m.Category,
			Difficulty:    m.Difficulty,
			Options:       trimAll(raw.Options),
			CorrectAnswer: raw.CorrectAnswer,
			Explanation:   strings.TrimSpace(raw.Explanation),
		}
		if err := check(q, seen); err != nil {
			g.log.Warn("dropping generated question", zap.String("module", m.ID), zap.Int("index", i), zap.Error(err))
			continue
		}
		seen[normalize(q.Text)] = true
		qs = append(qs, q)
	}
	if len(qs) == 0 {
		return nil, ErrNoValidQuestions
	}
	g.log.Info("generated questions", zap.String("module", m.ID), zap.Int("requested", count), zap.Int("accepted", len(qs)))
	return qs, nil
}

// check rejects empty, duplicate or ambiguous drafts.
func check(q questionbank.Question, seen map[string]bool) error {
	if q.Text == "" {
		return errors.New("empty question text")
	}
	if seen[normalize(q.Text)] {
		return fmt.Errorf("duplicate question %q", q.Text)
	}
	opts := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		if o == "" {
			return errors.New("empty option")
		}
		if opts[strings.ToLower(o)] {
			return fmt.Errorf("repeated option %q", o)
		}
		opts[strings.ToLower(o)] = true
	}
	return questionbank.Validate(q)
}

// Input converts a drafted question into the form stored by the manager.
func Input(q questionbank.Question) learning.QuestionInput {
	return learning.QuestionInput{
		Text:          q.Text,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
		Category:      q.Category,
		Difficulty:    q.Difficulty,
	}
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func trimAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
