package learning

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/learnpath/internal/kvstore"
	"github.com/abhisek/learnpath/internal/pathstore"
	"github.com/abhisek/learnpath/internal/questionbank"
)

// ErrInvalidQuestion is returned for questions without text or with
// fewer than two options.
var ErrInvalidQuestion = errors.New("invalid question data: text, and at least 2 options are required")

// QuestionInput describes a learner-authored question. Category and
// difficulty default to those of the module.
type QuestionInput struct {
	Text          string
	Options       []string
	CorrectAnswer int
	Explanation   string
	Category      string
	Difficulty    Difficulty
}

// AddCustomQuestion stores a question for moduleID in the active path and
// refreshes the module's cached question count.
func (m *Manager) AddCustomQuestion(moduleID string, in QuestionInput) (CustomQuestion, error) {
	p := m.active()
	if p == nil {
		return CustomQuestion{}, ErrNoActivePath
	}
	if strings.TrimSpace(in.Text) == "" || len(in.Options) < 2 {
		return CustomQuestion{}, ErrInvalidQuestion
	}
	if in.CorrectAnswer < 0 || in.CorrectAnswer >= len(in.Options) {
		return CustomQuestion{}, fmt.Errorf("%w: correct answer %d out of range", ErrInvalidQuestion, in.CorrectAnswer)
	}

	if mod, ok := m.FindModule(moduleID); ok {
		if in.Category == "" {
			in.Category = mod.Category
		}
		if in.Difficulty == "" {
			in.Difficulty = mod.Difficulty
		}
	}

	now := m.now()
	q := CustomQuestion{
		Question: questionbank.Question{
			ID:            fmt.Sprintf("custom-q-%d-%s", now.UnixMilli(), shortRandom()),
			Text:          in.Text,
			Category:      in.Category,
			Difficulty:    in.Difficulty,
			Options:       slices.Clone(in.Options),
			CorrectAnswer: in.CorrectAnswer,
			Explanation:   in.Explanation,
		},
		ModuleID:  moduleID,
		PathID:    p.ID,
		IsCustom:  true,
		CreatedAt: now,
	}

	bank := m.customQuestions(p.ID)
	bank[moduleID] = append(bank[moduleID], q)
	ops, err := m.questionCountOps(p, moduleID, bank)
	if err != nil {
		return CustomQuestion{}, fmt.Errorf("add custom question: %w", err)
	}
	m.persist(ops...)
	return q, nil
}

// RemoveCustomQuestion deletes one custom question of moduleID from the
// active path.
func (m *Manager) RemoveCustomQuestion(moduleID, questionID string) bool {
	p := m.active()
	if p == nil {
		return false
	}
	bank := m.customQuestions(p.ID)
	qs := bank[moduleID]
	kept := slices.DeleteFunc(slices.Clone(qs), func(q CustomQuestion) bool { return q.ID == questionID })
	if len(kept) == len(qs) {
		return false
	}
	if len(kept) == 0 {
		delete(bank, moduleID)
	} else {
		bank[moduleID] = kept
	}
	ops, err := m.questionCountOps(p, moduleID, bank)
	if err != nil {
		m.log.Warn("remove custom question", zap.Error(err))
		return false
	}
	m.persist(ops...)
	return true
}

// CustomQuestions returns the active path's questions for moduleID.
func (m *Manager) CustomQuestions(moduleID string) []CustomQuestion {
	if m.active() == nil {
		return nil
	}
	return m.customQuestions(m.state.ActivePathID)[moduleID]
}

// AllCustomQuestions returns the active path's custom questions keyed by
// module id.
func (m *Manager) AllCustomQuestions() CustomQuestionBank {
	if m.active() == nil {
		return CustomQuestionBank{}
	}
	return m.customQuestions(m.state.ActivePathID)
}

// ImportedQuestions returns the global imported questions.
func (m *Manager) ImportedQuestions() []questionbank.Question {
	return slices.Clone(m.imported)
}

// ImportQuestions adds qs to the global imported questions, skipping ids
// already present, and returns how many were added.
func (m *Manager) ImportQuestions(qs []questionbank.Question) int {
	existing := m.ImportedQuestions()
	seen := make(map[string]bool, len(existing))
	for _, q := range existing {
		seen[q.ID] = true
	}
	added := 0
	for _, q := range qs {
		if q.ID == "" || seen[q.ID] {
			continue
		}
		seen[q.ID] = true
		existing = append(existing, q)
		added++
	}
	if added == 0 {
		return 0
	}
	m.imported = existing
	if err := m.kv.Set(kvstore.KeyImportedQuestions, existing); err != nil {
		m.persistErr = err
		m.log.Warn("imported questions not persisted", zap.Error(err))
	}
	return added
}

// questionCountOps stores bank and refreshes the cached question count on
// the module, both in the path and among the custom modules.
func (m *Manager) questionCountOps(p *LearningPath, moduleID string, bank CustomQuestionBank) ([]kvstore.Op, error) {
	op, err := pathstore.SetOp(p.ID, pathstore.KindCustomQuestions, bank)
	if err != nil {
		return nil, err
	}
	ops := []kvstore.Op{op}
	d := m.data(p.ID)
	d.questions = bank

	count := len(bank[moduleID])
	if mod := p.Module(moduleID); mod != nil {
		mod.HasCustomQuestions = count > 0
		mod.CustomQuestionCount = count
	}

	custom := m.customModules(p.ID)
	if i := slices.IndexFunc(custom, func(c Module) bool { return c.ID == moduleID }); i >= 0 {
		custom[i].HasCustomQuestions = count > 0
		custom[i].CustomQuestionCount = count
		op, err := pathstore.SetOp(p.ID, pathstore.KindCustomModules, custom)
		if err != nil {
			return nil, err
		}
		d.modules = custom
		ops = append(ops, op)
	}
	return ops, nil
}
