package learning

import (
	"maps"
	"slices"

	"github.com/abhisek/learnpath/internal/pathstore"
)

// pathData is the in-memory copy of one path's scoped records. Storage
// mirrors it; reads never go back to storage once a path is hydrated.
type pathData struct {
	modules   []Module
	attempts  []QuizAttempt
	certs     []Certificate
	questions CustomQuestionBank
}

// hydrate replaces the scoped cache with the stored records of every
// loaded path.
func (m *Manager) hydrate() {
	m.scoped = make(map[string]*pathData, len(m.paths))
	for _, p := range m.paths {
		m.data(p.ID)
	}
}

// data returns the scoped records of pathID, reading them from storage
// the first time the path is seen.
func (m *Manager) data(pathID string) *pathData {
	if d, ok := m.scoped[pathID]; ok {
		return d
	}
	d := &pathData{
		modules:   pathstore.Get(m.store, pathID, pathstore.KindCustomModules, []Module(nil)),
		attempts:  pathstore.Get(m.store, pathID, pathstore.KindQuizAttempts, []QuizAttempt(nil)),
		certs:     pathstore.Get(m.store, pathID, pathstore.KindCertificates, []Certificate(nil)),
		questions: pathstore.Get(m.store, pathID, pathstore.KindCustomQuestions, CustomQuestionBank(nil)),
	}
	if d.questions == nil {
		d.questions = CustomQuestionBank{}
	}
	if m.scoped == nil {
		m.scoped = make(map[string]*pathData)
	}
	m.scoped[pathID] = d
	return d
}

func (m *Manager) pathAttempts(pathID string) []QuizAttempt {
	return slices.Clone(m.data(pathID).attempts)
}

func (m *Manager) pathCertificates(pathID string) []Certificate {
	return slices.Clone(m.data(pathID).certs)
}

func (m *Manager) customModules(pathID string) []Module {
	return slices.Clone(m.data(pathID).modules)
}

func (m *Manager) customQuestions(pathID string) CustomQuestionBank {
	bank := maps.Clone(m.data(pathID).questions)
	for id, qs := range bank {
		bank[id] = slices.Clone(qs)
	}
	return bank
}

// PathCertificates returns the certificates of the path with id,
// whether or not it is active.
func (m *Manager) PathCertificates(pathID string) []Certificate {
	if m.find(pathID) == nil {
		return nil
	}
	return m.pathCertificates(pathID)
}
