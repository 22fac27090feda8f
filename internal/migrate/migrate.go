// Package migrate converts data written by the single-path layout into
// the multi-path layout. It runs at most once per store: a successful run
// deletes the legacy keys so that Detect no longer fires.
//
// A run takes a raw backup first, then reads and transforms the legacy
// values in memory, and finally commits the new path together with the
// deletion of the legacy keys in one atomic batch. Any failure before the
// commit leaves the store as it was, apart from the backup.
package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/learnpath/internal/kvstore"
	"github.com/abhisek/learnpath/internal/learning"
	"github.com/abhisek/learnpath/internal/pathstore"
)

// Values given to the path created by a migration.
const (
	DefaultName  = "Migrated Learning Path"
	Description  = "Migrated from previous version"
	ErrNoLegacy  = "No legacy data found"
	DefaultColor = learning.DefaultColor
)

// Counts records how many entities were carried over.
type Counts struct {
	Modules         int `json:"modules"`
	QuizAttempts    int `json:"quizAttempts"`
	Certificates    int `json:"certificates"`
	CustomQuestions int `json:"customQuestions"`
}

// Result reports the outcome of Run.
type Result struct {
	Success      bool     `json:"success"`
	PathsCreated int      `json:"pathsCreated"`
	DataMigrated Counts   `json:"dataMigrated"`
	Errors       []string `json:"errors,omitempty"`
	BackupKey    string   `json:"backupKey,omitempty"`
	PathID       string   `json:"pathId,omitempty"`
}

// Options configures Run.
type Options struct {
	Now func() time.Time
	Log *zap.Logger
}

// Detect reports whether any legacy key is present.
func Detect(kv *kvstore.Store) bool {
	for _, k := range kvstore.LegacyKeys() {
		if kv.Has(k) {
			return true
		}
	}
	return false
}

// Run migrates legacy data if there is any.
func Run(ctx context.Context, kv *kvstore.Store, opts Options) Result {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("migrate")

	var res Result
	fail := func(step string, err error) Result {
		res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", step, err))
		log.Error("migration aborted", zap.String("step", step), zap.Error(err))
		return res
	}

	if !Detect(kv) {
		res.Errors = []string{ErrNoLegacy}
		return res
	}

	at := now()
	key, err := Backup(kv, at)
	if err != nil {
		return fail("backup legacy data", err)
	}
	res.BackupKey = key

	legacy, err := Read(kv)
	if err != nil {
		return fail("read legacy data", err)
	}
	plan, err := Transform(legacy, learning.NewPathID(at), at)
	if err != nil {
		return fail("transform legacy data", err)
	}
	if err := ctx.Err(); err != nil {
		return fail("commit", err)
	}
	if err := Commit(kv, plan); err != nil {
		return fail("commit", err)
	}

	res.Success = true
	res.PathsCreated = 1
	res.DataMigrated = plan.Counts
	res.PathID = plan.Path.ID
	log.Info("migration completed",
		zap.String("path", plan.Path.ID),
		zap.String("backup", key),
		zap.Int("modules", plan.Counts.Modules),
		zap.Int("quiz_attempts", plan.Counts.QuizAttempts),
		zap.Int("certificates", plan.Counts.Certificates),
		zap.Int("custom_questions", plan.Counts.CustomQuestions),
	)
	return res
}

// Backup copies the raw value of every legacy key, plus the imported
// questions, into legacy-backup-<unix ms> and returns that key. When an
// earlier backup already holds the same snapshot, as after a failed
// migration, its key is returned and nothing is written.
func Backup(kv *kvstore.Store, now time.Time) (string, error) {
	snapshot := make(map[string]json.RawMessage)
	keys := append(kvstore.LegacyKeys(), kvstore.KeyImportedQuestions)
	for _, k := range keys {
		raw, ok := kv.Raw(k)
		if !ok {
			continue
		}
		if json.Valid([]byte(raw)) {
			snapshot[k] = json.RawMessage(raw)
		} else {
			// Keep corrupt values verbatim as JSON strings.
			quoted, _ := json.Marshal(raw)
			snapshot[k] = quoted
		}
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}
	for _, k := range kv.Keys() {
		if !strings.HasPrefix(k, kvstore.PrefixLegacyBackup) {
			continue
		}
		if raw, ok := kv.Raw(k); ok && raw == string(data) {
			return k, nil
		}
	}
	key := fmt.Sprintf("%s%d", kvstore.PrefixLegacyBackup, now.UnixMilli())
	if err := kv.SetRaw(key, string(data)); err != nil {
		return "", err
	}
	return key, nil
}

// LegacyPath is the single path stored by the old layout.
type LegacyPath struct {
	Name             string            `json:"name"`
	Modules          []learning.Module `json:"modules"`
	TotalDuration    int               `json:"totalDuration"`
	LastUpdated      *time.Time        `json:"lastUpdated"`
	CompletedModules []string          `json:"completedModules"`
}

// Legacy holds every decoded legacy value.
type Legacy struct {
	Path            *LegacyPath
	CustomModules   []learning.Module
	QuizAttempts    []learning.QuizAttempt
	Certificates    []learning.Certificate
	CustomQuestions learning.CustomQuestionBank
}

// Read decodes the legacy keys. An undecodable value is an error so that
// nothing is committed from half-read data. When quiz-attempts is missing
// the quiz-attempts-backup value is used instead.
func Read(kv *kvstore.Store) (Legacy, error) {
	var l Legacy
	if err := load(kv, kvstore.KeyLegacyLearningPath, &l.Path); err != nil {
		return l, err
	}
	if err := load(kv, kvstore.KeyLegacyCustomModules, &l.CustomModules); err != nil {
		return l, err
	}
	if err := load(kv, kvstore.KeyLegacyQuizAttempts, &l.QuizAttempts); err != nil {
		return l, err
	}
	if len(l.QuizAttempts) == 0 {
		if err := load(kv, kvstore.KeyLegacyQuizAttemptsBackup, &l.QuizAttempts); err != nil {
			return l, err
		}
	}
	if err := load(kv, kvstore.KeyLegacyCertificates, &l.Certificates); err != nil {
		return l, err
	}
	if err := load(kv, kvstore.KeyLegacyCustomQuestions, &l.CustomQuestions); err != nil {
		return l, err
	}
	return l, nil
}

func load[T any](kv *kvstore.Store, key string, dst *T) error {
	v, found, err := kvstore.Load[T](kv, key)
	if err != nil {
		return err
	}
	if found {
		*dst = v
	}
	return nil
}

// Plan is the fully staged result of a migration, ready to commit.
type Plan struct {
	Path            learning.LearningPath
	CustomModules   []learning.Module
	QuizAttempts    []learning.QuizAttempt
	Certificates    []learning.Certificate
	CustomQuestions learning.CustomQuestionBank
	Counts          Counts
}

// Transform builds the new path and re-keys every per-path collection to
// pathID. It does not touch storage.
func Transform(l Legacy, pathID string, now time.Time) (Plan, error) {
	p := learning.LearningPath{
		ID:          pathID,
		Name:        DefaultName,
		Description: Description,
		CreatedAt:   now,
		LastUpdated: now,
		IsActive:    true,
		Color:       DefaultColor,
		Tags:        []string{},
	}

	if l.Path != nil {
		if l.Path.Name != "" {
			p.Name = l.Path.Name
		}
		if l.Path.LastUpdated != nil {
			p.LastUpdated = *l.Path.LastUpdated
		}
		completed := make(map[string]bool)
		for _, id := range l.Path.CompletedModules {
			completed[id] = true
		}
		p.CompletedModules = append([]string(nil), l.Path.CompletedModules...)

		seen := make(map[string]bool)
		for i, m := range l.Path.Modules {
			if m.ID == "" {
				return Plan{}, fmt.Errorf("legacy module at index %d has no id", i)
			}
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			p.Modules = append(p.Modules, legacyModule(m, pathID, completed[m.ID], now))
		}
	}
	p.Recalculate()

	plan := Plan{
		Path:            p,
		CustomModules:   make([]learning.Module, 0, len(l.CustomModules)),
		QuizAttempts:    make([]learning.QuizAttempt, 0, len(l.QuizAttempts)),
		Certificates:    make([]learning.Certificate, 0, len(l.Certificates)),
		CustomQuestions: learning.CustomQuestionBank{},
	}
	for _, m := range l.CustomModules {
		m.PathID = pathID
		plan.CustomModules = append(plan.CustomModules, m)
	}
	for _, a := range l.QuizAttempts {
		a.PathID = pathID
		plan.QuizAttempts = append(plan.QuizAttempts, a)
	}
	for _, c := range l.Certificates {
		c.PathID = pathID
		c.PathName = p.Name
		plan.Certificates = append(plan.Certificates, c)
	}
	questions := 0
	for moduleID, qs := range l.CustomQuestions {
		out := make([]learning.CustomQuestion, 0, len(qs))
		for _, q := range qs {
			q.PathID = pathID
			if q.ModuleID == "" {
				q.ModuleID = moduleID
			}
			out = append(out, q)
		}
		plan.CustomQuestions[moduleID] = out
		questions += len(out)
	}

	plan.Counts = Counts{
		Modules:         len(p.Modules),
		QuizAttempts:    len(plan.QuizAttempts),
		Certificates:    len(plan.Certificates),
		CustomQuestions: questions,
	}
	return plan, nil
}

// legacyModule binds m to the new path. Modules listed as completed in
// the legacy path are completed; older records without a status get one
// derived from their progress.
func legacyModule(m learning.Module, pathID string, completed bool, now time.Time) learning.Module {
	m.PathID = pathID
	m.AddedAt = now
	switch {
	case completed:
		m.Status = learning.StatusCompleted
	case !m.Status.Valid():
		switch {
		case m.Progress >= 100:
			m.Status = learning.StatusCompleted
		case m.Progress > 0:
			m.Status = learning.StatusInProgress
		default:
			m.Status = learning.StatusNotStarted
		}
	}
	if m.Status == learning.StatusCompleted {
		m.Progress = 100
	} else {
		m.Progress = max(0, min(99, m.Progress))
	}
	return m
}

// Commit writes plan and removes the legacy keys in one batch. Existing
// paths are kept and deactivated; the migrated path becomes active.
func Commit(kv *kvstore.Store, plan Plan) error {
	paths, _, err := kvstore.Load[[]learning.LearningPath](kv, kvstore.KeyLearningPaths)
	if err != nil {
		return fmt.Errorf("read existing paths: %w", err)
	}
	state, found, err := kvstore.Load[learning.ManagerState](kv, kvstore.KeyPathManager)
	if err != nil {
		return fmt.Errorf("read path manager: %w", err)
	}
	if !found {
		state = learning.ManagerState{Settings: learning.DefaultSettings()}
	}

	for i := range paths {
		paths[i].IsActive = false
	}
	paths = append(paths, plan.Path)

	state.Paths = state.Paths[:0]
	for _, p := range paths {
		state.Paths = append(state.Paths, p.ID)
	}
	state.ActivePathID = plan.Path.ID
	if state.DefaultPathID == "" {
		state.DefaultPathID = plan.Path.ID
	}

	id := plan.Path.ID
	writes := []struct {
		key string
		v   any
	}{
		{kvstore.KeyLearningPaths, paths},
		{kvstore.KeyActivePathID, id},
		{kvstore.KeyPathManager, state},
		{pathstore.Key(id, pathstore.KindCustomModules), plan.CustomModules},
		{pathstore.Key(id, pathstore.KindQuizAttempts), plan.QuizAttempts},
		{pathstore.Key(id, pathstore.KindCertificates), plan.Certificates},
		{pathstore.Key(id, pathstore.KindCustomQuestions), plan.CustomQuestions},
	}
	ops := make([]kvstore.Op, 0, len(writes)+len(kvstore.LegacyKeys()))
	for _, w := range writes {
		op, err := kvstore.SetOp(w.key, w.v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", w.key, err)
		}
		ops = append(ops, op)
	}
	for _, k := range kvstore.LegacyKeys() {
		ops = append(ops, kvstore.DeleteOp(k))
	}
	return kv.Apply(ops)
}
