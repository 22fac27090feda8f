// Package learning owns the learner's paths: the collection of learning
// paths, the active path pointer, module membership and progress, quiz
// attempt history and certificates.
//
// All state lives in memory on the Manager and is authoritative. Every
// mutation is applied with a pure transition from path.go and then
// flushed to storage. Storage failures are logged and remembered but
// never undo the in-memory change.
package learning

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/learnpath/internal/kvstore"
	"github.com/abhisek/learnpath/internal/pathstore"
	"github.com/abhisek/learnpath/internal/questionbank"
)

var (
	// ErrNoActivePath is returned by operations that need an active path.
	ErrNoActivePath = errors.New("no active path selected")

	// ErrPathNotFound is returned when a path id does not exist.
	ErrPathNotFound = errors.New("path not found")
)

// Default path created when storage holds no paths.
const (
	DefaultPathName        = "My Learning Path"
	DefaultPathDescription = "Default learning path for your journey"
)

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithSettings sets the settings used when none are stored yet.
func WithSettings(s Settings) Option {
	return func(m *Manager) { m.defaults = s }
}

// Manager owns all learning paths. It is not safe for concurrent use.
type Manager struct {
	kv       *kvstore.Store
	store    *pathstore.Store
	log      *zap.Logger
	now      func() time.Time
	defaults Settings

	paths  []*LearningPath
	state  ManagerState
	scoped map[string]*pathData
	// imported holds the global imported questions.
	imported []questionbank.Question

	// pending holds path-scoped ops not yet written; dirty is set while
	// any change awaits a save.
	pending    []kvstore.Op
	dirty      bool
	persistErr error
}

// NewManager creates a Manager backed by kv. Call Load before use.
func NewManager(kv *kvstore.Store, opts ...Option) *Manager {
	if kv == nil {
		kv = kvstore.New(nil, nil)
	}
	m := &Manager{
		kv:       kv,
		store:    pathstore.New(kv),
		log:      zap.NewNop(),
		now:      time.Now,
		defaults: DefaultSettings(),
	}
	for _, o := range opts {
		o(m)
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	m.log = m.log.Named("learning")
	if m.defaults.DefaultColor == "" {
		m.defaults.DefaultColor = DefaultColor
	}
	m.state = ManagerState{Settings: m.defaults}
	return m
}

// Load hydrates the manager from storage. When no paths are stored a
// default path is created and activated. A dangling or missing active
// pointer is repaired so that exactly one path is active.
func (m *Manager) Load() {
	stored := kvstore.Get(m.kv, kvstore.KeyLearningPaths, []*LearningPath(nil))
	activeID := kvstore.Get(m.kv, kvstore.KeyActivePathID, "")
	m.state = kvstore.Get(m.kv, kvstore.KeyPathManager, ManagerState{Settings: m.defaults})
	if m.state.Settings.DefaultColor == "" {
		m.state.Settings.DefaultColor = DefaultColor
	}

	seen := make(map[string]bool)
	m.paths = m.paths[:0]
	for _, p := range stored {
		if p == nil || p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		p.Recalculate()
		m.paths = append(m.paths, p)
	}
	m.hydrate()
	m.imported = kvstore.Get(m.kv, kvstore.KeyImportedQuestions, []questionbank.Question(nil))

	if len(m.paths) == 0 {
		p := m.CreatePath(CreatePathInput{
			Name:        DefaultPathName,
			Description: DefaultPathDescription,
			Color:       DefaultColor,
		})
		m.state.DefaultPathID = p.ID
		m.SwitchActive(p.ID)
		m.log.Info("created default path", zap.String("path", p.ID))
		return
	}

	if m.find(activeID) == nil {
		activeID = m.state.ActivePathID
	}
	if m.find(activeID) == nil {
		activeID = m.paths[0].ID
	}
	repaired := m.state.ActivePathID != activeID
	if m.activate(activeID) || repaired {
		m.persist()
	}
	m.log.Debug("loaded paths", zap.Int("count", len(m.paths)), zap.String("active", activeID))
}

// Save writes paths, the active pointer, manager state and any held
// path-scoped changes regardless of the auto-save setting.
func (m *Manager) Save() error {
	return m.save()
}

// Flush saves only when changes are waiting, which happens when
// auto-save is off or an earlier write failed.
func (m *Manager) Flush() error {
	if !m.dirty {
		return nil
	}
	if err := m.save(); err != nil {
		m.persistErr = err
		return err
	}
	return nil
}

// Dirty reports whether changes are waiting to be saved.
func (m *Manager) Dirty() bool {
	return m.dirty
}

// PersistError returns the most recent storage failure, if any.
func (m *Manager) PersistError() error {
	return m.persistErr
}

// Settings returns the current settings.
func (m *Manager) Settings() Settings {
	return m.state.Settings
}

// UpdateSettings replaces the settings and saves them, whether or not
// auto-save is enabled.
func (m *Manager) UpdateSettings(s Settings) {
	if s.DefaultColor == "" {
		s.DefaultColor = DefaultColor
	}
	m.state.Settings = s
	if err := m.save(); err != nil {
		m.persistErr = err
	}
}

// Paths returns a copy of every path in creation order.
func (m *Manager) Paths() []LearningPath {
	out := make([]LearningPath, 0, len(m.paths))
	for _, p := range m.paths {
		out = append(out, p.clone())
	}
	return out
}

// Path returns a copy of the path with id.
func (m *Manager) Path(id string) (LearningPath, bool) {
	p := m.find(id)
	if p == nil {
		return LearningPath{}, false
	}
	return p.clone(), true
}

// ActivePathID returns the id of the active path.
func (m *Manager) ActivePathID() string {
	return m.state.ActivePathID
}

// ActivePath returns a copy of the active path.
func (m *Manager) ActivePath() (LearningPath, bool) {
	return m.Path(m.state.ActivePathID)
}

// CreatePathInput describes a new path.
type CreatePathInput struct {
	Name           string
	Description    string
	Color          string
	Tags           []string
	CopyFromPathID string
}

// CreatePath creates and stores a new, inactive path. When CopyFromPathID
// names an existing path its modules are copied in order with their
// progress reset.
func (m *Manager) CreatePath(in CreatePathInput) LearningPath {
	now := m.now()
	p := &LearningPath{
		ID:          NewPathID(now),
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   now,
		LastUpdated: now,
		Color:       cmp.Or(in.Color, m.state.Settings.DefaultColor, DefaultColor),
		Tags:        slices.Clone(in.Tags),
	}
	if src := m.find(in.CopyFromPathID); src != nil {
		for _, mod := range src.Modules {
			p.Modules = append(p.Modules, resetModule(mod, p.ID, now))
		}
	}
	p.Recalculate()

	m.paths = append(m.paths, p)
	m.persist()
	return p.clone()
}

// SwitchActive makes id the active path.
func (m *Manager) SwitchActive(id string) bool {
	if m.find(id) == nil {
		return false
	}
	m.activate(id)
	m.persist()
	return true
}

// DeletePath removes a path and all of its path-scoped data. The last
// remaining path cannot be deleted. Deleting the active path activates
// the first remaining one.
func (m *Manager) DeletePath(id string) bool {
	i := slices.IndexFunc(m.paths, func(p *LearningPath) bool { return p.ID == id })
	if i < 0 {
		return false
	}
	if len(m.paths) == 1 {
		m.log.Warn("refusing to delete the only path", zap.String("path", id))
		return false
	}

	m.paths = slices.Delete(m.paths, i, i+1)
	if m.state.ActivePathID == id {
		m.activate(m.paths[0].ID)
	}
	if m.state.DefaultPathID == id {
		m.state.DefaultPathID = ""
	}
	delete(m.scoped, id)
	m.persist(pathstore.ClearOps(id)...)
	return true
}

// ArchivePath sets the archived flag of a path. Archived paths keep all
// their data and can still be activated.
func (m *Manager) ArchivePath(id string, archived bool) bool {
	p := m.find(id)
	if p == nil {
		return false
	}
	p.IsArchived = archived
	m.persist()
	return true
}

// PathUpdate holds the fields to change on a path. Nil fields are left
// untouched.
type PathUpdate struct {
	Name        *string
	Description *string
	Color       *string
	Tags        []string
}

// UpdatePath merges u into the path and bumps its last update time.
func (m *Manager) UpdatePath(id string, u PathUpdate) bool {
	p := m.find(id)
	if p == nil {
		return false
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Color != nil {
		p.Color = *u.Color
	}
	if u.Tags != nil {
		p.Tags = slices.Clone(u.Tags)
	}
	p.LastUpdated = m.now()
	m.persist()
	return true
}

// AddModule adds mod to the active path. It does nothing when there is no
// active path or the module is already present.
func (m *Manager) AddModule(mod Module) bool {
	p := m.active()
	if p == nil || !p.AddModule(mod, m.now()) {
		return false
	}
	m.persist()
	return true
}

// RemoveModule removes a module from the active path.
func (m *Manager) RemoveModule(moduleID string) bool {
	p := m.active()
	if p == nil || !p.RemoveModule(moduleID, m.now()) {
		return false
	}
	m.persist()
	return true
}

// ReorderModules moves the module at from to index to in the active path.
func (m *Manager) ReorderModules(from, to int) bool {
	p := m.active()
	if p == nil || !p.MoveModule(from, to, m.now()) {
		return false
	}
	m.persist()
	return true
}

// ClearPath removes every module from the active path.
func (m *Manager) ClearPath() bool {
	p := m.active()
	if p == nil {
		return false
	}
	p.Clear(m.now())
	m.persist()
	return true
}

// InLearningPath reports whether the active path contains moduleID.
func (m *Manager) InLearningPath(moduleID string) bool {
	p := m.active()
	return p != nil && p.Has(moduleID)
}

// UpdateModuleStatus sets a module's status in the active path. Progress
// snaps to the value fixed for that status.
func (m *Manager) UpdateModuleStatus(moduleID string, status ModuleStatus) bool {
	p := m.active()
	if p == nil || !p.SetModuleStatus(moduleID, status, m.now()) {
		return false
	}
	m.persist()
	return true
}

// UpdateModuleProgress sets a module's progress in the active path.
func (m *Manager) UpdateModuleProgress(moduleID string, progress int) bool {
	p := m.active()
	if p == nil || !p.SetModuleProgress(moduleID, progress, m.now()) {
		return false
	}
	m.persist()
	return true
}

// ModuleStatus returns a module's status in the active path.
func (m *Manager) ModuleStatus(moduleID string) ModuleStatus {
	if mod := m.activeModule(moduleID); mod != nil {
		return mod.Status
	}
	return StatusNotStarted
}

// ModuleProgress returns a module's progress in the active path.
func (m *Manager) ModuleProgress(moduleID string) int {
	if mod := m.activeModule(moduleID); mod != nil {
		return mod.Progress
	}
	return 0
}

// CompletedModulesCount returns how many modules of the active path are
// completed.
func (m *Manager) CompletedModulesCount() int {
	p := m.active()
	if p == nil {
		return 0
	}
	n := 0
	for _, mod := range p.Modules {
		if mod.Status == StatusCompleted {
			n++
		}
	}
	return n
}

// OverallProgress returns the active path's overall progress.
func (m *Manager) OverallProgress() int {
	if p := m.active(); p != nil {
		return p.OverallProgress
	}
	return 0
}

// RecordQuizAttempt appends a to the active path's attempt history and
// to the module. A passing attempt advances the module to quiz-passed
// unless it is already completed.
func (m *Manager) RecordQuizAttempt(moduleID string, a QuizAttempt) (QuizAttempt, error) {
	p := m.active()
	if p == nil {
		return a, ErrNoActivePath
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.ModuleID = moduleID
	a.PathID = p.ID

	attempts := append(m.pathAttempts(p.ID), a)
	op, err := pathstore.SetOp(p.ID, pathstore.KindQuizAttempts, attempts)
	if err != nil {
		return a, fmt.Errorf("record quiz attempt: %w", err)
	}
	m.data(p.ID).attempts = attempts

	if mod := p.Module(moduleID); mod != nil {
		mod.QuizAttempts = append(mod.QuizAttempts, a)
		if a.Passed && mod.Status.rank() < StatusQuizPassed.rank() {
			p.SetModuleStatus(moduleID, StatusQuizPassed, m.now())
		}
	}
	m.persist(op)
	return a, nil
}

// QuizAttempts returns the active path's attempts for moduleID, oldest
// first.
func (m *Manager) QuizAttempts(moduleID string) []QuizAttempt {
	var out []QuizAttempt
	for _, a := range m.AllQuizAttempts() {
		if a.ModuleID == moduleID {
			out = append(out, a)
		}
	}
	return out
}

// AllQuizAttempts returns every attempt recorded in the active path.
func (m *Manager) AllQuizAttempts() []QuizAttempt {
	if m.active() == nil {
		return nil
	}
	return m.pathAttempts(m.state.ActivePathID)
}

// IssueCertificate stores c for the active path, tagged with the path's
// id and name. A module holds at most one certificate per path: issuing
// again replaces the previous one.
func (m *Manager) IssueCertificate(c Certificate) (Certificate, bool) {
	p := m.active()
	if p == nil {
		return c, false
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.PathID = p.ID
	c.PathName = p.Name

	certs := slices.DeleteFunc(m.pathCertificates(p.ID), func(x Certificate) bool {
		return x.ModuleID == c.ModuleID
	})
	certs = append(certs, c)
	op, err := pathstore.SetOp(p.ID, pathstore.KindCertificates, certs)
	if err != nil {
		m.log.Warn("encode certificates", zap.Error(err))
		return c, false
	}
	m.data(p.ID).certs = certs

	if mod := p.Module(c.ModuleID); mod != nil {
		cc := c
		mod.Certificate = &cc
	}
	m.persist(op)
	return c, true
}

// Certificates returns the active path's certificates.
func (m *Manager) Certificates() []Certificate {
	if m.active() == nil {
		return nil
	}
	return m.pathCertificates(m.state.ActivePathID)
}

// Certificate returns the active path's certificate for moduleID.
func (m *Manager) Certificate(moduleID string) (Certificate, bool) {
	for _, c := range m.Certificates() {
		if c.ModuleID == moduleID {
			return c, true
		}
	}
	return Certificate{}, false
}

// HasCertificate reports whether moduleID has a certificate in the
// active path.
func (m *Manager) HasCertificate(moduleID string) bool {
	_, ok := m.Certificate(moduleID)
	return ok
}

func (m *Manager) find(id string) *LearningPath {
	if id == "" {
		return nil
	}
	for _, p := range m.paths {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (m *Manager) active() *LearningPath {
	return m.find(m.state.ActivePathID)
}

func (m *Manager) activeModule(id string) *Module {
	if p := m.active(); p != nil {
		return p.Module(id)
	}
	return nil
}

// activate marks id as the only active path and reports whether any flag
// changed.
func (m *Manager) activate(id string) bool {
	changed := false
	for _, p := range m.paths {
		want := p.ID == id
		if p.IsActive != want {
			p.IsActive = want
			changed = true
		}
	}
	m.state.ActivePathID = id
	return changed
}

// persist records a mutation that memory already reflects. With
// auto-save on, everything is written in one batch; otherwise the ops
// are held until Save. Ops of a failed write are retried by the next
// save.
func (m *Manager) persist(extra ...kvstore.Op) {
	m.pending = append(m.pending, extra...)
	m.dirty = true
	if !m.state.Settings.AutoSave {
		return
	}
	if err := m.save(); err != nil {
		m.persistErr = err
		m.log.Warn("state not persisted", zap.Error(err), zap.Int("pending", len(m.pending)))
	}
}

func (m *Manager) save() error {
	if !m.kv.Available() {
		m.pending, m.dirty = nil, false
		return nil
	}
	ids := make([]string, 0, len(m.paths))
	for _, p := range m.paths {
		ids = append(ids, p.ID)
	}
	m.state.Paths = ids

	ops := make([]kvstore.Op, 0, 3+len(m.pending))
	for _, e := range []struct {
		key string
		v   any
	}{
		{kvstore.KeyLearningPaths, m.paths},
		{kvstore.KeyActivePathID, m.state.ActivePathID},
		{kvstore.KeyPathManager, m.state},
	} {
		op, err := kvstore.SetOp(e.key, e.v)
		if err != nil {
			return err
		}
		ops = append(ops, op)
	}
	ops = append(ops, m.pending...)
	if err := m.kv.Apply(ops); err != nil {
		return err
	}
	m.pending, m.dirty = nil, false
	return nil
}

// resetModule copies mod into a new path with progress cleared.
func resetModule(mod Module, pathID string, now time.Time) Module {
	mod.PathID = pathID
	mod.AddedAt = now
	mod.Status = StatusNotStarted
	mod.Progress = 0
	mod.QuizAttempts = nil
	mod.Certificate = nil
	mod.HasCustomQuestions = false
	mod.CustomQuestionCount = 0
	return mod
}

// NewPathID returns a fresh path id of the form path-<unix ms>-<random>.
func NewPathID(now time.Time) string {
	return fmt.Sprintf("path-%d-%s", now.UnixMilli(), shortRandom())
}

func shortRandom() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}
