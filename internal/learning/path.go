package learning

import (
	"math"
	"slices"
	"time"
)

// The functions in this file are pure transitions on a path. They never
// touch storage; the Manager persists after calling them.

// Module returns the module with id, or nil.
func (p *LearningPath) Module(id string) *Module {
	for i := range p.Modules {
		if p.Modules[i].ID == id {
			return &p.Modules[i]
		}
	}
	return nil
}

// Has reports whether the path contains module id.
func (p *LearningPath) Has(id string) bool {
	return p.Module(id) != nil
}

// AddModule appends m unless a module with the same id is present. The
// module is bound to the path and placed last. Status defaults to
// not-started.
func (p *LearningPath) AddModule(m Module, now time.Time) bool {
	if p.Has(m.ID) {
		return false
	}
	m.PathID = p.ID
	m.AddedAt = now
	m.Position = len(p.Modules)
	if m.Status == "" {
		m.Status = StatusNotStarted
	}
	m.Progress = clamp(m.Progress)
	switch {
	case m.Status == StatusCompleted:
		m.Progress = 100
	case m.Progress == 100:
		m.Status = StatusCompleted
	}
	p.Modules = append(p.Modules, m)
	p.LastUpdated = now
	p.Recalculate()
	return true
}

// RemoveModule removes module id and closes the gap in positions.
func (p *LearningPath) RemoveModule(id string, now time.Time) bool {
	i := slices.IndexFunc(p.Modules, func(m Module) bool { return m.ID == id })
	if i < 0 {
		return false
	}
	p.Modules = slices.Delete(p.Modules, i, i+1)
	p.CompletedModules = slices.DeleteFunc(p.CompletedModules, func(c string) bool { return c == id })
	p.LastUpdated = now
	p.Recalculate()
	return true
}

// MoveModule moves the module at from to index to. Out of range indices
// leave the path untouched.
func (p *LearningPath) MoveModule(from, to int, now time.Time) bool {
	n := len(p.Modules)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	if from == to {
		return true
	}
	m := p.Modules[from]
	p.Modules = slices.Delete(p.Modules, from, from+1)
	p.Modules = slices.Insert(p.Modules, to, m)
	p.LastUpdated = now
	p.Recalculate()
	return true
}

// SetModuleStatus sets the status of module id and snaps its progress.
func (p *LearningPath) SetModuleStatus(id string, status ModuleStatus, now time.Time) bool {
	m := p.Module(id)
	if m == nil || !status.Valid() {
		return false
	}
	m.Status = status
	m.Progress = ProgressFor(status)
	p.touchProgress(now)
	return true
}

// SetModuleProgress sets the progress of module id, clamped to 0..100,
// and moves the status so that it stays consistent with progress.
func (p *LearningPath) SetModuleProgress(id string, progress int, now time.Time) bool {
	m := p.Module(id)
	if m == nil {
		return false
	}
	m.Progress = clamp(progress)
	switch {
	case m.Progress == 100:
		m.Status = StatusCompleted
	case m.Progress == 0:
		m.Status = StatusNotStarted
	case m.Status == StatusNotStarted, m.Status == StatusCompleted:
		m.Status = StatusInProgress
	}
	p.touchProgress(now)
	return true
}

// Clear removes every module.
func (p *LearningPath) Clear(now time.Time) {
	p.Modules = nil
	p.CompletedModules = nil
	p.LastUpdated = now
	p.Recalculate()
}

// Recalculate restores the derived fields: positions, total duration,
// the completed module list and overall progress.
func (p *LearningPath) Recalculate() {
	if p.Modules == nil {
		p.Modules = []Module{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	total, progress := 0, 0
	completed := make(map[string]bool)
	for i := range p.Modules {
		m := &p.Modules[i]
		m.Position = i
		total += m.Duration
		progress += m.Progress
		if m.Status == StatusCompleted {
			completed[m.ID] = true
		}
	}
	p.TotalDuration = total
	if len(p.Modules) == 0 {
		p.OverallProgress = 0
	} else {
		p.OverallProgress = int(math.Round(float64(progress) / float64(len(p.Modules))))
	}

	// Keep existing order of the completed list, then append newcomers.
	list := make([]string, 0, len(completed))
	for _, id := range p.CompletedModules {
		if completed[id] {
			list = append(list, id)
			delete(completed, id)
		}
	}
	for _, m := range p.Modules {
		if completed[m.ID] {
			list = append(list, m.ID)
		}
	}
	p.CompletedModules = list
}

func (p *LearningPath) touchProgress(now time.Time) {
	t := now
	p.LastProgressUpdate = &t
	p.LastUpdated = now
	p.Recalculate()
}

// clone returns a copy that shares no slices with p.
func (p *LearningPath) clone() LearningPath {
	c := *p
	c.Modules = slices.Clone(p.Modules)
	c.Tags = slices.Clone(p.Tags)
	c.CompletedModules = slices.Clone(p.CompletedModules)
	if p.LastProgressUpdate != nil {
		t := *p.LastProgressUpdate
		c.LastProgressUpdate = &t
	}
	for i := range c.Modules {
		c.Modules[i].QuizAttempts = slices.Clone(c.Modules[i].QuizAttempts)
	}
	return c
}

func clamp(v int) int {
	return max(0, min(100, v))
}
