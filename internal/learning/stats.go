package learning

import (
	"math"
	"slices"
	"strings"
)

// Statistics summarizes the path with id, or returns nil if it does not
// exist.
func (m *Manager) Statistics(pathID string) *PathStatistics {
	p := m.find(pathID)
	if p == nil {
		return nil
	}
	attempts := m.pathAttempts(pathID)
	stats := &PathStatistics{
		TotalModules:    len(p.Modules),
		TotalDuration:   p.TotalDuration,
		OverallProgress: p.OverallProgress,
		QuizAttempts:    len(attempts),
		Certificates:    len(m.pathCertificates(pathID)),
		LastActivity:    p.LastUpdated,
	}
	for _, mod := range p.Modules {
		if mod.Status == StatusCompleted {
			stats.CompletedModules++
		}
	}
	if len(attempts) > 0 {
		sum := 0
		for _, a := range attempts {
			sum += a.Score
		}
		stats.AverageScore = roundDiv(sum, len(attempts))
	}
	return stats
}

// QuizStatistics summarizes the active path's attempts for moduleID.
func (m *Manager) QuizStatistics(moduleID string) QuizStatistics {
	return ComputeQuizStatistics(m.QuizAttempts(moduleID))
}

// ComputeQuizStatistics summarizes attempts.
func ComputeQuizStatistics(attempts []QuizAttempt) QuizStatistics {
	var s QuizStatistics
	if len(attempts) == 0 {
		return s
	}
	scoreSum, timeSum := 0, 0
	for _, a := range attempts {
		if a.Passed {
			s.PassedAttempts++
		}
		s.BestScore = max(s.BestScore, a.Score)
		scoreSum += a.Score
		timeSum += a.TimeSpent
	}
	n := len(attempts)
	s.TotalAttempts = n
	s.FailedAttempts = n - s.PassedAttempts
	s.AverageScore = roundDiv(scoreSum, n)
	s.AverageTimeSpent = roundDiv(timeSum, n)
	s.PassRate = roundDiv(s.PassedAttempts*100, n)
	return s
}

// Summary aggregates every path.
func (m *Manager) Summary() Summary {
	s := Summary{TotalPaths: len(m.paths)}
	progress := 0
	for _, p := range m.paths {
		if p.IsArchived {
			s.ArchivedPaths++
		} else {
			s.ActivePaths++
		}
		s.TotalModules += len(p.Modules)
		s.TotalCompletedModules += len(p.CompletedModules)
		progress += p.OverallProgress
	}
	if s.TotalPaths > 0 {
		s.AverageProgress = roundDiv(progress, s.TotalPaths)
	}
	if s.TotalModules > 0 {
		s.CompletionRate = roundDiv(s.TotalCompletedModules*100, s.TotalModules)
	}
	return s
}

// ActivePaths returns the paths that are not archived.
func (m *Manager) ActivePaths() []LearningPath {
	return m.filter(func(p *LearningPath) bool { return !p.IsArchived })
}

// ArchivedPaths returns the archived paths.
func (m *Manager) ArchivedPaths() []LearningPath {
	return m.filter(func(p *LearningPath) bool { return p.IsArchived })
}

// CopyablePaths returns the paths that have at least one module.
func (m *Manager) CopyablePaths() []LearningPath {
	return m.filter(func(p *LearningPath) bool { return len(p.Modules) > 0 })
}

// Search returns the paths whose name, description or a tag contains
// query, ignoring case. A blank query matches every path.
func (m *Manager) Search(query string) []LearningPath {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return m.Paths()
	}
	return m.filter(func(p *LearningPath) bool {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			return true
		}
		return slices.ContainsFunc(p.Tags, func(t string) bool {
			return strings.Contains(strings.ToLower(t), q)
		})
	})
}

// SortBy selects the ordering used by SortPaths.
type SortBy string

const (
	SortByName     SortBy = "name"
	SortByCreated  SortBy = "created"
	SortByUpdated  SortBy = "updated"
	SortByProgress SortBy = "progress"
	SortByModules  SortBy = "modules"
)

// SortPaths returns a sorted copy of paths. Names sort ascending; dates,
// progress and module counts sort descending.
func SortPaths(paths []LearningPath, by SortBy) []LearningPath {
	out := slices.Clone(paths)
	slices.SortStableFunc(out, func(a, b LearningPath) int {
		switch by {
		case SortByName:
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case SortByCreated:
			return b.CreatedAt.Compare(a.CreatedAt)
		case SortByUpdated:
			return b.LastUpdated.Compare(a.LastUpdated)
		case SortByProgress:
			return b.OverallProgress - a.OverallProgress
		case SortByModules:
			return len(b.Modules) - len(a.Modules)
		default:
			return 0
		}
	})
	return out
}

func (m *Manager) filter(keep func(*LearningPath) bool) []LearningPath {
	var out []LearningPath
	for _, p := range m.paths {
		if keep(p) {
			out = append(out, p.clone())
		}
	}
	return out
}

func roundDiv(a, b int) int {
	return int(math.Round(float64(a) / float64(b)))
}
