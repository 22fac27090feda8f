package learning

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/abhisek/learnpath/internal/pathstore"
)

// Categories lists the module categories offered when creating modules.
var Categories = []string{
	"Web Development",
	"Backend Development",
	"DevOps",
	"Mobile Development",
	"Data Science",
	"Soft Skills",
	"Design",
	"Testing",
	"Security",
	"Database",
}

var categoryIcons = map[string]string{
	"Web Development":     "🌐",
	"Backend Development": "⚙️",
	"DevOps":              "🔧",
	"Mobile Development":  "📱",
	"Data Science":        "📊",
	"Soft Skills":         "💡",
	"Design":              "🎨",
	"Testing":             "🧪",
	"Security":            "🔒",
	"Database":            "🗄️",
}

// DefaultIcon returns the icon used for modules of category that have
// none of their own.
func DefaultIcon(category string) string {
	if icon, ok := categoryIcons[category]; ok {
		return icon
	}
	return "📚"
}

// ModuleInput describes a learner-created module.
type ModuleInput struct {
	Title              string
	Description        string
	Duration           int
	Category           string
	Difficulty         Difficulty
	Icon               string
	Prerequisites      []string
	LearningObjectives []string
	Topics             []string
	Resources          []Resource
}

// ValidateModule checks in and lists every problem found.
func ValidateModule(in ModuleInput) ValidationResult {
	var errs []string
	if len(strings.TrimSpace(in.Title)) < 3 {
		errs = append(errs, "Title must be at least 3 characters long")
	}
	if len(strings.TrimSpace(in.Description)) < 10 {
		errs = append(errs, "Description must be at least 10 characters long")
	}
	if in.Duration < 5 {
		errs = append(errs, "Duration must be at least 5 minutes")
	}
	if strings.TrimSpace(in.Category) == "" {
		errs = append(errs, "Category is required")
	}
	if in.Difficulty == "" {
		errs = append(errs, "Difficulty level is required")
	} else if !in.Difficulty.Valid() {
		errs = append(errs, fmt.Sprintf("Unknown difficulty level %q", in.Difficulty))
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// CreateModule builds a module from in. The id is the slugified title
// with a millisecond timestamp suffix. The module is not stored.
func (m *Manager) CreateModule(in ModuleInput) Module {
	now := m.now()
	icon := in.Icon
	if icon == "" {
		icon = DefaultIcon(in.Category)
	}
	return Module{
		ID:                 fmt.Sprintf("%s-%d", Slugify(in.Title), now.UnixMilli()),
		Title:              in.Title,
		Description:        in.Description,
		Duration:           in.Duration,
		Category:           in.Category,
		Difficulty:         in.Difficulty,
		Icon:               icon,
		Status:             StatusNotStarted,
		AddedAt:            now,
		Prerequisites:      slices.Clone(in.Prerequisites),
		LearningObjectives: slices.Clone(in.LearningObjectives),
		Topics:             slices.Clone(in.Topics),
		Resources:          slices.Clone(in.Resources),
	}
}

// AddCustomModule creates a module, stores it among the active path's
// custom modules and adds it to the path.
func (m *Manager) AddCustomModule(in ModuleInput) (Module, error) {
	p := m.active()
	if p == nil {
		return Module{}, ErrNoActivePath
	}
	mod := m.CreateModule(in)

	custom := append(m.customModules(p.ID), mod)
	op, err := pathstore.SetOp(p.ID, pathstore.KindCustomModules, custom)
	if err != nil {
		return Module{}, fmt.Errorf("add custom module: %w", err)
	}
	m.data(p.ID).modules = custom
	p.AddModule(mod, m.now())
	m.persist(op)

	added := p.Module(mod.ID)
	return *added, nil
}

// RemoveCustomModule deletes a custom module from the active path's
// custom modules and from the path itself.
func (m *Manager) RemoveCustomModule(moduleID string) bool {
	p := m.active()
	if p == nil {
		return false
	}
	custom := m.customModules(p.ID)
	kept := slices.DeleteFunc(slices.Clone(custom), func(c Module) bool { return c.ID == moduleID })
	if len(kept) == len(custom) && !p.Has(moduleID) {
		return false
	}
	op, err := pathstore.SetOp(p.ID, pathstore.KindCustomModules, kept)
	if err != nil {
		return false
	}
	m.data(p.ID).modules = kept
	p.RemoveModule(moduleID, m.now())
	m.persist(op)
	return true
}

// IsCustomModule reports whether moduleID is a custom module of the
// active path.
func (m *Manager) IsCustomModule(moduleID string) bool {
	return slices.ContainsFunc(m.CustomModules(), func(c Module) bool { return c.ID == moduleID })
}

// CustomModules returns the active path's custom modules.
func (m *Manager) CustomModules() []Module {
	if m.active() == nil {
		return nil
	}
	return m.customModules(m.state.ActivePathID)
}

// AvailableModules returns the catalog followed by the active path's
// custom modules.
func (m *Manager) AvailableModules() []Module {
	return append(Catalog(), m.CustomModules()...)
}

// FindModule looks moduleID up in the active path, then among the
// available modules.
func (m *Manager) FindModule(moduleID string) (Module, bool) {
	if mod := m.activeModule(moduleID); mod != nil {
		return *mod, true
	}
	for _, mod := range m.AvailableModules() {
		if mod.ID == moduleID {
			return mod, true
		}
	}
	return Module{}, false
}

// FormatDuration renders minutes as "1h 30m", "45m" or "2h".
func FormatDuration(minutes int) string {
	h, mins := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", mins)
	case mins == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, mins)
	}
}
