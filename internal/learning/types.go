package learning

import (
	"slices"
	"time"

	"github.com/abhisek/learnpath/internal/questionbank"
)

// Difficulty is shared with the question bank.
type Difficulty = questionbank.Difficulty

const (
	Beginner     = questionbank.Beginner
	Intermediate = questionbank.Intermediate
	Advanced     = questionbank.Advanced
)

// ModuleStatus tracks a module through its learning lifecycle.
type ModuleStatus string

const (
	StatusNotStarted   ModuleStatus = "not-started"
	StatusInProgress   ModuleStatus = "in-progress"
	StatusQuizRequired ModuleStatus = "quiz-required"
	StatusQuizPassed   ModuleStatus = "quiz-passed"
	StatusCompleted    ModuleStatus = "completed"
)

// Statuses lists every status in lifecycle order.
var Statuses = []ModuleStatus{
	StatusNotStarted,
	StatusInProgress,
	StatusQuizRequired,
	StatusQuizPassed,
	StatusCompleted,
}

// Valid reports whether s is a known status.
func (s ModuleStatus) Valid() bool {
	return slices.Contains(Statuses, s)
}

// rank orders statuses so that transitions can be compared.
func (s ModuleStatus) rank() int {
	return slices.Index(Statuses, s)
}

// ProgressFor returns the progress a module snaps to when set to status.
func ProgressFor(status ModuleStatus) int {
	switch status {
	case StatusCompleted:
		return 100
	case StatusQuizPassed:
		return 90
	case StatusQuizRequired:
		return 75
	case StatusInProgress:
		return 50
	default:
		return 0
	}
}

// ResourceType classifies a learning resource.
type ResourceType string

const (
	ResourceVideo         ResourceType = "video"
	ResourceArticle       ResourceType = "article"
	ResourceDocumentation ResourceType = "documentation"
	ResourceBook          ResourceType = "book"
	ResourceCourse        ResourceType = "course"
	ResourceTool          ResourceType = "tool"
)

// Resource is a descriptive link attached to a module.
type Resource struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Type        ResourceType `json:"type"`
	URL         string       `json:"url,omitempty"`
	Description string       `json:"description,omitempty"`
}

// Module is a unit of learning placed in a path.
type Module struct {
	ID                  string        `json:"id"`
	Title               string        `json:"title"`
	Description         string        `json:"description"`
	Duration            int           `json:"duration"` // minutes
	Category            string        `json:"category"`
	Difficulty          Difficulty    `json:"difficulty"`
	Icon                string        `json:"icon,omitempty"`
	Status              ModuleStatus  `json:"status,omitempty"`
	Progress            int           `json:"progress"`
	PathID              string        `json:"pathId"`
	Position            int           `json:"position"`
	AddedAt             time.Time     `json:"addedAt"`
	QuizAttempts        []QuizAttempt `json:"quizAttempts,omitempty"`
	Certificate         *Certificate  `json:"certificate,omitempty"`
	Prerequisites       []string      `json:"prerequisites,omitempty"`
	LearningObjectives  []string      `json:"learningObjectives,omitempty"`
	Topics              []string      `json:"topics,omitempty"`
	Resources           []Resource    `json:"resources,omitempty"`
	HasCustomQuestions  bool          `json:"hasCustomQuestions,omitempty"`
	CustomQuestionCount int           `json:"customQuestionCount,omitempty"`
}

// LearningPath is a named, ordered collection of modules.
type LearningPath struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Description        string     `json:"description,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	LastUpdated        time.Time  `json:"lastUpdated"`
	LastProgressUpdate *time.Time `json:"lastProgressUpdate,omitempty"`
	Modules            []Module   `json:"modules"`
	TotalDuration      int        `json:"totalDuration"`
	IsActive           bool       `json:"isActive"`
	IsArchived         bool       `json:"isArchived"`
	Color              string     `json:"color"`
	Tags               []string   `json:"tags"`
	CompletedModules   []string   `json:"completedModules"`
	OverallProgress    int        `json:"overallProgress"`
}

// DefaultColor is the color given to paths created without one.
const DefaultColor = "#6366f1"

// Settings are user preferences for path management.
type Settings struct {
	AutoSave     bool   `json:"autoSave"`
	ShowArchived bool   `json:"showArchived"`
	DefaultColor string `json:"defaultColor"`
}

// DefaultSettings returns the settings used before any are stored.
func DefaultSettings() Settings {
	return Settings{AutoSave: true, DefaultColor: DefaultColor}
}

// ManagerState is the persisted path-manager record.
type ManagerState struct {
	Paths         []string `json:"paths"`
	ActivePathID  string   `json:"activePathId"`
	DefaultPathID string   `json:"defaultPathId"`
	Settings      Settings `json:"settings"`
}

// QuizAttempt is an immutable record of one submitted quiz.
type QuizAttempt struct {
	ID          string                  `json:"id"`
	ModuleID    string                  `json:"moduleId"`
	PathID      string                  `json:"pathId,omitempty"`
	Questions   []questionbank.Question `json:"questions"`
	UserAnswers []int                   `json:"userAnswers"`
	Score       int                     `json:"score"`
	Passed      bool                    `json:"passed"`
	Timestamp   time.Time               `json:"timestamp"`
	TimeSpent   int                     `json:"timeSpent"` // seconds
}

// Certificate records the completion of a module.
type Certificate struct {
	ID             string    `json:"id"`
	ModuleID       string    `json:"moduleId"`
	PathID         string    `json:"pathId,omitempty"`
	ModuleName     string    `json:"moduleName"`
	PathName       string    `json:"pathName,omitempty"`
	LearnerName    string    `json:"learnerName"`
	CompletionDate time.Time `json:"completionDate"`
	Score          int       `json:"score"`
	CertificateID  string    `json:"certificateId"`
}

// CustomQuestion is a learner-authored question bound to a module.
type CustomQuestion struct {
	questionbank.Question
	ModuleID  string    `json:"moduleId"`
	PathID    string    `json:"pathId,omitempty"`
	IsCustom  bool      `json:"isCustom"`
	CreatedAt time.Time `json:"createdAt"`
}

// CustomQuestionBank maps module id to its custom questions.
type CustomQuestionBank map[string][]CustomQuestion

// PathStatistics summarizes one path.
type PathStatistics struct {
	TotalModules     int       `json:"totalModules"`
	CompletedModules int       `json:"completedModules"`
	TotalDuration    int       `json:"totalDuration"`
	OverallProgress  int       `json:"overallProgress"`
	QuizAttempts     int       `json:"quizAttempts"`
	Certificates     int       `json:"certificates"`
	AverageScore     int       `json:"averageScore"`
	LastActivity     time.Time `json:"lastActivity"`
}

// QuizStatistics summarizes the attempts for one module.
type QuizStatistics struct {
	TotalAttempts    int `json:"totalAttempts"`
	PassedAttempts   int `json:"passedAttempts"`
	FailedAttempts   int `json:"failedAttempts"`
	BestScore        int `json:"bestScore"`
	AverageScore     int `json:"averageScore"`
	AverageTimeSpent int `json:"averageTimeSpent"`
	PassRate         int `json:"passRate"`
}

// Summary aggregates every path.
type Summary struct {
	TotalPaths            int `json:"totalPaths"`
	ActivePaths           int `json:"activePaths"`
	ArchivedPaths         int `json:"archivedPaths"`
	TotalModules          int `json:"totalModules"`
	TotalCompletedModules int `json:"totalCompletedModules"`
	AverageProgress       int `json:"averageProgress"`
	CompletionRate        int `json:"completionRate"`
}

// ValidationResult reports input problems as human readable messages.
type ValidationResult struct {
	Valid  bool     `json:"isValid"`
	Errors []string `json:"errors"`
}
