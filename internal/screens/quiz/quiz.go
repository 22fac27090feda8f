// Package quiz is the interactive quiz screen: it walks the learner
// through a quiz session, shows the result and, after a pass, issues a
// certificate.
package quiz

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/learnpath/internal/certificate"
	"github.com/abhisek/learnpath/internal/learning"
	qz "github.com/abhisek/learnpath/internal/quiz"
	"github.com/abhisek/learnpath/internal/ui/components"
)

type phase int

const (
	phaseQuestion phase = iota
	phaseConfirmQuit
	phaseResult
	phaseReview
	phaseName
	phaseCertificate
	phaseBlocked
)

// Menu item ids on the result screen.
const (
	itemCertificate = "certificate"
	itemReview      = "review"
	itemRetry       = "retry"
	itemQuit        = "quit"
)

// Certifier stores issued certificates.
type Certifier interface {
	IssueCertificate(c learning.Certificate) (learning.Certificate, bool)
}

// Options configures the screen.
type Options struct {
	// LearnerName prefills the certificate name prompt.
	LearnerName string
	Now         func() time.Time
	Rand        *rand.Rand
}

type tickMsg time.Time

// Model is the bubbletea model of the quiz screen.
type Model struct {
	session *qz.Session
	module  learning.Module
	certs   Certifier
	opts    Options

	phase   phase
	choice  components.MultiChoice
	attempt *learning.QuizAttempt
	review  int
	menu    components.Menu
	name    components.TextInput
	cert    *learning.Certificate
	notice  string

	width  int
	height int
}

// New returns a screen quizzing module. The session should be built with
// a zero tick interval; the screen drives its timer.
func New(s *qz.Session, module learning.Module, certs Certifier, opts Options) *Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Model{session: s, module: module, certs: certs, opts: opts}
}

func (m *Model) Init() tea.Cmd {
	return m.start()
}

// Attempt returns the submitted attempt, if any.
func (m *Model) Attempt() *learning.QuizAttempt {
	return m.attempt
}

// Certificate returns the certificate issued on this screen, if any.
func (m *Model) Certificate() *learning.Certificate {
	return m.cert
}

func (m *Model) start() tea.Cmd {
	m.attempt, m.cert, m.review = nil, nil, 0
	if _, err := m.session.Start(m.module); err != nil {
		m.phase = phaseBlocked
		var cd *qz.CooldownError
		switch {
		case errors.As(err, &cd):
			m.notice = fmt.Sprintf("Too many failed attempts. Try again in %s.", qz.FormatTime(int(cd.Remaining.Round(time.Second).Seconds())))
		case errors.Is(err, qz.ErrNoQuestions):
			m.notice = "No quiz questions are available for this module yet. Add some with `learnpath question add`."
		default:
			m.notice = err.Error()
		}
		return nil
	}
	m.phase = phaseQuestion
	m.notice = ""
	m.syncChoice()
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// syncChoice rebuilds the option list for the question under the cursor.
func (m *Model) syncChoice() {
	q, ok := m.session.Current()
	if !ok {
		return
	}
	m.choice = components.NewMultiChoice(q, m.session.Answers()[m.session.Cursor()])
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tickMsg:
		if m.session.State() != qz.StateInProgress {
			return m, nil
		}
		m.session.Tick()
		return m, tickCmd()

	case components.ChoiceMsg:
		if m.phase == phaseQuestion && m.session.AnswerCurrent(msg.Index) && m.session.Next() {
			m.syncChoice()
		}
		return m, nil

	case components.MenuSelectMsg:
		return m.handleMenu(msg.ID)

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			m.session.Cancel()
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	if m.phase == phaseName {
		var cmd tea.Cmd
		m.name, cmd = m.name.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch m.phase {
	case phaseQuestion:
		switch key {
		case "esc", "q":
			m.phase = phaseConfirmQuit
			return m, nil
		case "right", "tab", "n":
			if m.session.Next() {
				m.syncChoice()
			}
			return m, nil
		case "left", "shift+tab", "p":
			if m.session.Previous() {
				m.syncChoice()
			}
			return m, nil
		case "ctrl+s", "shift+s", "S":
			return m.submit()
		}
		var cmd tea.Cmd
		m.choice, cmd = m.choice.Update(msg)
		return m, cmd

	case phaseConfirmQuit:
		switch key {
		case "y", "Y":
			m.session.Cancel()
			return m, tea.Quit
		case "n", "N", "esc":
			m.phase = phaseQuestion
		}
		return m, nil

	case phaseResult:
		if key == "esc" || key == "q" {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.menu, cmd = m.menu.Update(msg)
		return m, cmd

	case phaseReview:
		switch key {
		case "right", "tab", "n":
			if m.review < len(m.attempt.Questions)-1 {
				m.review++
			}
		case "left", "shift+tab", "p":
			if m.review > 0 {
				m.review--
			}
		case "esc", "q", "enter":
			m.phase = phaseResult
		}
		return m, nil

	case phaseName:
		switch key {
		case "esc":
			m.phase = phaseResult
			return m, nil
		case "enter":
			return m.issue()
		}
		var cmd tea.Cmd
		m.name, cmd = m.name.Update(msg)
		return m, cmd

	case phaseCertificate, phaseBlocked:
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) submit() (tea.Model, tea.Cmd) {
	attempt, err := m.session.Submit()
	if attempt == nil {
		m.notice = err.Error()
		return m, nil
	}
	m.attempt = attempt
	m.notice = ""
	if err != nil {
		m.notice = "Your result could not be saved: " + err.Error()
	}
	m.phase = phaseResult
	m.menu = m.resultMenu()
	return m, nil
}

func (m *Model) resultMenu() components.Menu {
	if m.attempt.Passed {
		return components.NewMenu(
			components.MenuItem{ID: itemCertificate, Label: "Get your certificate"},
			components.MenuItem{ID: itemReview, Label: "Review answers"},
			components.MenuItem{ID: itemQuit, Label: "Done"},
		)
	}
	retry := components.MenuItem{ID: itemRetry, Label: "Try again"}
	if left := m.session.RemainingCooldown(m.module.ID); left > 0 {
		retry.Label = fmt.Sprintf("Try again (available in %s)", qz.FormatTime(int(left.Round(time.Second).Seconds())))
		retry.Disabled = true
	}
	return components.NewMenu(
		retry,
		components.MenuItem{ID: itemReview, Label: "Review answers"},
		components.MenuItem{ID: itemQuit, Label: "Done"},
	)
}

func (m *Model) handleMenu(id string) (tea.Model, tea.Cmd) {
	switch id {
	case itemCertificate:
		m.phase = phaseName
		m.name = components.NewTextInput("Your full name", m.opts.LearnerName, 60)
		return m, m.name.Init()
	case itemReview:
		m.phase = phaseReview
		m.review = 0
	case itemRetry:
		return m, m.start()
	case itemQuit:
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) issue() (tea.Model, tea.Cmd) {
	name := m.name.Value()
	if name == "" {
		m.notice = "Please enter your name."
		return m, nil
	}
	c := certificate.Generate(m.module, *m.attempt, name, m.opts.Now(), m.opts.Rand)
	if m.certs != nil {
		stored, ok := m.certs.IssueCertificate(c)
		if !ok {
			m.notice = "The certificate could not be saved."
			return m, nil
		}
		c = stored
	}
	m.cert = &c
	m.notice = ""
	m.phase = phaseCertificate
	return m, nil
}
