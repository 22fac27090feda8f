package quiz

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/learnpath/internal/certificate"
	qz "github.com/abhisek/learnpath/internal/quiz"
	"github.com/abhisek/learnpath/internal/ui/components"
	"github.com/abhisek/learnpath/internal/ui/layout"
	"github.com/abhisek/learnpath/internal/ui/theme"
)

func (m *Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	v.SetContent(m.render())
	return v
}

// render draws the whole screen for the current window size.
func (m *Model) render() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	status := ""
	if m.session.State() == qz.StateInProgress {
		status = "⏱ " + qz.FormatTime(int(m.session.Elapsed().Seconds())) + "  "
	}
	header := layout.RenderHeader("Quiz: "+m.module.Title, status, m.width)
	footer := layout.RenderFooter(m.KeyHints(), m.width)
	content := lipgloss.NewStyle().Padding(1, 2).Render(m.content())
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// KeyHints returns the footer hints for the current phase.
func (m *Model) KeyHints() []layout.KeyHint {
	switch m.phase {
	case phaseQuestion:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Choose"},
			{Key: "Enter", Description: "Answer"},
			{Key: "←→", Description: "Prev/Next"},
			{Key: "Shift+S", Description: "Submit"},
			{Key: "Esc", Description: "Quit"},
		}
	case phaseConfirmQuit:
		return []layout.KeyHint{{Key: "Y", Description: "Discard quiz"}, {Key: "N", Description: "Keep going"}}
	case phaseResult:
		return []layout.KeyHint{{Key: "↑↓", Description: "Navigate"}, {Key: "Enter", Description: "Select"}, {Key: "Esc", Description: "Done"}}
	case phaseReview:
		return []layout.KeyHint{{Key: "←→", Description: "Prev/Next"}, {Key: "Esc", Description: "Back"}}
	case phaseName:
		return []layout.KeyHint{{Key: "Enter", Description: "Issue"}, {Key: "Esc", Description: "Back"}}
	default:
		return []layout.KeyHint{{Key: "any key", Description: "Exit"}}
	}
}

func (m *Model) content() string {
	var body string
	switch m.phase {
	case phaseQuestion:
		body = m.questionView()
	case phaseConfirmQuit:
		body = theme.Title.Render("Quit this quiz?") + "\n\n" +
			theme.Subtitle.Render("Your answers will be discarded and no attempt is recorded.")
	case phaseResult:
		body = m.resultView()
	case phaseReview:
		body = m.reviewView()
	case phaseName:
		body = theme.Title.Render("Name on the certificate") + "\n\n" + m.name.View()
	case phaseCertificate:
		body = certificate.Render(*m.cert, m.module) + "\n\n" +
			theme.Subtitle.Render(certificate.ShareMessage(*m.cert, m.module))
	case phaseBlocked:
		body = theme.Title.Render(m.module.Title)
	}
	if m.notice != "" {
		body += "\n\n" + lipgloss.NewStyle().Foreground(theme.Warning).Render(m.notice)
	}
	return body
}

func (m *Model) questionView() string {
	cur, total, pct := m.session.Progress()
	var b strings.Builder
	b.WriteString(components.NewProgressBar(fmt.Sprintf("Question %d of %d", cur, total), pct, min(m.width-6, 70)).View())
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render(fmt.Sprintf("%d answered", m.session.Answered())))
	b.WriteString("\n\n")
	b.WriteString(m.choice.View())
	return b.String()
}

func (m *Model) resultView() string {
	a := m.attempt
	var b strings.Builder
	if a.Passed {
		b.WriteString(theme.Correct.Render("🎉 Congratulations! You passed."))
	} else {
		b.WriteString(theme.Incorrect.Render("Not quite. You need a perfect score to pass."))
	}
	b.WriteString("\n\n")

	correct := 0
	for i, q := range a.Questions {
		if i < len(a.UserAnswers) && a.UserAnswers[i] == q.CorrectAnswer {
			correct++
		}
	}
	rows := [][2]string{
		{"Score", fmt.Sprintf("%d%%", a.Score)},
		{"Correct", fmt.Sprintf("%d of %d", correct, len(a.Questions))},
		{"Time", qz.FormatTime(a.TimeSpent)},
	}
	for _, r := range rows {
		b.WriteString(theme.Label.Render(r[0]) + theme.Body.Render(r[1]) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.menu.View())
	return b.String()
}

func (m *Model) reviewView() string {
	a := m.attempt
	i := m.review
	chosen := -1
	if i < len(a.UserAnswers) {
		chosen = a.UserAnswers[i]
	}
	mc := components.NewMultiChoice(a.Questions[i], chosen)
	mc.Reveal = true
	return theme.Subtitle.Render(fmt.Sprintf("Question %d of %d", i+1, len(a.Questions))) + "\n\n" + mc.View()
}
