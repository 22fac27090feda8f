package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/learnpath/internal/questionbank"
	"github.com/abhisek/learnpath/internal/ui/theme"
)

// ChoiceMsg reports that the learner picked option Index.
type ChoiceMsg struct {
	Index int
}

// MultiChoice renders one question and lets the learner move a cursor
// over its options. Reveal marks the correct and chosen options.
type MultiChoice struct {
	Question questionbank.Question
	Cursor   int
	Chosen   int
	Reveal   bool
}

// NewMultiChoice places the cursor on the chosen option, if any.
func NewMultiChoice(q questionbank.Question, chosen int) MultiChoice {
	cursor := 0
	if chosen >= 0 && chosen < len(q.Options) {
		cursor = chosen
	}
	return MultiChoice{Question: q, Cursor: cursor, Chosen: chosen}
}

// Update moves the cursor. Enter or space picks the option under the
// cursor; a letter or digit picks that option directly.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Reveal {
		return m, nil
	}
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}

	n := len(m.Question.Options)
	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
		return m, nil
	case "down", "j":
		if m.Cursor < n-1 {
			m.Cursor++
		}
		return m, nil
	case "enter", "space":
		return m.choose(m.Cursor)
	}
	if len(key) == 1 {
		switch c := key[0]; {
		case c >= '1' && c <= '9' && int(c-'1') < n:
			return m.choose(int(c - '1'))
		case c >= 'a' && c <= 'z' && int(c-'a') < n:
			return m.choose(int(c - 'a'))
		}
	}
	return m, nil
}

func (m MultiChoice) choose(i int) (MultiChoice, tea.Cmd) {
	m.Cursor, m.Chosen = i, i
	return m, func() tea.Msg { return ChoiceMsg{Index: i} }
}

// View renders the question and its options.
func (m MultiChoice) View() string {
	var b strings.Builder
	b.WriteString(theme.Body.Bold(true).Render(m.Question.Text))
	b.WriteString("\n\n")

	for i, opt := range m.Question.Options {
		prefix := "  "
		if i == m.Cursor && !m.Reveal {
			prefix = "▸ "
		}
		mark := "○"
		if i == m.Chosen {
			mark = "●"
		}
		line := fmt.Sprintf("%s%s %c) %s", prefix, mark, 'A'+i, opt)

		style := theme.Unselected
		switch {
		case m.Reveal && i == m.Question.CorrectAnswer:
			style = theme.Correct
		case m.Reveal && i == m.Chosen:
			style = theme.Incorrect
		case m.Reveal:
			style = theme.Subtitle
		case i == m.Cursor:
			style = theme.Selected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	if m.Reveal && m.Question.Explanation != "" {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render(m.Question.Explanation))
		b.WriteString("\n")
	}
	return b.String()
}
