package questiongen

import (
	"fmt"
	"strings"

	"github.com/abhisek/learnpath/internal/learning"
)

const systemPrompt = `You write multiple-choice quiz questions that check whether a learner finished a self-study module.

Rules:
- Every question has exactly 4 options and exactly one correct option.
- Distractors should be plausible mistakes, not jokes or obviously wrong values.
- Questions must be answerable from the module topics alone. Avoid trivia about versions or dates.
- Keep question text under 200 characters and options under 80 characters.
- Vary which option index is correct.
- Do not repeat any question from the "already asked" list.`

func buildUserMessage(m learning.Module, count int, prior []string, maxPrior int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Module: %s\n", m.Title)
	if m.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", m.Description)
	}
	fmt.Fprintf(&b, "Category: %s\n", m.Category)
	fmt.Fprintf(&b, "Difficulty: %s\n", m.Difficulty)
	if len(m.Topics) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(m.Topics, ", "))
	}
	if len(m.LearningObjectives) > 0 {
		b.WriteString("Learning objectives:\n")
		for _, o := range m.LearningObjectives {
			fmt.Fprintf(&b, "- %s\n", o)
		}
	}
	fmt.Fprintf(&b, "Number of questions: %d\n", count)

	b.WriteString("\nAlready asked:\n")
	b.WriteString(buildDedup(prior, maxPrior))
	return b.String()
}

// buildDedup lists the most recent max prior questions, or "None".
func buildDedup(prior []string, max int) string {
	if len(prior) == 0 {
		return "None"
	}
	if max > 0 && len(prior) > max {
		prior = prior[len(prior)-max:]
	}
	var b strings.Builder
	for i, q := range prior {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}
