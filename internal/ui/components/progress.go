package components

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/learnpath/internal/ui/theme"
)

// ProgressBar renders a 0-100 percentage as a horizontal bar.
type ProgressBar struct {
	Label       string
	Percent     int
	ShowPercent bool
	Width       int
	// Fill overrides the filled segment color.
	Fill color.Color
}

// NewProgressBar creates a bar that shows its percentage.
func NewProgressBar(label string, percent, width int) ProgressBar {
	return ProgressBar{Label: label, Percent: percent, ShowPercent: true, Width: width}
}

// View renders the bar.
func (p ProgressBar) View() string {
	var b strings.Builder
	if p.Label != "" {
		b.WriteString(theme.Body.Render(p.Label) + "  ")
	}

	pct := min(max(p.Percent, 0), 100)
	suffix := ""
	if p.ShowPercent {
		suffix = theme.Subtitle.Render(fmt.Sprintf(" %3d%%", pct))
	}

	barWidth := max(p.Width-lipgloss.Width(b.String())-lipgloss.Width(suffix), 4)
	filled := barWidth * pct / 100

	fill := theme.ProgressFilled
	if p.Fill != nil {
		fill = fill.Background(p.Fill)
	}
	b.WriteString(fill.Render(strings.Repeat(" ", filled)))
	b.WriteString(theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled)))
	b.WriteString(suffix)
	return b.String()
}
