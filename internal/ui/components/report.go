package components

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/corpusgen/internal/ui/theme"
)

// Field is one labelled line of a report.
type Field struct {
	Label string
	Value string
}

// Report renders a titled card of aligned label/value lines, with optional
// extra lines (e.g. a progress bar) below the fields.
type Report struct {
	Title  string
	Fields []Field
	Footer []string
}

// View renders the report.
func (r Report) View() string {
	width := 0
	for _, f := range r.Fields {
		width = max(width, lipgloss.Width(f.Label))
	}

	var lines []string
	if r.Title != "" {
		lines = append(lines, theme.Title.Render(r.Title), "")
	}
	for _, f := range r.Fields {
		pad := strings.Repeat(" ", width-lipgloss.Width(f.Label))
		lines = append(lines, theme.Label.Render(f.Label+":"+pad)+"  "+theme.Value.Render(f.Value))
	}
	if len(r.Footer) > 0 {
		lines = append(lines, "")
		lines = append(lines, r.Footer...)
	}
	return theme.Card.Render(strings.Join(lines, "\n"))
}
