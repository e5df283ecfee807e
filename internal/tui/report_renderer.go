package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/hylla/sudsboard/internal/coverage"
)

// minReportWidth keeps contract tables readable in narrow terminals.
const minReportWidth = 24

// reportRenderer turns contract views into styled terminal text.
// The last output is cached so redraws without a data change skip glamour.
type reportRenderer struct {
	width    int
	term     *glamour.TermRenderer
	source   string
	rendered string
}

// renderContract renders one contract report wrapped to width.
// Plain markdown is returned when glamour fails.
func (r *reportRenderer) renderContract(view coverage.ContractView, width int) string {
	source := strings.TrimSpace(coverage.ContractMarkdown(view))
	if source == "" {
		return ""
	}
	width = max(width, minReportWidth)
	if r.term != nil && r.width == width && r.source == source {
		return r.rendered
	}
	if r.term == nil || r.width != width {
		term, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return source
		}
		r.term = term
		r.width = width
	}
	out, err := r.term.Render(source)
	if err != nil {
		return source
	}
	r.source = source
	r.rendered = strings.TrimRight(out, "\n")
	return r.rendered
}
