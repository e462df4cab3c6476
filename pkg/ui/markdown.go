package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/chainview/pkg/debug"
)

// markdownRenderer wraps a glamour renderer that is rebuilt whenever the
// wrap width changes.
type markdownRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
}

// newMarkdownRenderer creates a renderer for a glamour standard style name.
// "auto" or "" picks a style from the terminal background.
func newMarkdownRenderer(style string) *markdownRenderer {
	return &markdownRenderer{style: style}
}

func (m *markdownRenderer) setWidth(width int) {
	width = max(width, 10)
	if width == m.width && m.renderer != nil {
		return
	}
	m.width = width

	styleOpt := glamour.WithAutoStyle()
	if m.style != "" && m.style != "auto" {
		styleOpt = glamour.WithStandardStyle(m.style)
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		debug.Log("glamour renderer (style %q): %v", m.style, err)
		m.renderer = nil
		return
	}
	m.renderer = r
}

// render returns styled markdown, or the source text when rendering is
// unavailable.
func (m *markdownRenderer) render(md string) string {
	if m.renderer == nil {
		return md
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		debug.Log("rendering markdown: %v", err)
		return md
	}
	// Strip trailing whitespace/newlines that glamour adds
	return strings.TrimRight(out, " \n")
}
