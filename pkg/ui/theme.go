package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/chainview/pkg/model"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// Theme is the resolved set of colors and styles for one renderer.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	// Node kinds
	Part     lipgloss.AdaptiveColor
	Supplier lipgloss.AdaptiveColor

	// Conversation speakers
	User      lipgloss.AdaptiveColor
	Assistant lipgloss.AdaptiveColor

	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor

	Base     lipgloss.Style
	Selected lipgloss.Style
	Header   lipgloss.Style

	// Pre-computed styles, created once instead of per frame.
	MutedText     lipgloss.Style
	InfoText      lipgloss.Style
	PrimaryBold   lipgloss.Style
	PartText      lipgloss.Style
	SupplierText  lipgloss.Style
	UserLabel     lipgloss.Style
	AssistLabel   lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusError   lipgloss.Style
	SparklineText lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive).
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   ColorPrimary,
		Secondary: ColorSecondary,
		Subtext:   ColorSubtext,

		Part:     ColorInfo,
		Supplier: ColorWarning,

		User:      ColorSuccess,
		Assistant: ColorPrimary,

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     ColorMuted,
	}

	t.Base = r.NewStyle().Foreground(ColorText)

	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		Bold(true)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.InfoText = r.NewStyle().Foreground(ColorInfo)
	t.PrimaryBold = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.PartText = r.NewStyle().Foreground(t.Part).Bold(true)
	t.SupplierText = r.NewStyle().Foreground(t.Supplier)
	t.UserLabel = r.NewStyle().Foreground(t.User).Bold(true)
	t.AssistLabel = r.NewStyle().Foreground(t.Assistant).Bold(true)
	t.StatusInfo = r.NewStyle().Foreground(ColorSubtext)
	t.StatusError = r.NewStyle().Foreground(ColorDanger).Bold(true)
	t.SparklineText = r.NewStyle().Foreground(ThemeFg("#8BE9FD"))

	return t
}

// KindStyle returns the label style for a node kind.
func (t Theme) KindStyle(kind model.NodeKind) lipgloss.Style {
	if kind == model.KindSupplier {
		return t.SupplierText
	}
	return t.PartText
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
