package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/chainview/pkg/model"
)

// DemandSummary condenses a weekly demand history.
type DemandSummary struct {
	Weeks  int
	Mean   float64
	StdDev float64 // NaN with fewer than two weeks
	Trend  float64 // least-squares slope in units per week
}

// SummarizeDemand computes the summary statistics of a demand history.
// It reports false for an empty history.
func SummarizeDemand(history []float64) (DemandSummary, bool) {
	if len(history) == 0 {
		return DemandSummary{}, false
	}
	s := DemandSummary{
		Weeks:  len(history),
		Mean:   stat.Mean(history, nil),
		StdDev: math.NaN(),
	}
	if len(history) > 1 {
		s.StdDev = stat.StdDev(history, nil)
		weeks := make([]float64, len(history))
		for i := range weeks {
			weeks[i] = float64(i + 1)
		}
		_, s.Trend = stat.LinearRegression(weeks, history, nil, false)
	}
	return s, true
}

func (s DemandSummary) String() string {
	if s.Weeks < 2 {
		return fmt.Sprintf("%d week · mean %s", s.Weeks, model.FormatQuantity(s.Mean))
	}
	return fmt.Sprintf("%d weeks · mean %.1f · σ %.1f · trend %+.1f/wk", s.Weeks, s.Mean, s.StdDev, s.Trend)
}

// DetailPane shows the detail panel of the selected part: a demand summary
// line and the panel markdown in a scrollable viewport.
type DetailPane struct {
	viewport viewport.Model
	spinner  spinner.Model
	md       *markdownRenderer
	theme    Theme

	panel      model.PanelState
	loading    bool
	loadingID  string
	width      int
	height     int
	rendered   string
	renderedAt int // width the content was rendered for
}

// NewDetailPane creates an empty detail pane.
func NewDetailPane(theme Theme, md *markdownRenderer) DetailPane {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.PrimaryBold
	return DetailPane{
		viewport: viewport.New(0, 0),
		spinner:  sp,
		md:       md,
		theme:    theme,
	}
}

// SetSize sets the inner dimensions and re-renders for the new width.
func (d *DetailPane) SetSize(width, height int) {
	d.width, d.height = width, height
	d.viewport.Width = width
	d.viewport.Height = max(height-1, 1)
	if d.renderedAt != width {
		d.refresh()
	}
}

// SetPanel replaces the panel content and scrolls to the top.
func (d *DetailPane) SetPanel(p model.PanelState) {
	d.panel = p
	d.refresh()
	d.viewport.GotoTop()
}

// Panel returns the panel being shown.
func (d DetailPane) Panel() model.PanelState { return d.panel }

// SetLoading shows or hides the loading line. It returns the spinner tick
// when loading starts.
func (d *DetailPane) SetLoading(loading bool, partID string) tea.Cmd {
	started := loading && !d.loading
	d.loading = loading
	d.loadingID = partID
	if started {
		return d.spinner.Tick
	}
	return nil
}

// Loading reports whether a fetch cycle is in flight.
func (d DetailPane) Loading() bool { return d.loading }

// Update advances the spinner and scrolls the viewport.
func (d DetailPane) Update(msg tea.Msg) (DetailPane, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !d.loading {
			return d, nil
		}
		var cmd tea.Cmd
		d.spinner, cmd = d.spinner.Update(msg)
		return d, cmd
	default:
		var cmd tea.Cmd
		d.viewport, cmd = d.viewport.Update(msg)
		return d, cmd
	}
}

func (d *DetailPane) ScrollUp() { d.viewport.HalfViewUp() }

func (d *DetailPane) ScrollDown() { d.viewport.HalfViewDown() }

func (d *DetailPane) refresh() {
	d.renderedAt = d.width
	if d.panel.IsEmpty() {
		d.rendered = ""
		d.viewport.SetContent("")
		return
	}
	if d.md != nil {
		d.md.setWidth(d.width)
	}

	var sb strings.Builder
	if sum, ok := SummarizeDemand(d.panel.History); ok {
		sb.WriteString(d.theme.SparklineText.Render(RenderSparkline(d.panel.History)))
		sb.WriteString("  ")
		sb.WriteString(d.theme.MutedText.Render(sum.String()))
		sb.WriteString("\n")
	}
	md := d.panel.Markdown()
	if d.md != nil {
		md = d.md.render(md)
	}
	sb.WriteString(md)

	d.rendered = sb.String()
	d.viewport.SetContent(d.rendered)
}

// View renders the pane contents without a border.
func (d DetailPane) View() string {
	t := d.theme
	var status string
	switch {
	case d.loading:
		status = d.spinner.View() + " " + t.MutedText.Render(truncate("Loading "+d.loadingID+"…", d.width-2))
	case d.panel.IsEmpty():
		status = t.MutedText.Render("Select a part to see its suppliers, risk and forecast.")
	default:
		status = t.PrimaryBold.Render(truncate(d.panel.Part, d.width))
	}
	return status + "\n" + d.viewport.View()
}
