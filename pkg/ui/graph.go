package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/chainview/pkg/model"
)

// GraphRow is one visible line of the graph pane: a part, or a supplier
// nested under the part it supplies.
type GraphRow struct {
	ID     string
	Kind   model.NodeKind
	Name   string
	Parent string // owning part for supplier rows
}

// GraphPane lists parts with their suppliers nested beneath. The selection
// cursor is independent of the part whose detail is open.
type GraphPane struct {
	graph        *model.Graph
	rows         []GraphRow
	cursor       int
	scrollOffset int
	width        int
	height       int
	theme        Theme

	filter    textinput.Model
	filtering bool

	// active is the part whose detail panel is shown.
	active string
}

// NewGraphPane creates an empty graph pane.
func NewGraphPane(theme Theme) GraphPane {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter parts and suppliers"
	ti.CharLimit = 64
	return GraphPane{theme: theme, filter: ti, graph: model.EmptyGraph()}
}

// SetGraph replaces the graph, keeping the cursor on the same row if it
// still exists.
func (g *GraphPane) SetGraph(graph *model.Graph) {
	prev, hadPrev := g.Current()
	if graph == nil {
		graph = model.EmptyGraph()
	}
	g.graph = graph
	g.rebuild()
	if hadPrev {
		g.moveTo(prev.ID, prev.Parent)
	}
}

// SetSize sets the inner dimensions.
func (g *GraphPane) SetSize(width, height int) {
	g.width, g.height = width, height
	g.filter.Width = max(width-2, 1)
	g.clampScroll()
}

// SetActive marks the part whose detail is open.
func (g *GraphPane) SetActive(id string) { g.active = id }

// Rows returns the visible rows.
func (g GraphPane) Rows() []GraphRow { return g.rows }

// Current returns the row under the cursor.
func (g GraphPane) Current() (GraphRow, bool) {
	if g.cursor < 0 || g.cursor >= len(g.rows) {
		return GraphRow{}, false
	}
	return g.rows[g.cursor], true
}

// Filtering reports whether the filter input has focus.
func (g GraphPane) Filtering() bool { return g.filtering }

// FilterText returns the applied filter.
func (g GraphPane) FilterText() string { return strings.TrimSpace(g.filter.Value()) }

func (g *GraphPane) MoveUp() { g.setCursor(g.cursor - 1) }

func (g *GraphPane) MoveDown() { g.setCursor(g.cursor + 1) }

func (g *GraphPane) Top() { g.setCursor(0) }

func (g *GraphPane) Bottom() { g.setCursor(len(g.rows) - 1) }

// StartFilter focuses the filter input.
func (g *GraphPane) StartFilter() {
	g.filtering = true
	g.filter.Focus()
}

// StopFilter blurs the filter input. With clear set the filter is dropped.
func (g *GraphPane) StopFilter(clear bool) {
	g.filtering = false
	g.filter.Blur()
	if clear {
		g.SetFilter("")
	}
}

// SetFilter applies a filter and rebuilds the rows.
func (g *GraphPane) SetFilter(text string) {
	prev, hadPrev := g.Current()
	g.filter.SetValue(text)
	g.rebuild()
	if hadPrev {
		g.moveTo(prev.ID, prev.Parent)
	}
}

// UpdateFilter forwards a key to the filter input and refilters.
func (g *GraphPane) UpdateFilter(msg tea.Msg) {
	before := g.filter.Value()
	g.filter, _ = g.filter.Update(msg)
	if g.filter.Value() != before {
		g.rebuild()
		g.setCursor(0)
	}
}

// FocusNode moves the cursor to the node and centers it. A filter that hides
// the node is cleared. It reports whether the node exists.
func (g *GraphPane) FocusNode(id string) bool {
	if _, ok := g.graph.Node(id); !ok {
		return false
	}
	if !g.moveTo(id, "") {
		g.StopFilter(true)
		if !g.moveTo(id, "") {
			return false
		}
	}
	g.scrollOffset = g.cursor - g.listHeight()/2
	g.clampScroll()
	return true
}

// moveTo places the cursor on the row for id, preferring the row under
// parent. Parts match on id alone.
func (g *GraphPane) moveTo(id, parent string) bool {
	fallback := -1
	for i, r := range g.rows {
		if r.ID != id {
			continue
		}
		if r.Parent == parent {
			g.setCursor(i)
			return true
		}
		if fallback < 0 {
			fallback = i
		}
	}
	if fallback >= 0 {
		g.setCursor(fallback)
		return true
	}
	return false
}

func (g *GraphPane) setCursor(i int) {
	if len(g.rows) == 0 {
		g.cursor, g.scrollOffset = 0, 0
		return
	}
	g.cursor = min(max(i, 0), len(g.rows)-1)
	if g.cursor < g.scrollOffset {
		g.scrollOffset = g.cursor
	}
	if h := g.listHeight(); h > 0 && g.cursor >= g.scrollOffset+h {
		g.scrollOffset = g.cursor - h + 1
	}
	g.clampScroll()
}

func (g *GraphPane) clampScroll() {
	maxOffset := max(len(g.rows)-g.listHeight(), 0)
	g.scrollOffset = min(max(g.scrollOffset, 0), maxOffset)
}

// listHeight is the number of row lines, leaving room for the filter line
// and the hover line.
func (g GraphPane) listHeight() int {
	return max(g.height-2, 1)
}

func (g *GraphPane) rebuild() {
	query := strings.ToLower(g.FilterText())
	matches := func(n model.Node) bool {
		return query == "" ||
			strings.Contains(strings.ToLower(n.ID), query) ||
			strings.Contains(strings.ToLower(n.DisplayName), query)
	}

	var rows []GraphRow
	for _, part := range g.graph.Parts() {
		partMatches := matches(part)
		var nested []GraphRow
		for _, sid := range g.graph.SuppliersOf(part.ID) {
			sup, ok := g.graph.Node(sid)
			if !ok {
				sup = model.Node{ID: sid, Kind: model.KindSupplier, DisplayName: sid}
			}
			if partMatches || matches(sup) {
				nested = append(nested, GraphRow{ID: sid, Kind: model.KindSupplier, Name: sup.DisplayName, Parent: part.ID})
			}
		}
		if !partMatches && len(nested) == 0 {
			continue
		}
		rows = append(rows, GraphRow{ID: part.ID, Kind: model.KindPart, Name: part.DisplayName})
		rows = append(rows, nested...)
	}
	g.rows = rows
	g.setCursor(g.cursor)
}

// Hover describes the row under the cursor: a part's supplier count or the
// parts a supplier supplies.
func (g GraphPane) Hover() string {
	row, ok := g.Current()
	if !ok {
		return ""
	}
	if row.Kind == model.KindSupplier {
		parts := g.graph.PartsSuppliedBy(row.ID)
		return fmt.Sprintf("%s supplies %d part(s): %s", row.ID, len(parts), joinIDs(parts, 6))
	}
	return fmt.Sprintf("%s has %d supplier(s)", row.ID, len(g.graph.SuppliersOf(row.ID)))
}

// View renders the pane contents without a border.
func (g GraphPane) View() string {
	t := g.theme
	var lines []string

	switch {
	case g.filtering:
		lines = append(lines, g.filter.View())
	case g.FilterText() != "":
		lines = append(lines, t.MutedText.Render(truncate("filter: "+g.FilterText(), g.width)))
	default:
		s := g.graph.Stats()
		lines = append(lines, t.MutedText.Render(truncate(
			fmt.Sprintf("%d parts · %d suppliers", s.Parts, s.Suppliers), g.width)))
	}

	if len(g.rows) == 0 {
		msg := "No parts loaded"
		if g.FilterText() != "" {
			msg = "No matches"
		}
		lines = append(lines, t.MutedText.Render(msg))
		return strings.Join(lines, "\n")
	}

	end := min(g.scrollOffset+g.listHeight(), len(g.rows))
	for i := g.scrollOffset; i < end; i++ {
		lines = append(lines, g.renderRow(g.rows[i], i == g.cursor))
	}
	for i := end - g.scrollOffset; i < g.listHeight(); i++ {
		lines = append(lines, "")
	}
	lines = append(lines, t.InfoText.Render(truncate(g.Hover(), g.width)))
	return strings.Join(lines, "\n")
}

func (g GraphPane) renderRow(r GraphRow, selected bool) string {
	t := g.theme
	marker := "  "
	if r.Kind == model.KindPart && r.ID == g.active {
		marker = "● "
	}

	var label string
	if r.Kind == model.KindPart {
		label = r.ID
		if r.Name != "" && r.Name != r.ID {
			label += " " + r.Name
		}
	} else {
		label = "└ " + r.ID
	}

	// Leave a cell for the selection border.
	text := padRight(truncate(marker+label, g.width-1), g.width-1)
	if selected {
		return t.Selected.Render(text)
	}
	return " " + t.KindStyle(r.Kind).Render(text)
}
