package ui

import (
	"testing"

	"github.com/vanderheijden86/chainview/pkg/graph"
	"github.com/vanderheijden86/chainview/pkg/model"
	"github.com/vanderheijden86/chainview/pkg/testutil"
)

func buildGraph(t *testing.T, rows []model.Relationship) *model.Graph {
	t.Helper()
	g, err := graph.Build(rows)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestGraphPane_FocusNodeCenters(t *testing.T) {
	rows := testutil.NewDefault().SharedSupplier(40)
	pane := NewGraphPane(TestTheme())
	pane.SetSize(40, 12)
	pane.SetGraph(buildGraph(t, rows))

	target := rows[30].Part
	if !pane.FocusNode(target) {
		t.Fatalf("FocusNode(%s) = false", target)
	}
	row, _ := pane.Current()
	if row.ID != target || row.Kind != model.KindPart {
		t.Errorf("cursor on %+v, want part %s", row, target)
	}
	// Each part has one nested supplier row, so part 30 is row 60.
	if want := 60 - pane.listHeight()/2; pane.scrollOffset != want {
		t.Errorf("scrollOffset = %d, want %d", pane.scrollOffset, want)
	}
}

func TestGraphPane_FocusNodeClearsHidingFilter(t *testing.T) {
	pane := NewGraphPane(TestTheme())
	pane.SetSize(40, 10)
	pane.SetGraph(buildGraph(t, testutil.Example()))
	pane.SetFilter("gadget")

	if !pane.FocusNode("P1") {
		t.Fatal("FocusNode(P1) = false")
	}
	if pane.FilterText() != "" {
		t.Error("filter hiding the focused node should be cleared")
	}
	if row, _ := pane.Current(); row.ID != "P1" {
		t.Errorf("cursor on %s", row.ID)
	}
	if pane.FocusNode("nope") {
		t.Error("unknown ids cannot be focused")
	}
}

func TestGraphPane_SetGraphKeepsCursor(t *testing.T) {
	pane := NewGraphPane(TestTheme())
	pane.SetSize(40, 10)
	pane.SetGraph(buildGraph(t, testutil.Example()))
	pane.Bottom() // S1 under P2

	// A reload that adds a part in front keeps the cursor on the same row.
	rows := append([]model.Relationship{{Part: "P0", Name: "Bracket", Suppliers: []string{"S9"}}}, testutil.Example()...)
	pane.SetGraph(buildGraph(t, rows))

	row, _ := pane.Current()
	if row.ID != "S1" || row.Parent != "P2" {
		t.Errorf("cursor on %+v, want S1 under P2", row)
	}
}

func TestGraphPane_Hover(t *testing.T) {
	pane := NewGraphPane(TestTheme())
	pane.SetSize(40, 10)
	if pane.Hover() != "" {
		t.Error("empty pane has nothing to describe")
	}
	pane.SetGraph(buildGraph(t, testutil.Example()))

	if got := pane.Hover(); got != "P1 has 2 supplier(s)" {
		t.Errorf("Hover() = %q", got)
	}
	pane.MoveDown()
	if got := pane.Hover(); got != "S1 supplies 2 part(s): P1, P2" {
		t.Errorf("Hover() = %q", got)
	}
}

func TestGraphPane_CursorClamps(t *testing.T) {
	pane := NewGraphPane(TestTheme())
	pane.SetSize(40, 10)
	pane.MoveDown()
	if _, ok := pane.Current(); ok {
		t.Error("empty pane has no current row")
	}

	pane.SetGraph(buildGraph(t, testutil.Example()))
	pane.MoveUp()
	if row, _ := pane.Current(); row.ID != "P1" {
		t.Errorf("cursor on %s after moving above the top", row.ID)
	}
	for i := 0; i < 10; i++ {
		pane.MoveDown()
	}
	if pane.cursor != len(pane.Rows())-1 {
		t.Errorf("cursor = %d, want last row", pane.cursor)
	}
}
