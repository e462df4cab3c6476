package ui

import (
	"math"
	"strings"
	"testing"

	"github.com/vanderheijden86/chainview/pkg/model"
)

func TestSummarizeDemand(t *testing.T) {
	s, ok := SummarizeDemand([]float64{10, 12, 11})
	if !ok {
		t.Fatal("expected a summary")
	}
	if s.Weeks != 3 || s.Mean != 11 {
		t.Errorf("summary = %+v", s)
	}
	if math.Abs(s.StdDev-1) > 1e-9 {
		t.Errorf("StdDev = %v, want 1", s.StdDev)
	}
	if math.Abs(s.Trend-0.5) > 1e-9 {
		t.Errorf("Trend = %v, want 0.5", s.Trend)
	}
	if got := s.String(); got != "3 weeks · mean 11.0 · σ 1.0 · trend +0.5/wk" {
		t.Errorf("String() = %q", got)
	}

	one, _ := SummarizeDemand([]float64{7})
	if !math.IsNaN(one.StdDev) || one.Trend != 0 || one.String() != "1 week · mean 7" {
		t.Errorf("single week = %+v (%s)", one, one)
	}

	if _, ok := SummarizeDemand(nil); ok {
		t.Error("empty history has no summary")
	}
}

func TestRenderSparkline(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want string
	}{
		{"empty", nil, ""},
		{"rising", []float64{1, 2, 3}, "▁▄█"},
		{"flat", []float64{5, 5}, "▁▁"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderSparkline(tt.in); got != tt.want {
				t.Errorf("RenderSparkline(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDetailPane_Content(t *testing.T) {
	pane := NewDetailPane(TestTheme(), newMarkdownRenderer("notty"))
	pane.SetSize(60, 80)

	if !strings.Contains(pane.View(), "Select a part") {
		t.Error("empty pane should prompt for a selection")
	}

	pane.SetPanel(model.PanelState{
		Part:      "P1",
		Name:      "Widget",
		Suppliers: []string{"S1"},
		Risk:      "S1 is single-sourced.",
		History:   []float64{10, 12, 11},
		Forecast:  "Stable.",
	})
	view := pane.View()
	for _, want := range []string{"P1", "S1 is single-sourced.", "Week 3: 11", "trend +0.5/wk"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestDetailPane_SpinnerOnlyWhileLoading(t *testing.T) {
	pane := NewDetailPane(TestTheme(), nil)
	pane.SetSize(40, 10)

	if cmd := pane.SetLoading(true, "P1"); cmd == nil {
		t.Error("starting to load should start the spinner")
	}
	if cmd := pane.SetLoading(true, "P2"); cmd != nil {
		t.Error("spinner is already running")
	}
	if !strings.Contains(pane.View(), "Loading P2") {
		t.Errorf("view = %q", pane.View())
	}

	pane.SetLoading(false, "P2")
	tick := pane.spinner.Tick()
	if _, cmd := pane.Update(tick); cmd != nil {
		t.Error("spinner should stop ticking once loading ends")
	}
}

func TestChatPane_PendingBlocksInput(t *testing.T) {
	pane := NewChatPane(TestTheme(), nil)
	pane.SetSize(40, 12)
	pane.Focus()
	if !pane.Focused() {
		t.Fatal("idle chat should take focus")
	}

	pane.SetConversation(model.ConversationState{
		Messages: []model.Message{{From: model.FromUser, Text: "hi"}},
		Pending:  true,
		Phase:    model.PhasePending,
	})
	if pane.Focused() {
		t.Error("pending reply should blur the input")
	}
	if cmd := pane.Focus(); cmd != nil || pane.Focused() {
		t.Error("input must stay blurred while pending")
	}
	if !strings.Contains(pane.View(), "Assistant is typing") {
		t.Error("pending reply should be indicated")
	}
}

func TestChatPane_SessionInTitle(t *testing.T) {
	pane := NewChatPane(TestTheme(), nil)
	pane.SetSize(60, 12)
	pane.SetPart("P1")
	pane.SetConversation(model.ConversationState{
		Messages:  []model.Message{{From: model.FromUser, Text: "hi"}, {From: model.FromAssistant, Text: "hello"}},
		SessionID: "abc",
	})

	view := pane.View()
	for _, want := range []string{"Assistant · P1", "(session abc)", "You", "hello"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
