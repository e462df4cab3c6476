package ui

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/chainview/pkg/explore"
	"github.com/vanderheijden86/chainview/pkg/model"
	"github.com/vanderheijden86/chainview/pkg/testutil"
)

type fakeSource struct {
	mu       sync.Mutex
	rows     []model.Relationship
	rowsErr  error
	chatErr  error
	requests []model.ConversationRequest
	loads    int
}

func newFakeSource() *fakeSource {
	return &fakeSource{rows: testutil.Example()}
}

func (f *fakeSource) String() string { return "fake" }

func (f *fakeSource) FetchAllRelationships(context.Context) ([]model.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.rows, f.rowsErr
}

func (f *fakeSource) FetchPartDetail(_ context.Context, id string) (model.Relationship, error) {
	for _, r := range testutil.Example() {
		if r.Part == id {
			return r, nil
		}
	}
	return model.Relationship{Part: id, Suppliers: []string{}}, nil
}

func (f *fakeSource) FetchRisk(_ context.Context, id string) (model.RiskSummary, error) {
	return model.RiskSummary{Text: "risk for " + id}, nil
}

func (f *fakeSource) FetchForecast(_ context.Context, id string) (model.Forecast, error) {
	return model.Forecast{History: []float64{10, 12, 11}, Forecast: "forecast for " + id}, nil
}

func (f *fakeSource) PostConversationMessage(_ context.Context, req model.ConversationRequest) (model.ConversationReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.chatErr != nil {
		return model.ConversationReply{}, f.chatErr
	}
	return model.ConversationReply{Reply: "Answer about " + req.PartID, SessionID: "sess-1"}, nil
}

var errBoom = errors.New("boom")

// newTestModel returns a sized model over src.
func newTestModel(t *testing.T, src *fakeSource, opts Options) Model {
	t.Helper()
	if opts.MarkdownStyle == "" {
		opts.MarkdownStyle = "notty"
	}
	if opts.Clipboard == nil {
		opts.Clipboard = func(string) error { return nil }
	}
	m := NewModel(src, opts)
	t.Cleanup(m.Stop)
	return update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
}

// loadedModel returns a model with the graph loaded.
func loadedModel(t *testing.T, src *fakeSource) Model {
	t.Helper()
	m := newTestModel(t, src, Options{})
	return update(t, m, m.Session().Load()())
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// press sends a key and returns the model and resulting command.
func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m, _ = press(t, m, string(r))
	}
	return m
}

// sessionMsgs runs cmd, expanding batches, and returns the completion
// messages addressed to the session. Leaf commands run concurrently; UI
// timers such as cursor blinks are dropped.
func sessionMsgs(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		if isSessionMsg(msg) {
			return []tea.Msg{msg}
		}
		return nil
	}

	results := make([][]tea.Msg, len(batch))
	var wg sync.WaitGroup
	for i, c := range batch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = sessionMsgs(c)
		}()
	}
	wg.Wait()

	var out []tea.Msg
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

func isSessionMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case explore.GraphLoadedMsg, explore.DetailCycleMsg, explore.ConversationReplyMsg:
		return true
	}
	return false
}

// settle feeds every session message produced by cmd back into the model.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range sessionMsgs(cmd) {
		m = update(t, m, msg)
	}
	return m
}
