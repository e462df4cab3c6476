package explore

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanderheijden86/chainview/pkg/graph"
	"github.com/vanderheijden86/chainview/pkg/model"
)

func newTestSession(t *testing.T, src *fakeSource, opts ...Option) (*Session, *recorder) {
	t.Helper()
	r := &recorder{}
	s := New(src, r, append([]Option{WithTimeout(time.Second)}, opts...)...)
	t.Cleanup(s.Stop)
	return s, r
}

// loaded returns a session whose example graph has been applied.
func loaded(t *testing.T, src *fakeSource, opts ...Option) (*Session, *recorder) {
	t.Helper()
	s, r := newTestSession(t, src, opts...)
	require.Nil(t, s.Update(s.Load()()))
	require.Len(t, r.graphs, 1)
	return s, r
}

func TestSessionLoadBuildsGraph(t *testing.T) {
	s, r := loaded(t, newFakeSource())

	g := s.Graph()
	require.NotNil(t, g)
	assert.Equal(t, 4, g.Len())
	assert.Len(t, g.Links, 3)
	assert.Same(t, g, r.graphs[0])
	assert.Empty(t, r.failures)
}

func TestSessionLoadFailureLeavesEmptyGraph(t *testing.T) {
	src := newFakeSource()
	src.rowsErr = errors.New("connection refused")
	s, r := newTestSession(t, src)

	assert.Nil(t, s.Update(s.Load()()))

	require.Len(t, r.graphs, 1)
	assert.Equal(t, 0, r.graphs[0].Len())
	require.Len(t, r.failures, 1)
	assert.ErrorIs(t, r.failures[0], src.rowsErr)
	assert.NoError(t, s.Fatal())
}

func TestSessionReloadFailureKeepsGraph(t *testing.T) {
	src := newFakeSource()
	s, r := loaded(t, src)
	before := s.Graph()

	src.rowsErr = errors.New("timeout")
	s.Update(s.Reload()())

	assert.Same(t, before, s.Graph())
	assert.Len(t, r.graphs, 1, "failed reload must not re-emit a graph")
	assert.Len(t, r.failures, 1)
}

func TestSessionMalformedRowsAreFatal(t *testing.T) {
	src := newFakeSource()
	src.rows = []model.Relationship{{Part: "P1", Name: "", Suppliers: []string{"S1"}}}
	s, r := newTestSession(t, src)

	cmd := s.Update(s.Load()())

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	var inputErr *graph.InputError
	require.ErrorAs(t, s.Fatal(), &inputErr)
	assert.Equal(t, "name", inputErr.Field)
	assert.Empty(t, r.graphs, "no partial graph may be shown")
	assert.Nil(t, s.Graph())
}

func TestSessionOverlappingLoadsApplyLatestOnly(t *testing.T) {
	src := newFakeSource()
	s, r := newTestSession(t, src)

	first := s.Load()
	second := s.Load()
	s.Update(second())
	s.Update(first())

	assert.Len(t, r.graphs, 1)
}

func TestSelectSupplierIsNoop(t *testing.T) {
	s, r := loaded(t, newFakeSource())

	cmd := s.Select("S1", model.KindSupplier)

	assert.Nil(t, cmd)
	assert.False(t, s.DetailLoading())
	assert.False(t, s.ConversationLoading())
	assert.True(t, s.Panel().IsEmpty())
	assert.Empty(t, s.Selected())
	assert.Empty(t, r.convs)
}

func TestSelectAppliesPanelAndFocuses(t *testing.T) {
	s, r := loaded(t, newFakeSource())

	cmd := s.Select("P1", model.KindPart)
	require.NotNil(t, cmd)
	assert.True(t, s.DetailLoading())

	s.Update(cmd())

	assert.False(t, s.DetailLoading())
	want := model.PanelState{
		Part:      "P1",
		Name:      "Widget",
		Suppliers: []string{"S1", "S2"},
		Risk:      "risk for P1",
		History:   []float64{10, 12, 11},
		Forecast:  "forecast for P1",
	}
	assert.Equal(t, want, s.Panel())
	require.Len(t, r.panels, 1)
	assert.Equal(t, want, r.panels[0])
	assert.Equal(t, []string{"P1"}, r.focus)
}

func TestStaleCycleIsDiscarded(t *testing.T) {
	s, r := loaded(t, newFakeSource())

	cycleA := s.Select("P1", model.KindPart)
	cycleB := s.Select("P2", model.KindPart)

	// B resolves first, then the slower A.
	s.Update(cycleB())
	s.Update(cycleA())

	assert.Equal(t, "P2", s.Panel().Part)
	assert.Equal(t, "Gadget", s.Panel().Name)
	require.Len(t, r.panels, 1)
	assert.Equal(t, "P2", r.panels[0].Part)
	assert.False(t, s.DetailLoading())
}

func TestStaleCycleDoesNotClearLoading(t *testing.T) {
	s, _ := loaded(t, newFakeSource())

	cycleA := s.Select("P1", model.KindPart)
	cycleB := s.Select("P2", model.KindPart)

	s.Update(cycleA())
	assert.True(t, s.DetailLoading(), "B is still in flight")
	assert.True(t, s.Panel().IsEmpty())

	s.Update(cycleB())
	assert.False(t, s.DetailLoading())
}

func TestReselectingSamePartSupersedesEarlierCycle(t *testing.T) {
	src := newFakeSource()
	s, r := loaded(t, src)

	first := s.Select("P1", model.KindPart)
	second := s.Select("P1", model.KindPart)

	s.Update(first())
	assert.Empty(t, r.panels)
	s.Update(second())
	assert.Len(t, r.panels, 1)
}

func TestDetailFailureLeavesPanelUnchanged(t *testing.T) {
	src := newFakeSource()
	s, r := loaded(t, src)
	s.Update(s.Select("P1", model.KindPart)())
	before := s.Panel()

	src.riskErr = errors.New("risk service down")
	s.Update(s.Select("P2", model.KindPart)())

	assert.Equal(t, before, s.Panel())
	assert.False(t, s.DetailLoading())
	require.Len(t, r.failures, 1)
	assert.ErrorIs(t, r.failures[0], src.riskErr)
	assert.Contains(t, r.failures[0].Error(), "fetching risk for P2")
	assert.Len(t, r.panels, 1)
}

func TestDetailFailureCancelsSiblings(t *testing.T) {
	src := newFakeSource()
	src.riskErr = errors.New("boom")
	src.blockForecast = true
	s, _ := loaded(t, src, WithTimeout(0))

	cmd := s.Select("P1", model.KindPart)
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	select {
	case msg := <-done:
		cycle, ok := msg.(DetailCycleMsg)
		require.True(t, ok)
		assert.ErrorIs(t, cycle.Err, src.riskErr)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked forecast was not cancelled by the failing risk fetch")
	}
}

func TestStopCancelsInFlightCycle(t *testing.T) {
	src := newFakeSource()
	src.blockForecast = true
	s, r := loaded(t, src, WithTimeout(0))

	cmd := s.Select("P1", model.KindPart)
	s.Stop()
	s.Update(cmd())

	require.Len(t, r.failures, 1)
	assert.ErrorIs(t, r.failures[0], context.Canceled)
	assert.False(t, s.DetailLoading())
}

func TestCycleIDReachesEveryRequest(t *testing.T) {
	src := newFakeSource()
	s, _ := loaded(t, src, WithCycleIDs(func() string { return "cycle-7" }))

	msg := s.Select("P1", model.KindPart)()

	assert.Equal(t, "cycle-7", msg.(DetailCycleMsg).CycleID)
	assert.Equal(t, []string{"cycle-7", "cycle-7", "cycle-7"}, src.seenCycleIDs())
}

func TestDefaultCycleIDsAreUnique(t *testing.T) {
	s, _ := loaded(t, newFakeSource())

	a := s.Select("P1", model.KindPart)().(DetailCycleMsg)
	b := s.Select("P2", model.KindPart)().(DetailCycleMsg)

	assert.NotEmpty(t, a.CycleID)
	assert.NotEqual(t, a.CycleID, b.CycleID)
}

func TestSwitchToConversationBlockedWhileDetailLoading(t *testing.T) {
	s, r := loaded(t, newFakeSource())

	cmd := s.Select("P1", model.KindPart)

	assert.False(t, s.CanSwitch(model.ViewConversation))
	err := s.SwitchView(model.ViewConversation)
	require.ErrorIs(t, err, ErrSwitchBlocked)
	assert.Equal(t, model.ViewDetail, s.ViewMode())

	s.Update(cmd())

	assert.True(t, s.CanSwitch(model.ViewConversation))
	require.NoError(t, s.SwitchView(model.ViewConversation))
	assert.Equal(t, model.ViewConversation, s.ViewMode())
	assert.Equal(t, []model.ViewMode{model.ViewConversation}, r.modes)
}

func TestDetailSuccessSwitchesToDetail(t *testing.T) {
	s, r := loaded(t, newFakeSource(), WithInitialView(model.ViewConversation))

	s.Update(s.Select("P1", model.KindPart)())

	assert.Equal(t, model.ViewDetail, s.ViewMode())
	assert.Equal(t, []model.ViewMode{model.ViewDetail}, r.modes)
}

func TestDetailSuccessKeepsPendingConversationVisible(t *testing.T) {
	s, r := loaded(t, newFakeSource())
	s.Update(s.Select("P1", model.KindPart)())
	require.NoError(t, s.SwitchView(model.ViewConversation))

	chat := s.Submit("who supplies this?")
	require.NotNil(t, chat)
	s.Update(s.Select("P1", model.KindPart)())

	assert.Equal(t, model.ViewConversation, s.ViewMode())
	assert.Len(t, r.panels, 2, "the panel still updates in the background")

	s.Update(chat())
	assert.False(t, s.ConversationLoading())
	require.NoError(t, s.SwitchView(model.ViewDetail))
}

func TestSwitchToActiveModeIsNoop(t *testing.T) {
	s, r := loaded(t, newFakeSource())

	require.NoError(t, s.SwitchView(model.ViewDetail))
	assert.Empty(t, r.modes)
}

func TestNilRendererIsTolerated(t *testing.T) {
	s := New(newFakeSource(), nil)
	defer s.Stop()

	s.Update(s.Load()())
	s.Update(s.Select("P1", model.KindPart)())

	assert.Equal(t, "P1", s.Panel().Part)
}

func TestUpdateIgnoresForeignMessages(t *testing.T) {
	s, _ := loaded(t, newFakeSource())

	assert.Nil(t, s.Update(tea.KeyMsg{Type: tea.KeyEnter}))
	assert.Nil(t, s.Update(nil))
}
