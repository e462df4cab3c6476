package explore

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/chainview/pkg/debug"
	"github.com/vanderheijden86/chainview/pkg/graph"
	"github.com/vanderheijden86/chainview/pkg/metrics"
	"github.com/vanderheijden86/chainview/pkg/model"
)

// DefaultTimeout bounds each request issued by a Session.
const DefaultTimeout = 30 * time.Second

// Session wires the controllers together and is the only thing the UI talks
// to. It is not safe for concurrent use: every method must be called from
// the goroutine running the bubbletea program. The commands it returns may
// run anywhere; they only touch the Source.
type Session struct {
	src Source
	r   Renderer

	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	initial model.ViewMode
	newID   func() string

	graph   *model.Graph
	loadGen uint64
	fatal   error

	detail *DetailCoordinator
	view   *ViewModeController
	conv   *ConversationController
}

// Option configures a Session.
type Option func(*Session)

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithContext sets the parent context of every request.
func WithContext(ctx context.Context) Option {
	return func(s *Session) { s.ctx = ctx }
}

// WithInitialView sets the view mode the session starts in.
func WithInitialView(mode model.ViewMode) Option {
	return func(s *Session) { s.initial = mode }
}

// WithCycleIDs replaces the fetch-cycle correlation id generator.
func WithCycleIDs(fn func() string) Option {
	return func(s *Session) { s.newID = fn }
}

// New creates a session reading from src and reporting to r. A nil renderer
// is replaced with NopRenderer.
func New(src Source, r Renderer, opts ...Option) *Session {
	if r == nil {
		r = NopRenderer{}
	}
	s := &Session{
		src:     src,
		r:       r,
		ctx:     context.Background(),
		timeout: DefaultTimeout,
		initial: model.ViewDetail,
		newID:   newCycleID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(s.ctx)

	s.detail = NewDetailCoordinator(src, s.timeout)
	s.detail.base = s.ctx
	s.detail.newID = s.newID

	s.conv = NewConversationController(src, s.timeout)
	s.conv.base = s.ctx

	s.view = NewViewModeController(s.initial)
	return s
}

// Load starts a full graph load. Only the most recently started load is
// applied when several overlap.
func (s *Session) Load() tea.Cmd {
	s.loadGen++
	gen := s.loadGen
	ctx, src, timeout := s.ctx, s.src, s.timeout

	return func() tea.Msg {
		defer metrics.Timer(metrics.GraphLoad)()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		rows, err := src.FetchAllRelationships(ctx)
		if err != nil {
			metrics.GraphLoad.RecordFailure()
		}
		return GraphLoadedMsg{Gen: gen, Rows: rows, Err: err}
	}
}

// Reload replaces the graph with a fresh load. A failed reload keeps the
// current graph.
func (s *Session) Reload() tea.Cmd {
	debug.Log("graph reload requested")
	return s.Load()
}

// Select handles a node selection from the graph view. Supplier nodes are
// leaves and are ignored. Choosing a different part than the current one
// starts a new conversation.
func (s *Session) Select(id string, kind model.NodeKind) tea.Cmd {
	if kind != model.KindPart {
		return nil
	}
	if id != s.detail.Selected() {
		s.conv.Reset()
		s.view.SetConversationLoading(false)
		s.r.ConversationChanged(s.conv.State())
	}
	cmd := s.detail.Select(id, kind)
	s.view.SetDetailLoading(s.detail.Loading())
	return cmd
}

// SwitchView asks for a view change. It returns an error wrapping
// ErrSwitchBlocked when the other view has an operation in flight.
func (s *Session) SwitchView(mode model.ViewMode) error {
	changed, err := s.view.SwitchTo(mode)
	if err != nil {
		return err
	}
	if changed {
		s.r.ViewModeChanged(mode)
	}
	return nil
}

// CanSwitch reports whether SwitchView(mode) would currently succeed.
func (s *Session) CanSwitch(mode model.ViewMode) bool { return s.view.CanSwitch(mode) }

// Submit sends a conversation message about the selected part. Blank input
// and submissions while a reply is pending are ignored.
func (s *Session) Submit(text string) tea.Cmd {
	cmd := s.conv.Submit(text, s.detail.Selected())
	if cmd == nil {
		return nil
	}
	s.view.SetConversationLoading(true)
	s.r.ConversationChanged(s.conv.State())
	return cmd
}

// Update applies a completion message. Messages it does not own are ignored.
// The returned command is tea.Quit when the graph input was malformed.
func (s *Session) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case GraphLoadedMsg:
		return s.applyGraph(msg)
	case DetailCycleMsg:
		s.applyDetail(msg)
	case ConversationReplyMsg:
		s.applyReply(msg)
	}
	return nil
}

func (s *Session) applyGraph(msg GraphLoadedMsg) tea.Cmd {
	if msg.Gen != s.loadGen {
		debug.Log("graph load %d discarded (current %d)", msg.Gen, s.loadGen)
		return nil
	}
	if msg.Err != nil {
		if s.graph == nil {
			s.graph = model.EmptyGraph()
			s.r.GraphReady(s.graph)
		}
		s.r.Failure(fmt.Errorf("loading graph: %w", msg.Err))
		return nil
	}

	g, err := graph.Build(msg.Rows)
	if err != nil {
		s.fatal = fmt.Errorf("building graph: %w", err)
		s.r.Failure(s.fatal)
		return tea.Quit
	}
	s.graph = g
	stats := g.Stats()
	debug.Log("graph ready: %d parts, %d suppliers, %d links", stats.Parts, stats.Suppliers, stats.Links)
	s.r.GraphReady(g)
	return nil
}

func (s *Session) applyDetail(msg DetailCycleMsg) {
	outcome, err := s.detail.Complete(msg)
	if outcome == DetailStale {
		return
	}
	s.view.SetDetailLoading(false)

	if outcome == DetailFailed {
		s.r.Failure(err)
		return
	}
	s.r.PanelChanged(s.detail.Panel())
	if err := s.SwitchView(model.ViewDetail); err != nil {
		debug.Log("staying in %s view: %v", s.view.Mode(), err)
	}
	s.r.FocusNode(msg.PartID)
}

func (s *Session) applyReply(msg ConversationReplyMsg) {
	if s.conv.Complete(msg) == ConversationStale {
		return
	}
	s.view.SetConversationLoading(false)
	s.r.ConversationChanged(s.conv.State())
	if s.conv.Settle() {
		s.r.ConversationChanged(s.conv.State())
	}
}

// Stop cancels every in-flight request. Late completions are still safe to
// pass to Update.
func (s *Session) Stop() {
	s.detail.Stop()
	s.cancel()
}

// Graph returns the current graph, or nil before the first load completes.
func (s *Session) Graph() *model.Graph { return s.graph }

// Panel returns the detail panel of the last applied fetch cycle.
func (s *Session) Panel() model.PanelState { return s.detail.Panel() }

// Conversation returns a copy of the conversation state.
func (s *Session) Conversation() model.ConversationState { return s.conv.State() }

// ViewMode returns the visible view.
func (s *Session) ViewMode() model.ViewMode { return s.view.Mode() }

func (s *Session) DetailLoading() bool { return s.view.DetailLoading() }

func (s *Session) ConversationLoading() bool { return s.view.ConversationLoading() }

// Selected returns the id of the most recently selected part.
func (s *Session) Selected() string { return s.detail.Selected() }

// Fatal returns the input-contract violation that stopped the session, if any.
func (s *Session) Fatal() error { return s.fatal }
