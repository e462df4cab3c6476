package ui

import (
	"github.com/vanderheijden86/chainview/pkg/explore"
	"github.com/vanderheijden86/chainview/pkg/model"
)

// renderSink queues the session's renderer instructions so the Model can
// apply them to its own (value) state after each session call.
type renderSink struct {
	events []any
}

var _ explore.Renderer = (*renderSink)(nil)

type (
	graphReadyEvent   struct{ graph *model.Graph }
	panelEvent        struct{ panel model.PanelState }
	conversationEvent struct{ state model.ConversationState }
	viewModeEvent     struct{ mode model.ViewMode }
	focusEvent        struct{ id string }
	failureEvent      struct{ err error }
)

func (s *renderSink) GraphReady(g *model.Graph) {
	s.events = append(s.events, graphReadyEvent{g})
}

func (s *renderSink) PanelChanged(p model.PanelState) {
	s.events = append(s.events, panelEvent{p})
}

func (s *renderSink) ConversationChanged(c model.ConversationState) {
	s.events = append(s.events, conversationEvent{c})
}

func (s *renderSink) ViewModeChanged(mode model.ViewMode) {
	s.events = append(s.events, viewModeEvent{mode})
}

func (s *renderSink) FocusNode(id string) {
	s.events = append(s.events, focusEvent{id})
}

func (s *renderSink) Failure(err error) {
	s.events = append(s.events, failureEvent{err})
}

// take returns the queued events in emission order and empties the queue.
func (s *renderSink) take() []any {
	out := s.events
	s.events = nil
	return out
}
