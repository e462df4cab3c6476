// Package explore is the interaction and session engine behind the chainview
// terminal UI. It owns the relationship graph, the detail panel, the active
// view mode and the assistant conversation, and advances them only through
// named transitions driven from a single goroutine (the bubbletea event loop).
//
// Network work is expressed as tea.Cmd values whose completion messages are
// fed back through Session.Update. Completion messages carry the generation
// they were issued under so results from superseded requests are discarded.
package explore

import (
	"context"

	"github.com/vanderheijden86/chainview/pkg/model"
)

// GraphSource loads the full relationship table.
type GraphSource interface {
	FetchAllRelationships(ctx context.Context) ([]model.Relationship, error)
}

// DetailSource serves the three per-part resources of a fetch cycle.
type DetailSource interface {
	FetchPartDetail(ctx context.Context, partID string) (model.Relationship, error)
	FetchRisk(ctx context.Context, partID string) (model.RiskSummary, error)
	FetchForecast(ctx context.Context, partID string) (model.Forecast, error)
}

// ConversationSource exchanges one assistant turn.
type ConversationSource interface {
	PostConversationMessage(ctx context.Context, req model.ConversationRequest) (model.ConversationReply, error)
}

// Source is everything the engine consumes from the transport.
type Source interface {
	GraphSource
	DetailSource
	ConversationSource
}

// Renderer receives the engine's outbound instructions. Calls happen on the
// goroutine that drives the Session.
type Renderer interface {
	GraphReady(g *model.Graph)
	PanelChanged(p model.PanelState)
	ConversationChanged(c model.ConversationState)
	ViewModeChanged(mode model.ViewMode)
	// FocusNode asks the renderer to bring a node into view. It is fire and
	// forget; nothing in the engine depends on it happening.
	FocusNode(id string)
	// Failure reports a graph-load or detail-cycle failure.
	Failure(err error)
}

// NopRenderer ignores every instruction.
type NopRenderer struct{}

func (NopRenderer) GraphReady(*model.Graph) {}
func (NopRenderer) PanelChanged(model.PanelState) {}
func (NopRenderer) ConversationChanged(model.ConversationState) {}
func (NopRenderer) ViewModeChanged(model.ViewMode) {}
func (NopRenderer) FocusNode(string) {}
func (NopRenderer) Failure(error) {}

type cycleIDKey struct{}

// ContextWithCycleID tags a context with the correlation id of a fetch cycle.
func ContextWithCycleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cycleIDKey{}, id)
}

// CycleIDFromContext returns the fetch-cycle correlation id, if any.
func CycleIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(cycleIDKey{}).(string)
	return id
}
