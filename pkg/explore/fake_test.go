package explore

import (
	"context"
	"sync"

	"github.com/vanderheijden86/chainview/pkg/model"
	"github.com/vanderheijden86/chainview/pkg/testutil"
)

// fakeSource serves canned data. Detail requests run on errgroup goroutines,
// so everything it records is guarded.
type fakeSource struct {
	mu sync.Mutex

	rows    []model.Relationship
	rowsErr error

	riskErr       error
	forecastErr   error
	blockForecast bool

	chatErr  error
	replies  []model.ConversationReply
	requests []model.ConversationRequest
	cycleIDs []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{rows: testutil.Example()}
}

func (f *fakeSource) FetchAllRelationships(ctx context.Context) ([]model.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows, f.rowsErr
}

func (f *fakeSource) FetchPartDetail(ctx context.Context, partID string) (model.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cycleIDs = append(f.cycleIDs, CycleIDFromContext(ctx))
	for _, row := range f.rows {
		if row.Part == partID {
			return row, nil
		}
	}
	return model.Relationship{Part: partID, Name: "Unknown " + partID, Suppliers: []string{}}, nil
}

func (f *fakeSource) FetchRisk(ctx context.Context, partID string) (model.RiskSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cycleIDs = append(f.cycleIDs, CycleIDFromContext(ctx))
	if f.riskErr != nil {
		return model.RiskSummary{}, f.riskErr
	}
	return model.RiskSummary{Text: "risk for " + partID}, nil
}

func (f *fakeSource) FetchForecast(ctx context.Context, partID string) (model.Forecast, error) {
	f.mu.Lock()
	f.cycleIDs = append(f.cycleIDs, CycleIDFromContext(ctx))
	block, err := f.blockForecast, f.forecastErr
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return model.Forecast{}, ctx.Err()
	}
	if err != nil {
		return model.Forecast{}, err
	}
	return model.Forecast{History: []float64{10, 12, 11}, Forecast: "forecast for " + partID}, nil
}

func (f *fakeSource) PostConversationMessage(ctx context.Context, req model.ConversationRequest) (model.ConversationReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.chatErr != nil {
		return model.ConversationReply{}, f.chatErr
	}
	if len(f.replies) == 0 {
		return model.ConversationReply{Reply: "ok"}, nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func (f *fakeSource) sentRequests() []model.ConversationRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ConversationRequest(nil), f.requests...)
}

func (f *fakeSource) seenCycleIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cycleIDs...)
}

// recorder captures every renderer instruction in order.
type recorder struct {
	graphs   []*model.Graph
	panels   []model.PanelState
	convs    []model.ConversationState
	modes    []model.ViewMode
	focus    []string
	failures []error
}

func (r *recorder) GraphReady(g *model.Graph) { r.graphs = append(r.graphs, g) }
func (r *recorder) PanelChanged(p model.PanelState) { r.panels = append(r.panels, p) }
func (r *recorder) ConversationChanged(c model.ConversationState) { r.convs = append(r.convs, c) }
func (r *recorder) ViewModeChanged(m model.ViewMode) { r.modes = append(r.modes, m) }
func (r *recorder) FocusNode(id string) { r.focus = append(r.focus, id) }
func (r *recorder) Failure(err error) { r.failures = append(r.failures, err) }

func (r *recorder) lastConversation() model.ConversationState {
	if len(r.convs) == 0 {
		return model.ConversationState{}
	}
	return r.convs[len(r.convs)-1]
}
