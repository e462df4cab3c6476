package explore

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/chainview/pkg/debug"
	"github.com/vanderheijden86/chainview/pkg/metrics"
	"github.com/vanderheijden86/chainview/pkg/model"
)

// DetailOutcome classifies how a completed fetch cycle was handled.
type DetailOutcome int

const (
	// DetailStale means a newer selection superseded the cycle; nothing changed.
	DetailStale DetailOutcome = iota
	// DetailApplied means the panel was replaced with the cycle's result.
	DetailApplied
	// DetailFailed means the cycle failed; the panel is unchanged.
	DetailFailed
)

func (o DetailOutcome) String() string {
	switch o {
	case DetailApplied:
		return "applied"
	case DetailFailed:
		return "failed"
	default:
		return "stale"
	}
}

// DetailCoordinator runs the detail/risk/forecast fetch cycle for the
// selected part and owns the panel state.
//
// Every selection starts a new generation. Only a completion carrying the
// current generation and the currently selected part id may touch the panel;
// anything older is dropped. Superseded cycles also have their context
// cancelled, but correctness does not depend on the transport honouring it.
type DetailCoordinator struct {
	src     DetailSource
	base    context.Context
	timeout time.Duration
	newID   func() string

	gen      uint64
	selected string
	loading  bool
	panel    model.PanelState
	cancel   context.CancelFunc
}

// NewDetailCoordinator creates a coordinator fetching from src. A zero
// timeout means requests are bounded only by the transport.
func NewDetailCoordinator(src DetailSource, timeout time.Duration) *DetailCoordinator {
	return &DetailCoordinator{
		src:     src,
		base:    context.Background(),
		timeout: timeout,
		newID:   newCycleID,
	}
}

func newCycleID() string {
	id, err := gonanoid.New(12)
	if err != nil {
		return ""
	}
	return id
}

// Select starts a fetch cycle for a part node. Selecting anything other than
// a part is a no-op and returns nil.
func (d *DetailCoordinator) Select(id string, kind model.NodeKind) tea.Cmd {
	if kind != model.KindPart {
		return nil
	}
	if d.cancel != nil {
		d.cancel()
	}

	d.gen++
	d.selected = id
	d.loading = true

	ctx, cancel := context.WithCancel(d.base)
	d.cancel = cancel

	gen := d.gen
	cycleID := d.newID()
	src, timeout := d.src, d.timeout
	debug.Log("detail cycle %d (%s) started for %s", gen, cycleID, id)

	return func() tea.Msg {
		ctx := ContextWithCycleID(ctx, cycleID)
		panel, err := fetchCycle(ctx, src, timeout, id)
		return DetailCycleMsg{Gen: gen, PartID: id, CycleID: cycleID, Panel: panel, Err: err}
	}
}

// fetchCycle issues the three requests concurrently and joins them. The first
// failure cancels the others and fails the whole cycle.
func fetchCycle(ctx context.Context, src DetailSource, timeout time.Duration, partID string) (model.PanelState, error) {
	defer metrics.Timer(metrics.DetailCycle)()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var (
		detail   model.Relationship
		risk     model.RiskSummary
		forecast model.Forecast
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if detail, err = src.FetchPartDetail(gctx, partID); err != nil {
			return fmt.Errorf("fetching detail for %s: %w", partID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if risk, err = src.FetchRisk(gctx, partID); err != nil {
			return fmt.Errorf("fetching risk for %s: %w", partID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if forecast, err = src.FetchForecast(gctx, partID); err != nil {
			return fmt.Errorf("fetching forecast for %s: %w", partID, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		metrics.DetailCycle.RecordFailure()
		return model.PanelState{}, err
	}

	return model.PanelState{
		Part:      partID,
		Name:      detail.Name,
		Suppliers: detail.Suppliers,
		Risk:      risk.Text,
		History:   forecast.History,
		Forecast:  forecast.Forecast,
	}, nil
}

// Complete applies a finished cycle. Stale completions return DetailStale
// and change nothing, including the loading flag, which still belongs to the
// newer cycle.
func (d *DetailCoordinator) Complete(msg DetailCycleMsg) (DetailOutcome, error) {
	if msg.Gen != d.gen || msg.PartID != d.selected {
		debug.Log("detail cycle %d for %s discarded (current %d for %s)", msg.Gen, msg.PartID, d.gen, d.selected)
		return DetailStale, nil
	}

	d.loading = false
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}

	if msg.Err != nil {
		return DetailFailed, msg.Err
	}
	d.panel = msg.Panel
	return DetailApplied, nil
}

// Stop cancels the in-flight cycle, if any.
func (d *DetailCoordinator) Stop() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

// Loading reports whether the current cycle is still in flight.
func (d *DetailCoordinator) Loading() bool { return d.loading }

// Selected returns the most recently selected part id.
func (d *DetailCoordinator) Selected() string { return d.selected }

// Generation returns the current cycle generation.
func (d *DetailCoordinator) Generation() uint64 { return d.gen }

// Panel returns the panel of the most recently applied cycle. Callers must
// not modify the returned slices.
func (d *DetailCoordinator) Panel() model.PanelState { return d.panel }
