package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/chainview/pkg/explore"
	"github.com/vanderheijden86/chainview/pkg/graph"
	"github.com/vanderheijden86/chainview/pkg/model"
)

// ExportOptions controls ExportSnapshot.
type ExportOptions struct {
	// Concurrency bounds the per-part fetches in flight (default 4).
	Concurrency int
	// Now anchors the synthesized week_start dates (default time.Now).
	Now time.Time
	// Progress, if set, is called after each part is fetched.
	Progress func(done, total int)
}

type partExport struct {
	row      model.Relationship
	risk     model.RiskSummary
	forecast model.Forecast
}

// ExportSnapshot copies everything src serves into a new SQLite snapshot at
// path. The backend only returns demand quantities, so week_start values are
// synthesized as consecutive Mondays ending at the current week.
func ExportSnapshot(ctx context.Context, src explore.Source, path string, opts ExportOptions) error {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("snapshot %s already exists", path)
	}

	rows, err := src.FetchAllRelationships(ctx)
	if err != nil {
		return fmt.Errorf("fetching relationships: %w", err)
	}
	// Refuse to persist input the explorer would reject.
	if _, err := graph.Build(rows); err != nil {
		return err
	}

	parts := make([]partExport, len(rows))
	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i, row := range rows {
		g.Go(func() error {
			risk, err := src.FetchRisk(gctx, row.Part)
			if err != nil {
				return fmt.Errorf("fetching risk for %s: %w", row.Part, err)
			}
			fc, err := src.FetchForecast(gctx, row.Part)
			if err != nil {
				return fmt.Errorf("fetching forecast for %s: %w", row.Part, err)
			}
			parts[i] = partExport{row: row, risk: risk, forecast: fc}

			mu.Lock()
			defer mu.Unlock()
			done++
			if opts.Progress != nil {
				opts.Progress(done, len(rows))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return writeSnapshot(ctx, path, parts, mondayOf(opts.Now))
}

func writeSnapshot(ctx context.Context, path string, parts []partExport, lastWeek time.Time) (err error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// A part may appear in several rows; its suppliers keep accumulating.
	positions := make(map[string]int)
	for _, p := range parts {
		if _, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO parts (part_id, part_name) VALUES (?, ?)`, p.row.Part, p.row.Name); err != nil {
			return fmt.Errorf("inserting part %s: %w", p.row.Part, err)
		}
		for _, supplier := range p.row.Suppliers {
			pos := positions[p.row.Part]
			positions[p.row.Part]++
			if _, err = tx.ExecContext(ctx, `INSERT INTO supplied_by (part_id, supplier, position) VALUES (?, ?, ?)`, p.row.Part, supplier, pos); err != nil {
				return fmt.Errorf("inserting supplier %s of %s: %w", supplier, p.row.Part, err)
			}
		}
		n := len(p.forecast.History)
		for i, qty := range p.forecast.History {
			week := lastWeek.AddDate(0, 0, -7*(n-1-i)).Format(time.DateOnly)
			if _, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO part_demand (part_id, week_start, qty) VALUES (?, ?, ?)`, p.row.Part, week, qty); err != nil {
				return fmt.Errorf("inserting demand for %s: %w", p.row.Part, err)
			}
		}
		if _, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO part_risk (part_id, text) VALUES (?, ?)`, p.row.Part, p.risk.Text); err != nil {
			return fmt.Errorf("inserting risk for %s: %w", p.row.Part, err)
		}
		if _, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO part_forecast (part_id, text) VALUES (?, ?)`, p.row.Part, p.forecast.Forecast); err != nil {
			return fmt.Errorf("inserting forecast for %s: %w", p.row.Part, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

func mondayOf(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}
