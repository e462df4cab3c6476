package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/chainview/pkg/debug"
	"github.com/vanderheijden86/chainview/pkg/model"
)

// HistoryWeeks is how many of the most recent demand weeks a forecast carries.
const HistoryWeeks = 8

// Schema is the layout of a snapshot database.
const Schema = `
CREATE TABLE IF NOT EXISTS parts (
	part_id   TEXT PRIMARY KEY,
	part_name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS supplied_by (
	part_id  TEXT NOT NULL,
	supplier TEXT NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY (part_id, position)
);
CREATE TABLE IF NOT EXISTS part_demand (
	part_id    TEXT NOT NULL,
	week_start TEXT NOT NULL,
	qty        REAL NOT NULL,
	PRIMARY KEY (part_id, week_start)
);
CREATE TABLE IF NOT EXISTS part_risk (
	part_id TEXT PRIMARY KEY,
	text    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS part_forecast (
	part_id TEXT PRIMARY KEY,
	text    TEXT NOT NULL
);
`

// SnapshotSource serves a supply-chain snapshot from a read-only SQLite
// file. It has no assistant behind it.
type SnapshotSource struct {
	db   *sql.DB
	path string
}

// OpenSnapshot opens the SQLite snapshot at path for reading.
func OpenSnapshot(path string) (*SnapshotSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA cache_size = -16000", // 16MB cache
		"PRAGMA temp_store = MEMORY",
	} {
		if _, err := db.Exec(pragma); err != nil {
			debug.Log("snapshot %s: %s: %v", path, pragma, err)
		}
	}

	return newSnapshotSource(db, path), nil
}

func newSnapshotSource(db *sql.DB, path string) *SnapshotSource {
	return &SnapshotSource{db: db, path: path}
}

// Close closes the database connection
func (s *SnapshotSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SnapshotSource) String() string { return "snapshot " + filepath.Base(s.path) }

// Path returns the snapshot file path.
func (s *SnapshotSource) Path() string { return s.path }

// FetchAllRelationships returns every part that has at least one supplier,
// in insertion order, with suppliers in their recorded order.
func (s *SnapshotSource) FetchAllRelationships(ctx context.Context) ([]model.Relationship, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.part_id, p.part_name, sb.supplier
		FROM parts p
		JOIN supplied_by sb ON sb.part_id = p.part_id
		ORDER BY p.rowid, sb.position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	defer rows.Close()

	var out []model.Relationship
	index := make(map[string]int)
	for rows.Next() {
		var partID, name, supplier string
		if err := rows.Scan(&partID, &name, &supplier); err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}
		i, ok := index[partID]
		if !ok {
			i = len(out)
			index[partID] = i
			out = append(out, model.Relationship{Part: partID, Name: name, Suppliers: []string{}})
		}
		out[i].Suppliers = append(out[i].Suppliers, supplier)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating relationships: %w", err)
	}
	return out, nil
}

// FetchPartDetail returns the part's name and suppliers. An unknown part
// yields an empty name and no suppliers, matching the HTTP backend.
func (s *SnapshotSource) FetchPartDetail(ctx context.Context, partID string) (model.Relationship, error) {
	detail := model.Relationship{Part: partID, Suppliers: []string{}}

	err := s.db.QueryRowContext(ctx, `SELECT part_name FROM parts WHERE part_id = ?`, partID).Scan(&detail.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return detail, nil
	}
	if err != nil {
		return model.Relationship{}, fmt.Errorf("querying part %s: %w", partID, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT supplier FROM supplied_by WHERE part_id = ? ORDER BY position`, partID)
	if err != nil {
		return model.Relationship{}, fmt.Errorf("querying suppliers of %s: %w", partID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var supplier string
		if err := rows.Scan(&supplier); err != nil {
			return model.Relationship{}, fmt.Errorf("scanning supplier: %w", err)
		}
		detail.Suppliers = append(detail.Suppliers, supplier)
	}
	if err := rows.Err(); err != nil {
		return model.Relationship{}, fmt.Errorf("error iterating suppliers: %w", err)
	}
	return detail, nil
}

// FetchRisk returns the stored risk narrative, or empty text if none was recorded.
func (s *SnapshotSource) FetchRisk(ctx context.Context, partID string) (model.RiskSummary, error) {
	text, err := s.optionalText(ctx, `SELECT text FROM part_risk WHERE part_id = ?`, partID)
	if err != nil {
		return model.RiskSummary{}, fmt.Errorf("querying risk for %s: %w", partID, err)
	}
	return model.RiskSummary{Text: text}, nil
}

// FetchForecast returns the last HistoryWeeks weeks of demand, oldest first,
// and the stored forecast text.
func (s *SnapshotSource) FetchForecast(ctx context.Context, partID string) (model.Forecast, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT qty FROM (
			SELECT week_start, qty FROM part_demand
			WHERE part_id = ?
			ORDER BY week_start DESC
			LIMIT ?
		) ORDER BY week_start
	`, partID, HistoryWeeks)
	if err != nil {
		return model.Forecast{}, fmt.Errorf("querying demand for %s: %w", partID, err)
	}
	defer rows.Close()

	fc := model.Forecast{History: []float64{}}
	for rows.Next() {
		var qty float64
		if err := rows.Scan(&qty); err != nil {
			return model.Forecast{}, fmt.Errorf("scanning demand: %w", err)
		}
		fc.History = append(fc.History, qty)
	}
	if err := rows.Err(); err != nil {
		return model.Forecast{}, fmt.Errorf("error iterating demand: %w", err)
	}

	fc.Forecast, err = s.optionalText(ctx, `SELECT text FROM part_forecast WHERE part_id = ?`, partID)
	if err != nil {
		return model.Forecast{}, fmt.Errorf("querying forecast for %s: %w", partID, err)
	}
	return fc, nil
}

// PostConversationMessage always fails: snapshots have no assistant.
func (s *SnapshotSource) PostConversationMessage(context.Context, model.ConversationRequest) (model.ConversationReply, error) {
	return model.ConversationReply{}, ErrConversationUnavailable
}

func (s *SnapshotSource) optionalText(ctx context.Context, query, partID string) (string, error) {
	var text string
	err := s.db.QueryRowContext(ctx, query, partID).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return text, err
}
