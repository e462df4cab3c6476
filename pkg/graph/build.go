// Package graph assembles the part/supplier relationship graph from the flat
// rows returned by a full load.
package graph

import (
	"fmt"

	"github.com/vanderheijden86/chainview/pkg/metrics"
	"github.com/vanderheijden86/chainview/pkg/model"
)

// InputError reports a row that violates the full-load input contract.
// A graph with silently skipped rows would hide parts or suppliers from the
// user, so Build refuses to return one.
type InputError struct {
	Row   int    // zero-based row index
	Field string // "part", "name", "suppliers" or "suppliers[i]"
	Part  string // part id of the row, if present
}

func (e *InputError) Error() string {
	if e.Part != "" {
		return fmt.Sprintf("malformed relationship row %d (part %q): missing %s", e.Row, e.Part, e.Field)
	}
	return fmt.Sprintf("malformed relationship row %d: missing %s", e.Row, e.Field)
}

// Build turns relationship rows into a deduplicated graph.
//
// Parts and suppliers share one id namespace and the first occurrence of an
// id decides its kind and display name. Every supplier entry produces a link,
// including repeats. Node order is discovery order so identical input renders
// identically across reloads.
func Build(rows []model.Relationship) (*model.Graph, error) {
	defer metrics.Timer(metrics.GraphBuild)()

	seen := make(map[string]struct{})
	var nodes []model.Node
	var links []model.Link

	addNode := func(n model.Node) {
		if _, ok := seen[n.ID]; ok {
			return
		}
		seen[n.ID] = struct{}{}
		nodes = append(nodes, n)
	}

	for i, row := range rows {
		if err := validateRow(i, row); err != nil {
			return nil, err
		}
		addNode(model.Node{ID: row.Part, Kind: model.KindPart, DisplayName: row.Name})
		for _, s := range row.Suppliers {
			addNode(model.Node{ID: s, Kind: model.KindSupplier, DisplayName: s})
			links = append(links, model.Link{Source: row.Part, Target: s})
		}
	}

	return model.NewGraph(nodes, links), nil
}

func validateRow(i int, row model.Relationship) error {
	switch {
	case row.Part == "":
		return &InputError{Row: i, Field: "part"}
	case row.Name == "":
		return &InputError{Row: i, Field: "name", Part: row.Part}
	case row.Suppliers == nil:
		return &InputError{Row: i, Field: "suppliers", Part: row.Part}
	}
	for j, s := range row.Suppliers {
		if s == "" {
			return &InputError{Row: i, Field: fmt.Sprintf("suppliers[%d]", j), Part: row.Part}
		}
	}
	return nil
}
