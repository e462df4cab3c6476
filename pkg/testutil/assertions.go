package testutil

import (
	"testing"

	"github.com/vanderheijden86/chainview/pkg/model"
)

// AssertNoDuplicateNodeIDs verifies all node ids in the graph are unique.
func AssertNoDuplicateNodeIDs(t *testing.T, g *model.Graph) {
	t.Helper()
	seen := make(map[string]bool, g.Len())
	for _, n := range g.Nodes {
		if seen[n.ID] {
			t.Errorf("duplicate node id: %s", n.ID)
		}
		seen[n.ID] = true
	}
}

// AssertLinkExists verifies that a part -> supplier link exists.
func AssertLinkExists(t *testing.T, g *model.Graph, part, supplier string) {
	t.Helper()
	for _, l := range g.Links {
		if l.Source == part && l.Target == supplier {
			return
		}
	}
	t.Errorf("expected link %s -> %s not found", part, supplier)
}

// DistinctIDs returns the number of distinct part and supplier ids across
// rows, counting an id once even if it appears as both.
func DistinctIDs(rows []model.Relationship) int {
	ids := make(map[string]struct{})
	for _, r := range rows {
		ids[r.Part] = struct{}{}
		for _, s := range r.Suppliers {
			ids[s] = struct{}{}
		}
	}
	return len(ids)
}

// LinkCount returns the number of supplier entries across rows.
func LinkCount(rows []model.Relationship) int {
	n := 0
	for _, r := range rows {
		n += len(r.Suppliers)
	}
	return n
}
