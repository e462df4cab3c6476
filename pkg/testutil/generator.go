// Package testutil provides deterministic fixture generators and assertions
// for supply-chain graph tests.
package testutil

import (
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/chainview/pkg/model"
)

// GeneratorConfig controls fixture generation.
type GeneratorConfig struct {
	Seed           int64  // Random seed for determinism (0 = 42)
	PartPrefix     string // Prefix for part ids (default "P")
	SupplierPrefix string // Prefix for supplier ids (default "S")
	HistoryWeeks   int    // Weeks of demand history per part (default 8)
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:           42,
		PartPrefix:     "P",
		SupplierPrefix: "S",
		HistoryWeeks:   8,
	}
}

// Generator creates relationship fixtures with various topologies.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	def := DefaultConfig()
	if cfg.Seed == 0 {
		cfg.Seed = def.Seed
	}
	if cfg.PartPrefix == "" {
		cfg.PartPrefix = def.PartPrefix
	}
	if cfg.SupplierPrefix == "" {
		cfg.SupplierPrefix = def.SupplierPrefix
	}
	if cfg.HistoryWeeks <= 0 {
		cfg.HistoryWeeks = def.HistoryWeeks
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

func (g *Generator) partID(i int) string     { return fmt.Sprintf("%s%d", g.cfg.PartPrefix, i+1) }
func (g *Generator) supplierID(i int) string { return fmt.Sprintf("%s%d", g.cfg.SupplierPrefix, i+1) }

// Example returns the two-row fixture used throughout the docs:
// P1 (Widget) supplied by S1 and S2, P2 (Gadget) supplied by S1.
func Example() []model.Relationship {
	return []model.Relationship{
		{Part: "P1", Name: "Widget", Suppliers: []string{"S1", "S2"}},
		{Part: "P2", Name: "Gadget", Suppliers: []string{"S1"}},
	}
}

// Star returns one part supplied by n distinct suppliers.
func (g *Generator) Star(n int) []model.Relationship {
	suppliers := make([]string, n)
	for i := range suppliers {
		suppliers[i] = g.supplierID(i)
	}
	return []model.Relationship{{Part: g.partID(0), Name: "Hub part", Suppliers: suppliers}}
}

// SharedSupplier returns n parts all supplied by the same supplier.
func (g *Generator) SharedSupplier(n int) []model.Relationship {
	rows := make([]model.Relationship, n)
	for i := range rows {
		rows[i] = model.Relationship{
			Part:      g.partID(i),
			Name:      fmt.Sprintf("Part %d", i+1),
			Suppliers: []string{g.supplierID(0)},
		}
	}
	return rows
}

// Bipartite returns parts x suppliers rows where each possible link exists
// with the given probability. Every row has a non-nil supplier list.
func (g *Generator) Bipartite(parts, suppliers int, density float64) []model.Relationship {
	rows := make([]model.Relationship, parts)
	for i := range rows {
		list := []string{}
		for j := 0; j < suppliers; j++ {
			if g.rng.Float64() < density {
				list = append(list, g.supplierID(j))
			}
		}
		rows[i] = model.Relationship{Part: g.partID(i), Name: fmt.Sprintf("Part %d", i+1), Suppliers: list}
	}
	return rows
}

// History returns a deterministic weekly demand series.
func (g *Generator) History() []float64 {
	h := make([]float64, g.cfg.HistoryWeeks)
	base := 100 + g.rng.Intn(50)
	for i := range h {
		h[i] = float64(base + i*3 + g.rng.Intn(10))
	}
	return h
}

// Panel returns a fully populated panel for a relationship row.
func (g *Generator) Panel(row model.Relationship) model.PanelState {
	return model.PanelState{
		Part:      row.Part,
		Name:      row.Name,
		Suppliers: append([]string(nil), row.Suppliers...),
		Risk:      fmt.Sprintf("%s depends on %d suppliers.", row.Part, len(row.Suppliers)),
		History:   g.History(),
		Forecast:  "Demand expected to stay flat over the next 4 weeks.",
	}
}
