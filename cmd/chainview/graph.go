package main

import (
	"context"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/chainview/internal/datasource"
	"github.com/vanderheijden86/chainview/pkg/graph"
	"github.com/vanderheijden86/chainview/pkg/metrics"
	"github.com/vanderheijden86/chainview/pkg/model"
)

func newGraphCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Load the graph once and print it",
		Long: `Fetch every part/supplier relationship, build the graph and print a
summary. With --json the full node and link lists are written instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			src, err := datasource.Open(cfg.Source)
			if err != nil {
				return err
			}
			defer src.Close()

			ctx := cmd.Context()
			if cfg.Source.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Source.Timeout)
				defer cancel()
			}
			g, err := loadGraph(ctx, src)
			if err != nil {
				return err
			}
			if asJSON {
				return writeGraphJSON(cmd.OutOrStdout(), g)
			}
			writeGraphSummary(cmd.OutOrStdout(), src.String(), g)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "write nodes and links as JSON")
	return cmd
}

func loadGraph(ctx context.Context, src datasource.Source) (*model.Graph, error) {
	stop := metrics.Timer(metrics.GraphLoad)
	rows, err := src.FetchAllRelationships(ctx)
	stop()
	if err != nil {
		return nil, fmt.Errorf("loading graph from %s: %w", src, err)
	}
	return graph.Build(rows)
}

func writeGraphJSON(w io.Writer, g *model.Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g)
}

func writeGraphSummary(w io.Writer, source string, g *model.Graph) {
	stats := g.Stats()
	fmt.Fprintf(w, "Source:    %s\n", source)
	fmt.Fprintf(w, "Parts:     %d\n", stats.Parts)
	fmt.Fprintf(w, "Suppliers: %d\n", stats.Suppliers)
	fmt.Fprintf(w, "Links:     %d\n", stats.Links)

	for _, p := range g.Parts() {
		suppliers := g.SuppliersOf(p.ID)
		fmt.Fprintf(w, "  %-10s %-24s %d supplier(s)\n", p.ID, p.DisplayName, len(suppliers))
	}
}
