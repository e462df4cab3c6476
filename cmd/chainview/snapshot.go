package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/chainview/internal/datasource"
	"github.com/vanderheijden86/chainview/pkg/config"
)

func newSnapshotCmd(opts *rootOptions) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "snapshot <out.db>",
		Short: "Export the backend graph, risk and forecasts to a SQLite snapshot",
		Long: `Fetch every part from the configured backend together with its risk
summary and demand forecast, and write them to a new SQLite file that
chainview can later open with --snapshot.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Source.Kind == config.SourceSnapshot {
				return errors.New("snapshot export needs an http source; pass --base-url or configure one")
			}
			src, err := datasource.Open(cfg.Source)
			if err != nil {
				return err
			}
			defer src.Close()

			out := args[0]
			err = datasource.ExportSnapshot(cmd.Context(), src, out, datasource.ExportOptions{
				Concurrency: concurrency,
				Progress:    progressPrinter(cmd.ErrOrStderr()),
			})
			if err != nil {
				return fmt.Errorf("exporting snapshot: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "parts fetched in parallel")
	return cmd
}

func progressPrinter(w io.Writer) func(done, total int) {
	return func(done, total int) {
		fmt.Fprintf(w, "\rFetched %d/%d parts", done, total)
		if done == total {
			fmt.Fprintln(w)
		}
	}
}
