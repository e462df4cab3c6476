// Command chainview explores a supply-chain graph in the terminal: parts and
// their suppliers, per-part risk and demand forecasts, and an assistant chat.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vanderheijden86/chainview/internal/datasource"
	"github.com/vanderheijden86/chainview/pkg/config"
	"github.com/vanderheijden86/chainview/pkg/debug"
	"github.com/vanderheijden86/chainview/pkg/explore"
	"github.com/vanderheijden86/chainview/pkg/metrics"
	"github.com/vanderheijden86/chainview/pkg/ui"
	"github.com/vanderheijden86/chainview/pkg/watcher"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath  string
	baseURL     string
	snapshot    string
	showMetrics bool
}

// loadConfig reads the config file, then applies environment and flag
// overrides in that order.
func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := o.loadFile()
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()
	if o.baseURL != "" {
		cfg.Source.Kind = config.SourceHTTP
		cfg.Source.BaseURL = o.baseURL
	}
	if o.snapshot != "" {
		cfg.Source.Kind = config.SourceSnapshot
		cfg.Source.SnapshotPath = o.snapshot
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

func (o *rootOptions) loadFile() (config.Config, error) {
	if o.configPath != "" {
		return config.LoadFrom(o.configPath)
	}
	return config.Load()
}

// savePath is where setup writes the config.
func (o *rootOptions) savePath() string {
	if o.configPath != "" {
		return o.configPath
	}
	return config.ConfigPath()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "chainview",
		Short: "Explore a supply-chain graph in the terminal",
		Long: `chainview shows parts and the suppliers they depend on. Selecting a part
loads its supplier list, risk summary and demand forecast; the assistant view
answers questions about the selected part.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.New("chainview needs an interactive terminal; use `chainview graph` for headless output")
			}
			return runTUI(opts)
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.showMetrics {
				metrics.SetEnabled(true)
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.showMetrics {
				if err := writeMetrics(cmd.ErrOrStderr()); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error writing metrics: %v\n", err)
				}
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/chainview/config.yaml)")
	flags.StringVar(&opts.baseURL, "base-url", "", "backend base URL (selects the http source)")
	flags.StringVar(&opts.snapshot, "snapshot", "", "SQLite snapshot file (selects the snapshot source)")
	flags.BoolVar(&opts.showMetrics, "metrics", false, "print timing metrics as JSON on exit")
	cmd.MarkFlagsMutuallyExclusive("base-url", "snapshot")

	cmd.AddCommand(newGraphCmd(opts))
	cmd.AddCommand(newSnapshotCmd(opts))
	cmd.AddCommand(newSetupCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func runTUI(opts *rootOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	src, err := datasource.Open(cfg.Source)
	if err != nil {
		return err
	}
	defer src.Close()

	// Debug output would corrupt the screen; send it to a file instead.
	if debug.Enabled() {
		if closeLog, err := logToStateDir(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: debug log disabled: %v\n", err)
			debug.SetEnabled(false)
		} else {
			defer closeLog()
		}
	}

	var changes <-chan struct{}
	if cfg.Source.Kind == config.SourceSnapshot && cfg.WatchSnapshot() {
		w, err := watcher.New(cfg.Source.SnapshotPath,
			watcher.WithOnError(func(err error) { debug.Log("snapshot watcher: %v", err) }),
		)
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: not watching %s: %v\n", cfg.Source.SnapshotPath, err)
		} else {
			defer w.Stop()
			changes = w.Changed()
		}
	}

	m := ui.NewModel(src, ui.Options{
		SplitRatio: cfg.UI.SplitRatio,
		Changes:    changes,
	},
		explore.WithTimeout(cfg.Source.Timeout),
		explore.WithInitialView(cfg.InitialView()),
	)
	defer m.Stop()

	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	if err != nil {
		return fmt.Errorf("running chainview: %w", err)
	}
	if fm, ok := final.(ui.Model); ok && fm.Fatal() != nil {
		return fm.Fatal()
	}
	return nil
}

func logToStateDir() (func(), error) {
	dir := config.StateDir()
	if dir == "" {
		return nil, errors.New("cannot determine state directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := tea.LogToFile(filepath.Join(dir, "debug.log"), "chainview")
	if err != nil {
		return nil, err
	}
	debug.SetOutput(f)
	return func() { _ = f.Close() }, nil
}

func writeMetrics(w io.Writer) error {
	data, err := json.MarshalIndent(metrics.AllTimingStats(), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
