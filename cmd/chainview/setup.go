package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vanderheijden86/chainview/pkg/config"
	"github.com/vanderheijden86/chainview/pkg/model"
)

// setupValues holds what the setup form collects, as entered.
type setupValues struct {
	Kind         string
	BaseURL      string
	Token        string
	SnapshotPath string
	Timeout      string
	DefaultView  string
	Watch        bool
}

func valuesFromConfig(cfg config.Config) setupValues {
	return setupValues{
		Kind:         cfg.Source.Kind,
		BaseURL:      cfg.Source.BaseURL,
		Token:        cfg.Source.Token,
		SnapshotPath: cfg.Source.SnapshotPath,
		Timeout:      cfg.Source.Timeout.String(),
		DefaultView:  cfg.InitialView().String(),
		Watch:        cfg.WatchSnapshot(),
	}
}

// apply copies v onto cfg and validates the result. Settings for the
// source kind that was not chosen are left untouched.
func (v setupValues) apply(cfg config.Config) (config.Config, error) {
	cfg.Source.Kind = v.Kind
	switch v.Kind {
	case config.SourceHTTP:
		cfg.Source.BaseURL = v.BaseURL
		cfg.Source.Token = v.Token
	case config.SourceSnapshot:
		cfg.Source.SnapshotPath = v.SnapshotPath
		watch := v.Watch
		cfg.UI.WatchSnapshot = &watch
	}
	if v.Timeout != "" {
		d, err := time.ParseDuration(v.Timeout)
		if err != nil {
			return cfg, fmt.Errorf("timeout %q: %w", v.Timeout, err)
		}
		cfg.Source.Timeout = d
	}
	cfg.UI.DefaultView = v.DefaultView
	return cfg, cfg.Validate()
}

func newSetupCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactively write the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadFile()
			if err != nil {
				return err
			}
			values := valuesFromConfig(cfg)
			if err := runSetupForm(&values); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					fmt.Fprintln(cmd.ErrOrStderr(), "Setup cancelled.")
					return nil
				}
				return err
			}

			cfg, err = values.apply(cfg)
			if err != nil {
				return fmt.Errorf("invalid configuration:\n%w", err)
			}
			path := opts.savePath()
			if err := config.SaveTo(cfg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
			return nil
		},
	}
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

func runSetupForm(v *setupValues) error {
	fmt.Println("chainview setup")
	fmt.Println("───────────────")

	kindForm := newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where should the graph come from?").
				Options(
					huh.NewOption("Backend service (http)", config.SourceHTTP),
					huh.NewOption("SQLite snapshot file", config.SourceSnapshot),
				).
				Value(&v.Kind),
		),
	)
	if err := kindForm.Run(); err != nil {
		return err
	}

	var source *huh.Group
	if v.Kind == config.SourceSnapshot {
		source = huh.NewGroup(
			huh.NewInput().
				Title("Snapshot path").
				Value(&v.SnapshotPath).
				Placeholder("~/supply.db").
				Validate(func(s string) error {
					if s == "" {
						return errors.New("a snapshot path is required")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Reload when the snapshot file changes?").
				Value(&v.Watch),
		)
	} else {
		source = huh.NewGroup(
			huh.NewInput().
				Title("Backend base URL").
				Value(&v.BaseURL).
				Placeholder("http://localhost:5000"),
			huh.NewInput().
				Title("API token (optional)").
				Value(&v.Token).
				EchoMode(huh.EchoModePassword),
			huh.NewInput().
				Title("Request timeout").
				Description("Go duration, 0 disables").
				Value(&v.Timeout).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					_, err := time.ParseDuration(s)
					return err
				}),
		)
	}

	prefs := huh.NewGroup(
		huh.NewSelect[string]().
			Title("Start in which view?").
			Options(
				huh.NewOption("Part detail", model.ViewDetail.String()),
				huh.NewOption("Assistant conversation", model.ViewConversation.String()),
			).
			Value(&v.DefaultView),
	)

	if err := newForm(source, prefs).Run(); err != nil {
		return err
	}
	fmt.Println("")
	return nil
}
