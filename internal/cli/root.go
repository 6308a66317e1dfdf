package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"school-schedule/internal/format"
	"school-schedule/internal/host"
	"school-schedule/internal/images"
	"school-schedule/internal/panel"
	"school-schedule/internal/store"
	"school-schedule/internal/tui"
)

type App struct {
	Dir        string
	PrettyJSON bool
	Format     string

	cfg      store.Config
	log      *slog.Logger
	closeLog func() error
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "school-schedule",
		Short:        "What to bring to school, per child and day",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive panel
  school-schedule

  # What to pack today (or tomorrow, after the switchover time)
  school-schedule summary --format md

  # Scriptable edits
  school-schedule children add Ada
  school-schedule items add "PE Kit" --child Ada --image ~/Pictures/pe.png
  school-schedule schedule add --child Ada --day monday pe_kit
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup(cmd)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.closeLog != nil {
			return app.closeLog()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr(store.EnvPrefix+"_DIR", ""), "Path to the data dir (database and images)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr(store.EnvPrefix+"_FORMAT", "json"), "Output format (json|edn|table; summary and docs also take md)")

	cmd.AddCommand(newChildrenCmd(app))
	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newScheduleCmd(app))
	cmd.AddCommand(newExceptionsCmd(app))
	cmd.AddCommand(newSwitchoverCmd(app))
	cmd.AddCommand(newSummaryCmd(app))
	cmd.AddCommand(newCalendarCmd(app))
	cmd.AddCommand(newLogCmd(app))
	cmd.AddCommand(newWebCmd(app))
	cmd.AddCommand(newBackupCmd(app))
	cmd.AddCommand(newRestoreCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// setup loads config and installs the logger. Flags win over config.
func (app *App) setup(cmd *cobra.Command) error {
	cfg, err := store.LoadConfig()
	if err != nil {
		return writeErr(cmd, err)
	}
	if d := strings.TrimSpace(app.Dir); d != "" {
		if cfg.Dir, err = homedir.Expand(d); err != nil {
			return writeErr(cmd, err)
		}
	}
	app.cfg = cfg

	// The TUI owns the terminal, so only the web host logs to stderr.
	var stderr io.Writer
	if isWebServe(cmd) {
		stderr = cmd.ErrOrStderr()
	}
	app.log, app.closeLog, err = newLogger(cfg, stderr)
	if err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

func isWebServe(cmd *cobra.Command) bool {
	return cmd.Name() == "web" && cmd.HasParent() && !cmd.Parent().HasParent()
}

func (app *App) store() (store.Store, error) {
	s := store.Store{Dir: app.cfg.Dir}
	if err := s.Ensure(); err != nil {
		return store.Store{}, err
	}
	return s, nil
}

func (app *App) host() (*host.Host, error) {
	s, err := app.store()
	if err != nil {
		return nil, err
	}
	return host.New(s, app.log), nil
}

func (app *App) images() *images.Store {
	return images.New(filepath.Join(app.cfg.Dir, "images"), app.cfg.UploadMaxBytes)
}

func (app *App) panelOptions() panel.Options {
	return panel.Options{
		QuietWindow:     app.cfg.QuietWindow,
		FilePickerGrace: app.cfg.FilePickerGrace,
		SettleDelay:     app.cfg.SettleDelay,
	}
}

func runTUI(cmd *cobra.Command, app *App) error {
	h, err := app.host()
	if err != nil {
		return writeErr(cmd, err)
	}
	// Create the database on first run so the panel opens on an empty household.
	if _, err := h.Snapshot(ctxOf(cmd)); err != nil {
		return writeErr(cmd, err)
	}
	return tui.Run(ctxOf(cmd), h, tui.Options{Panel: app.panelOptions(), Images: app.images()})
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	if app.Format == "table" {
		return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
	}
	return format.Write(cmd.OutOrStdout(), map[string]any{"data": v}, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
