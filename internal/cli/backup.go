package cli

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"school-schedule/internal/store"
)

type backupOut struct {
	Path       string    `json:"path,omitempty"`
	ExportedAt time.Time `json:"exported_at"`
	Children   int       `json:"children"`
	Library    int       `json:"library"`
}

func (b backupOut) Table() ([]string, [][]string) {
	return []string{"PATH", "EXPORTED", "CHILDREN", "LIBRARY"}, [][]string{{
		b.Path,
		b.ExportedAt.Local().Format("2006-01-02 15:04"),
		strconv.Itoa(b.Children),
		strconv.Itoa(b.Library),
	}}
}

func summarizeBackup(path string, b store.Backup) backupOut {
	return backupOut{
		Path:       path,
		ExportedAt: b.ExportedAt,
		Children:   len(b.Snapshot.Children),
		Library:    len(b.Snapshot.ItemLibrary),
	}
}

func newBackupCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "backup [file]",
		Short: "Write the whole household as JSON (to stdout without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.store()
			if err != nil {
				return writeErr(cmd, err)
			}
			if len(args) == 0 || args[0] == "-" {
				_, err := s.WriteBackup(ctxOf(cmd), cmd.OutOrStdout())
				if err != nil {
					return writeErr(cmd, err)
				}
				return nil
			}

			path, err := homedir.Expand(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			f, err := os.Create(path)
			if err != nil {
				return writeErr(cmd, err)
			}
			b, err := s.WriteBackup(ctxOf(cmd), f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				_ = os.Remove(path)
				return writeErr(cmd, err)
			}
			app.log.Info("backup_written", "path", path)
			return writeOut(cmd, app, summarizeBackup(path, b))
		},
	}
}

func newRestoreCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the household with a backup (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			path := ""
			if args[0] != "-" {
				p, err := homedir.Expand(args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				f, err := os.Open(p)
				if err != nil {
					return writeErr(cmd, err)
				}
				defer f.Close()
				r, path = f, p
			}

			b, err := store.ReadBackup(r)
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := app.store()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.Restore(ctxOf(cmd), b); err != nil {
				return writeErr(cmd, err)
			}
			app.log.Info("backup_restored", "path", path, "children", len(b.Snapshot.Children))
			return writeOut(cmd, app, summarizeBackup(path, b))
		},
	}
}
