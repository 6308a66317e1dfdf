package format

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
)

// Tabular is implemented by CLI payloads that have a human table form.
type Tabular interface {
	Table() (header []string, rows [][]string)
}

// WriteTable renders t with a bold header. Color is dropped automatically when w is
// not a terminal (fatih/color honors NO_COLOR and isatty).
func WriteTable(w io.Writer, t Tabular) error {
	header, rows := t.Table()
	bold := color.New(color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.Wrap = true
	if len(header) > 0 {
		tbl.AddRow(cells(header, bold.Sprint)...)
	}
	for _, r := range rows {
		tbl.AddRow(cells(r, fmt.Sprint)...)
	}
	_, err := fmt.Fprintln(w, tbl)
	return err
}

func cells(xs []string, f func(...any) string) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = f(x)
	}
	return out
}
