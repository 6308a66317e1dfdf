package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"school-schedule/internal/model"
	"school-schedule/internal/mutate"
)

// snapshot loads the current state, creating an empty database on first use.
func snapshot(cmd *cobra.Command, app *App) (model.Snapshot, error) {
	h, err := app.host()
	if err != nil {
		return model.Snapshot{}, err
	}
	return h.Snapshot(ctxOf(cmd))
}

// apply dispatches c through the host and prints the mutation result.
func apply(cmd *cobra.Command, app *App, c model.Command) error {
	h, err := app.host()
	if err != nil {
		return writeErr(cmd, err)
	}
	_, res, err := h.Apply(ctxOf(cmd), c)
	if err != nil {
		return writeErr(cmd, err)
	}
	return writeOut(cmd, app, resultOut(res))
}

func requireChild(snap model.Snapshot, name string) (*model.Child, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("missing --child")
	}
	c, ok := snap.FindChild(name)
	if !ok {
		return nil, mutate.NotFoundError{Kind: "child", ID: name}
	}
	return c, nil
}
