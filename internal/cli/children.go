package cli

import (
	"github.com/spf13/cobra"

	"school-schedule/internal/model"
)

func newChildrenCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "children",
		Short: "Child commands",
	}
	cmd.AddCommand(newChildrenListCmd(app))
	cmd.AddCommand(newChildrenAddCmd(app))
	cmd.AddCommand(newChildrenRemoveCmd(app))
	return cmd
}

func newChildrenListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List children",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := snapshot(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			rows := make(childRows, 0, len(snap.Children))
			for _, c := range snap.Children {
				rows = append(rows, childRow{Name: c.Name, Items: len(c.Items), Exceptions: len(c.Exceptions)})
			}
			return writeOut(cmd, app, rows)
		},
	}
}

func newChildrenAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a child",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return apply(cmd, app, model.AddChild(args[0]))
		},
	}
}

func newChildrenRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a child with their items, schedule and exceptions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return apply(cmd, app, model.RemoveChild(args[0]))
		},
	}
}
