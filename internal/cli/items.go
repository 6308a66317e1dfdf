package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"school-schedule/internal/model"
	"school-schedule/internal/panel"
)

func newItemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Item commands (a child's own items or the shared library)",
	}
	cmd.AddCommand(newItemsListCmd(app))
	cmd.AddCommand(newItemsAddCmd(app))
	cmd.AddCommand(newItemsRemoveCmd(app))
	cmd.AddCommand(newItemsUpdateCmd(app))
	cmd.AddCommand(newItemsAssignCmd(app))
	return cmd
}

// poolFlags selects a child's items (--child) or the shared library (default).
type poolFlags struct {
	child  string
	shared bool
}

func (p *poolFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&p.child, "child", "", "Child whose own items to use")
	fs.BoolVar(&p.shared, "shared", false, "Use the shared library (default when --child is not set)")
}

func (p poolFlags) owner() (string, error) {
	child := strings.TrimSpace(p.child)
	if child != "" && p.shared {
		return "", errors.New("use either --child or --shared")
	}
	if child == "" {
		return panel.SharedPool, nil
	}
	return child, nil
}

func newItemsListCmd(app *App) *cobra.Command {
	var pool poolFlags
	var combined bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := pool.owner()
			if err != nil {
				return writeErr(cmd, err)
			}
			snap, err := snapshot(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if owner != panel.SharedPool {
				if _, err := requireChild(snap, owner); err != nil {
					return writeErr(cmd, err)
				}
				if combined {
					return writeOut(cmd, app, itemRows(panel.CombinedPool(snap, owner)))
				}
			}
			return writeOut(cmd, app, itemRows(panel.PoolItems(snap, owner)))
		},
	}
	pool.register(cmd.Flags())
	cmd.Flags().BoolVar(&combined, "combined", false, "With --child: include shared library items the child can use")
	return cmd
}

func newItemsAddCmd(app *App) *cobra.Command {
	var pool poolFlags
	var id, image string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an item (the id is derived from the name unless --id is given)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := pool.owner()
			if err != nil {
				return writeErr(cmd, err)
			}
			name := strings.TrimSpace(args[0])
			if name == "" {
				return writeErr(cmd, errors.New("item name is empty"))
			}
			snap, err := snapshot(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if owner != panel.SharedPool {
				if _, err := requireChild(snap, owner); err != nil {
					return writeErr(cmd, err)
				}
			}

			ref, err := app.images().Import(image)
			if err != nil {
				return writeErr(cmd, err)
			}
			itemID := strings.TrimSpace(id)
			if itemID == "" {
				itemID = panel.GenerateItemID(name, panel.ExistingIDs(snap, owner))
			}
			if owner == panel.SharedPool {
				return apply(cmd, app, model.AddLibraryItem(itemID, name, ref))
			}
			return apply(cmd, app, model.AddItem(owner, itemID, name, ref))
		},
	}
	pool.register(cmd.Flags())
	cmd.Flags().StringVar(&id, "id", "", "Item id (default: derived from the name)")
	cmd.Flags().StringVar(&image, "image", "", "Image file to upload, or an image URL")
	return cmd
}

func newItemsRemoveCmd(app *App) *cobra.Command {
	var pool poolFlags

	cmd := &cobra.Command{
		Use:   "remove <item-id>",
		Short: "Remove an item and drop it from schedules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := pool.owner()
			if err != nil {
				return writeErr(cmd, err)
			}
			if owner == panel.SharedPool {
				return apply(cmd, app, model.RemoveLibraryItem(args[0]))
			}
			return apply(cmd, app, model.RemoveItem(owner, args[0]))
		},
	}
	pool.register(cmd.Flags())
	return cmd
}

func newItemsUpdateCmd(app *App) *cobra.Command {
	var pool poolFlags
	var name, image string

	cmd := &cobra.Command{
		Use:   "update <item-id>",
		Short: "Rename an item or change its image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := pool.owner()
			if err != nil {
				return writeErr(cmd, err)
			}
			if !cmd.Flags().Changed("name") && !cmd.Flags().Changed("image") {
				return writeErr(cmd, errors.New("nothing to update: pass --name and/or --image"))
			}

			c := model.Command{Op: model.OpUpdateLibraryItem, ItemID: args[0], ItemName: strings.TrimSpace(name)}
			if owner != panel.SharedPool {
				c.Op = model.OpUpdateItem
				c.ChildName = owner
			}
			if cmd.Flags().Changed("image") {
				ref, err := app.images().Import(image)
				if err != nil {
					return writeErr(cmd, err)
				}
				c.Image = &ref
			}
			return apply(cmd, app, c)
		},
	}
	pool.register(cmd.Flags())
	cmd.Flags().StringVar(&name, "name", "", "New display name")
	cmd.Flags().StringVar(&image, "image", "", "New image file or URL (empty clears it)")
	return cmd
}

func newItemsAssignCmd(app *App) *cobra.Command {
	var child string

	cmd := &cobra.Command{
		Use:   "assign <item-id>",
		Short: "Copy a shared library item into a child's own items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return apply(cmd, app, model.Command{Op: model.OpAssignLibraryItem, ChildName: child, ItemID: args[0]})
		},
	}
	cmd.Flags().StringVar(&child, "child", "", "Child to assign to")
	_ = cmd.MarkFlagRequired("child")
	return cmd
}
