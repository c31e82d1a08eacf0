package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/rankline/internal/ordering"
)

func newItemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Add, move, rename and remove list items",
	}
	cmd.AddCommand(newItemAddCmd(), newItemMoveCmd(), newItemRenameCmd(), newItemRmCmd())
	return cmd
}

func addPositionFlags(cmd *cobra.Command, pos *ordering.Position) {
	cmd.Flags().StringVar(&pos.AfterID, "after", "", "place the item right after this item")
	cmd.Flags().StringVar(&pos.BeforeID, "before", "", "place the item right before this item")
}

func newItemAddCmd() *cobra.Command {
	var pos ordering.Position
	cmd := &cobra.Command{
		Use:   "add LIST TITLE",
		Short: "Add an item, at the end unless --after or --before is given",
		Long: `Adds an item to LIST, at the end unless --after or --before is given.

Each item appended at the end takes a rank between the current last rank and the top of
the alphabet, so a long run of appends grows the tail ranks by about one symbol per item.
With ordering.auto_rebalance on, the list is re-keyed once a tail rank outgrows 50
symbols, roughly every fifty appends. A re-key rewrites every rank in the list, and open
paging sessions on it must restart.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				item, err := a.svc.Insert(cmd.Context(), args[0], args[1], pos)
				if err != nil {
					return err
				}
				return renderItem(cmd.OutOrStdout(), outputFormat(), item)
			})
		},
	}
	addPositionFlags(cmd, &pos)
	return cmd
}

func newItemMoveCmd() *cobra.Command {
	var pos ordering.Position
	cmd := &cobra.Command{
		Use:   "move LIST ITEM",
		Short: "Move an item, to the end unless --after or --before is given",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				item, err := a.svc.Move(cmd.Context(), args[0], args[1], pos)
				if err != nil {
					return err
				}
				return renderItem(cmd.OutOrStdout(), outputFormat(), item)
			})
		},
	}
	addPositionFlags(cmd, &pos)
	return cmd
}

func newItemRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename LIST ITEM TITLE",
		Short: "Change an item's title",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				item, err := a.svc.Rename(cmd.Context(), args[0], args[1], args[2])
				if err != nil {
					return err
				}
				return renderItem(cmd.OutOrStdout(), outputFormat(), item)
			})
		},
	}
}

func newItemRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm LIST ITEM",
		Short: "Remove an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				if err := a.svc.Delete(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				cmd.Printf("Removed item %s\n", args[1])
				return nil
			})
		},
	}
}
