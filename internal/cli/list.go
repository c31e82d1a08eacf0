package cli

import (
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Create, show and delete lists",
	}
	cmd.AddCommand(newListCreateCmd(), newListLsCmd(), newListRmCmd())
	return cmd
}

func newListCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create an empty list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				l, err := a.store.CreateList(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				logger.Info().Ctx(cmd.Context()).Str("list_id", l.ID).Msg("list created")
				if outputFormat() == "json" {
					return writeJSON(cmd.OutOrStdout(), l)
				}
				cmd.Printf("Created list %s (%s)\n", l.Name, l.ID)
				return nil
			})
		},
	}
}

func newListLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "Show every list with its item count",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app) error {
				rows, err := listRows(cmd, a)
				if err != nil {
					return err
				}
				if outputFormat() == "json" {
					return writeJSON(cmd.OutOrStdout(), rows)
				}
				if len(rows) == 0 {
					cmd.Println("No lists found.")
					return nil
				}
				return renderLists(cmd.OutOrStdout(), rows)
			})
		},
	}
}

// listRows loads every list and counts their items concurrently.
func listRows(cmd *cobra.Command, a *app) ([]listRow, error) {
	ctx := cmd.Context()
	lists, err := a.store.ListLists(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]listRow, len(lists))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, l := range lists {
		g.Go(func() error {
			version, vErr := a.store.CurrentVersion(gCtx, l.ID)
			if vErr != nil {
				return vErr
			}
			n, cErr := a.store.CountAtVersion(gCtx, l.ID, version)
			if cErr != nil {
				return cErr
			}
			rows[i] = listRow{List: l, Items: n}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func newListRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm LIST",
		Short: "Delete a list and its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				if err := a.store.DeleteList(cmd.Context(), args[0]); err != nil {
					return err
				}
				cmd.Printf("Deleted list %s\n", args[0])
				return nil
			})
		},
	}
}

