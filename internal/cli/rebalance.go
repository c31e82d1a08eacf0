package cli

import (
	"github.com/spf13/cobra"
)

func newRebalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebalance LIST",
		Short: "Re-key every item of a list with evenly spaced ranks",
		Long: `Assigns fresh, evenly spaced ranks to every item of a list, keeping their order.

Open paging sessions on the list see no further items afterwards and must restart.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				n, err := a.svc.Rebalance(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				cmd.Println(printer.Sprintf("Rebalanced %d items", n))
				return nil
			})
		},
	}
}
