package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/rankline/internal/ordering"
	"github.com/rshade/rankline/internal/store"
)

func newReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder LIST ITEM=RANK...",
		Short: "Assign explicit ranks to several items in one transaction",
		Long: fmt.Sprintf(`Assigns the given ranks to up to %d items at once. Every rank must be unique
within the list after the update; items not named keep their ranks.`, ordering.MaxReorderItems),
		Example: `  rankline reorder 01JA... 01JB...=b 01JC...=m 01JD...=t`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			updates, err := parseRankUpdates(args[1:])
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app) error {
				if rErr := a.svc.Reorder(cmd.Context(), args[0], updates); rErr != nil {
					return rErr
				}
				cmd.Println(printer.Sprintf("Reordered %d items", len(updates)))
				return nil
			})
		},
	}
}

func parseRankUpdates(args []string) ([]store.RankUpdate, error) {
	updates := make([]store.RankUpdate, 0, len(args))
	for _, arg := range args {
		id, r, ok := strings.Cut(arg, "=")
		if !ok || id == "" || r == "" {
			return nil, fmt.Errorf("%w: %q is not ITEM=RANK", ordering.ErrInvalidReorder, arg)
		}
		updates = append(updates, store.RankUpdate{ItemID: id, Rank: r})
	}
	return updates, nil
}
