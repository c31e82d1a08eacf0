package cli

import (
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rshade/rankline/internal/tui"
)

func newBrowseCmd() *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "browse LIST",
		Short: "Page through a list interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(os.Stdout) || !isTerminal(os.Stdin) {
				return errors.New("browse needs an interactive terminal; use 'rankline page' or 'rankline export' instead")
			}
			return withApp(cmd, func(a *app) error {
				l, err := a.store.GetList(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				model := tui.NewBrowseModel(cmd.Context(), l.Name, a.svc.Pager().NewSession(l.ID, size))
				_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
				if errors.Is(err, tea.ErrProgramKilled) {
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().IntVar(&size, "size", 0, "items fetched per page (default from config)")
	return cmd
}
