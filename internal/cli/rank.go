package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rshade/rankline/internal/rank"
)

// openEnd stands for an absent bound on the command line.
const openEnd = "-"

func newRankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Compute rank keys without touching a database",
	}
	cmd.AddCommand(
		newRankBetweenCmd(),
		newRankSideCmd("before", "Print a rank that sorts before RANK", rank.Before),
		newRankSideCmd("after", "Print a rank that sorts after RANK", rank.After),
		newRankSpreadCmd(),
		newRankCheckCmd(),
	)
	return cmd
}

func bound(arg string) string {
	if arg == openEnd {
		return ""
	}
	return arg
}

func printRank(cmd *cobra.Command, r string) error {
	if outputFormat() == "json" {
		return writeJSON(cmd.OutOrStdout(), map[string]string{"rank": r})
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), r)
	return err
}

func newRankBetweenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "between LOWER UPPER",
		Short: "Print a rank strictly between LOWER and UPPER (- for an open end)",
		Example: `  rankline rank between a c    # b
  rankline rank between a b    # az
  rankline rank between - n    # b`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := rank.Between(bound(args[0]), bound(args[1]))
			if err != nil {
				return err
			}
			return printRank(cmd, r)
		},
	}
}

func newRankSideCmd(use, short string, fn func(string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " RANK",
		Short: short + " (- for an empty list)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := fn(bound(args[0]))
			if err != nil {
				return err
			}
			return printRank(cmd, r)
		},
	}
}

func newRankSpreadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spread COUNT",
		Short: "Print COUNT evenly spaced ranks, as a rebalance would assign them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 0 {
				return fmt.Errorf("count must be a non-negative integer, got %q", args[0])
			}
			ranks := rank.Rebalance(n)
			if outputFormat() == "json" {
				return writeJSON(cmd.OutOrStdout(), ranks)
			}
			for _, r := range ranks {
				fmt.Fprintln(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}
}

func newRankCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check A B",
		Short: "Report whether two neighbouring ranks are crowded enough to rebalance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			needs := rank.NeedsRebalancing(args[0], args[1])
			if outputFormat() == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]bool{"needs_rebalancing": needs})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "needs rebalancing: %t\n", needs)
			return nil
		},
	}
}
