package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/rankline/internal/config"
	"github.com/rshade/rankline/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the rankline CLI.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:           "rankline",
		Short:         "Ranked lists with snapshot-consistent paging",
		Long:          "rankline keeps ordered lists with fractional rank keys and pages through them consistently.",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			config.SetGlobalConfig(cfg)

			result := setupLogging(cmd, cfg)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			logger.Debug().Ctx(cmd.Context()).Str("command", cmd.Name()).Msg("command finished")
			return logResult.Close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file (default $RANKLINE_CONFIG or ~/.rankline/config.yaml)")
	flags.String("db-driver", "", "database driver: sqlite or postgres")
	flags.String("db-dsn", "", "database DSN or SQLite file path")
	flags.Bool("debug", false, "enable debug logging")
	flags.StringP("output", "o", "", "output format: table or json (default from config)")

	cmd.AddCommand(
		newListCmd(),
		newItemCmd(),
		newPageCmd(),
		newExportCmd(),
		newImportCmd(),
		newReorderCmd(),
		newRebalanceCmd(),
		newRankCmd(),
		newBrowseCmd(),
		newConfigCmd(),
	)
	return cmd
}

// loadConfig reads the config file and environment, then applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("db-driver") {
		cfg.Database.Driver, _ = cmd.Flags().GetString("db-driver")
	}
	if cmd.Flags().Changed("db-dsn") {
		cfg.Database.DSN, _ = cmd.Flags().GetString("db-dsn")
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.DefaultFormat, _ = cmd.Flags().GetString("output")
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

const rootCmdExample = `  # Create a list and add items
  rankline list create groceries
  rankline item add 01J... "milk"
  rankline item add 01J... "bread" --before 01J...

  # Page through a list, resuming with the printed cursor and version
  rankline page 01J... --size 20
  rankline page 01J... --size 20 --cursor n --version 2026-05-01T09:00:00.123Z

  # Compute ranks without a database
  rankline rank between a c

  # Browse a list interactively
  rankline browse 01J...`
