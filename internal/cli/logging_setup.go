package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/rankline/internal/config"
	"github.com/rshade/rankline/internal/logging"
)

// setupLogging configures logging from the loaded config and the --debug flag, and
// attaches the logger to the command context.
func setupLogging(cmd *cobra.Command, cfg *config.Config) logging.LogPathResult {
	debug, _ := cmd.Flags().GetBool("debug")
	loggingCfg := cfg.Logging.ToLogging(debug)
	if debug {
		loggingCfg.Format = logging.FormatConsole
		loggingCfg.File = ""
	}

	if err := cfg.EnsureDataDirs(); err != nil {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not create data directories: %v\n", err)
	}

	result := logging.NewLoggerWithPath(loggingCfg)
	logger = logging.ComponentLogger(result.Logger, "cli")

	if result.UsingFile {
		logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
	} else if result.FallbackUsed {
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	}

	ctx := logging.WithLogger(cmd.Context(), logger)
	cmd.SetContext(ctx)

	logger.Debug().Ctx(ctx).Str("command", cmd.Name()).Msg("command started")
	return result
}
