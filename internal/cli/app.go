package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/rankline/internal/config"
	"github.com/rshade/rankline/internal/ordering"
	"github.com/rshade/rankline/internal/paging"
	"github.com/rshade/rankline/internal/store/sqlstore"
)

// Exit codes returned by ExitCode.
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitSnapshotExpired = 3
	ExitConflict        = 4
)

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, paging.ErrSnapshotExpired):
		return ExitSnapshotExpired
	case errors.Is(err, ordering.ErrConflict):
		return ExitConflict
	default:
		return ExitFailure
	}
}

// app bundles what a data command needs.
type app struct {
	cfg   *config.Config
	store *sqlstore.Store
	svc   *ordering.Service
}

// openApp opens the configured store and builds the ordering service over it. The caller
// closes the app.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg := config.GetGlobalConfig()
	st, err := sqlstore.Open(cmd.Context(), sqlstore.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	svc := ordering.NewService(st,
		ordering.Config{
			MaxAttempts:   cfg.Ordering.MaxAttempts,
			AutoRebalance: cfg.Ordering.AutoRebalance,
		},
		paging.WithRetention(cfg.Paging.SnapshotRetention),
		paging.WithPageSizes(cfg.Paging.DefaultPageSize, cfg.Paging.MaxPageSize),
	)
	logger.Debug().Ctx(cmd.Context()).Str("driver", st.Driver()).Msg("store opened")
	return &app{cfg: cfg, store: st, svc: svc}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Warn().Err(err).Msg("closing store")
	}
}

// withApp runs fn with an open app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(a *app) error) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// outputFormat returns the effective output format of the running command.
func outputFormat() string {
	return config.GetDefaultOutputFormat()
}
