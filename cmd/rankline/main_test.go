package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/rankline/internal/cli"
	"github.com/rshade/rankline/internal/config"
	"github.com/rshade/rankline/internal/paging"
	"github.com/rshade/rankline/pkg/version"
)

func TestMainComponents(t *testing.T) {
	t.Run("version available", func(t *testing.T) {
		assert.NotEmpty(t, version.GetVersion())
	})

	t.Run("cli root command", func(t *testing.T) {
		root := cli.NewRootCmd(version.GetVersion())
		require.NotNil(t, root)
		assert.Equal(t, "rankline", root.Use)
	})
}

func TestRun(t *testing.T) {
	home := t.TempDir()
	t.Setenv("RANKLINE_HOME", home)
	t.Setenv("RANKLINE_LOG_LEVEL", "error")
	t.Cleanup(config.ResetGlobalConfigForTest)

	dsn := filepath.Join(home, "main.db")

	t.Run("rank command needs no database", func(t *testing.T) {
		require.NoError(t, run(context.Background(), []string{"rank", "between", "a", "c"}))
	})

	t.Run("unknown list maps to failure", func(t *testing.T) {
		err := run(context.Background(), []string{"--db-dsn", dsn, "page", "nope"})
		require.Error(t, err)
		assert.Equal(t, cli.ExitFailure, cli.ExitCode(err))
	})

	t.Run("expired snapshot maps to its own code", func(t *testing.T) {
		err := run(context.Background(), []string{"--db-dsn", dsn, "list", "create", "x"})
		require.NoError(t, err)
		assert.Equal(t, cli.ExitSnapshotExpired, cli.ExitCode(&paging.SnapshotExpiredError{}))
	})
}
