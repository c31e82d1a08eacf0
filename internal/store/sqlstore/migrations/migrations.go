// Package migrations embeds the schema of each supported SQL dialect.
package migrations

import "embed"

// FS holds one directory of ordered .sql files per dialect.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
