// Package migrations embeds the postgres schema applied by cmd/migrate.
package migrations

import "embed"

// FS holds the *.up.sql files, applied in lexical order
//
//go:embed *.up.sql
var FS embed.FS
