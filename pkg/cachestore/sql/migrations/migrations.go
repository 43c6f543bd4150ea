// Package migrations embeds the PostgreSQL schema of the SQL cache store.
package migrations

import "embed"

// FS holds the versioned migration files.
//
//go:embed *.sql
var FS embed.FS
