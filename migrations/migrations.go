// Package migrations embeds the PostgreSQL schema migrations.
package migrations

import "embed"

// FS holds every *.up.sql migration, applied in file name order.
//
//go:embed *.sql
var FS embed.FS
