package migrations

import "embed"

// FS contains embedded SQLite migrations for club storage.
//
//go:embed *.sql
var FS embed.FS
