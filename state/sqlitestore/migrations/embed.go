package migrations

import "embed"

// FS contains embedded SQLite migrations for ledger state.
//
//go:embed *.sql
var FS embed.FS
