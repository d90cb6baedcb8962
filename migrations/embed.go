// Package migrations embeds the SQL schema migrations of the ledger.
package migrations

import "embed"

// FS holds the NNNNNN_name.up.sql / .down.sql pairs
//
//go:embed *.sql
var FS embed.FS
