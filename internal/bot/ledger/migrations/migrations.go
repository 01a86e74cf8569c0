// Package migrations embeds the ledger schema for goose.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
