// Package migrations embeds the versioned schema of the evidence-rag database.
//
// Files are named NNN_name.up.sql and NNN_name.down.sql. Only up migrations
// are applied automatically; down files document how to revert by hand.
package migrations

import "embed"

// FS contains all SQL migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
