// Package migrations holds the numbered schema files applied by the SQLite
// store on open. Each NNN_name.up.sql runs once, inside its own
// transaction; the matching .down.sql is kept for manual rollback.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
