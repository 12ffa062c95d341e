// Package migrations embeds the SQL scripts that create the ledger schema.
// Every domain table owns one fixed version slot; goose applies them in order.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
