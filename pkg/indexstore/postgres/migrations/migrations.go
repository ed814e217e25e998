// Package migrations embeds the SQL migration set for the index's
// Postgres-backed snapshot store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
