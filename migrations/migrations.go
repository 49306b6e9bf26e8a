// Package migrations embeds the SQL migrations of the postgres storage backend.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
