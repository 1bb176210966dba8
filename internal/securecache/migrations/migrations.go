// Package migrations embeds the goose SQL migrations for the secure
// scratch cache database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
