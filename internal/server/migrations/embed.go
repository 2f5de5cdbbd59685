// Package migrations embeds the goose SQL migrations for sessiond.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
