// Package migrations embeds the client's local database migrations.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
