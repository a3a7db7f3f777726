// Package migrations embeds the SQL schema migrations for the local goals
// cache. Files are applied by goose at store startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
