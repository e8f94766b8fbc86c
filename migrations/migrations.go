// Package migrations embeds the SQL schema so the binary can apply it on
// start.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
