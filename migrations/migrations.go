// Package migrations embeds the SQL schema applied by the sqlite package.
package migrations

import "embed"

// FS holds the *.up.sql files in apply order by name.
//
//go:embed *.up.sql
var FS embed.FS
