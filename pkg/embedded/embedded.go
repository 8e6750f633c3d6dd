// Package embedded provides embedded static assets for the application.
package embedded

import (
	"embed"
)

// Schemas contains the SQL schema files applied by database.Migrate,
// one file per database name (schemas/<name>_schema.sql).
//
//go:embed schemas/*.sql
var Schemas embed.FS
