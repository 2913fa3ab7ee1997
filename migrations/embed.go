package migrations

import "embed"

// FS holds the versioned schema files applied by cmd/migrate.
//
//go:embed *.sql
var FS embed.FS
