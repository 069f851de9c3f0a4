// Package migrations holds the bun migration set for the report service.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
