// Package salesdb holds all the migrations for the sales database
package salesdb

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations is the collection of all migrations for the sales database
var Migrations = migrate.NewMigrations()
