// Package migrations compiles the bridge's SQL migrations into the
// binary so deployments never depend on loose files. Importing the
// package for side effects registers the embedded set:
//
//	import _ "github.com/emberlink/ecomax-bridge/migrations"
package migrations

import (
	"embed"

	"github.com/emberlink/ecomax-bridge/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

func init() {
	database.MigrationsFS = files
	database.MigrationsDir = "."
}
