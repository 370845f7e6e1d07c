package crm

import (
	"embed"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS exposes the embedded schema migrations, one
// directory per supported dialect, so binaries can run them without
// shipping the SQL files alongside.
func GetMigrationsFS() embed.FS {
	return migrationsFS
}
