// Package migrations содержит SQL миграции goose, встроенные в бинарник.
package migrations

import "embed"

// PostgresMigrations миграции PostgreSQL, каталог "postgres"
//
//go:embed postgres/*.sql
var PostgresMigrations embed.FS

// PostgresDir каталог миграций внутри PostgresMigrations
const PostgresDir = "postgres"
