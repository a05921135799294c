package db

import (
	"database/sql"
	"embed"
	"io/fs"

	"hearthstats/pkg/migrations"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations is the directory of schema migrations for this database.
var Migrations fs.FS

func init() {
	var err error
	Migrations, err = fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
}

// Open opens (creating if needed) the sqlite database at path and applies all
// pending migrations. Use ":memory:" for a throwaway database.
func Open(path string) (*sql.DB, error) {
	database, err := migrations.OpenDB(path)
	if err != nil {
		return nil, err
	}
	err = migrations.Up(database, Migrations)
	if err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}
