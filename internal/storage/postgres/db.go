// Package postgres provides pgx/sqlx-backed implementations of the policy
// core's persistence ports, with goose-managed schema migrations. It is
// wired in by cmd/authzctl when storage.backend is "postgres" (storage.dsn
// must then be set); the in-process internal/storage/memory package is the
// default otherwise.
package postgres

import (
	"database/sql"
	"embed"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Open connects to dsn via the pgx standard-library driver and wraps the
// connection in an *sqlx.DB for named-query support.
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening postgres connection")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "pinging postgres")
	}
	return sqlx.NewDb(db, "pgx"), nil
}

// Migrate applies every pending goose migration embedded under migrations/.
func Migrate(db *sqlx.DB) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return errors.Wrap(err, "applying migrations")
	}
	return nil
}
