package database

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// createURLMapTable is the schema for drivers without migration support.
// id is bounded for mysql, which cannot index TEXT keys.
var createURLMapTable = map[Driver]string{
	MySQLDriver:  `CREATE TABLE IF NOT EXISTS filestore_url_map (id VARCHAR(255) PRIMARY KEY, url TEXT NULL)`,
	SQLiteDriver: `CREATE TABLE IF NOT EXISTS filestore_url_map (id TEXT PRIMARY KEY, url TEXT NULL)`,
}

// Migrate brings the schema up to date. Postgres runs the embedded
// migrations; mysql and sqlite3 create the table if missing.
func (c *Connection) Migrate(ctx context.Context) error {
	if c.Driver == PostgresDriver {
		return migratePostgres(c.ConnectionString.URL())
	}

	stmt, ok := createURLMapTable[c.Driver]
	if !ok {
		return fmt.Errorf("no schema for driver %s", c.Driver)
	}
	if c.DB == nil {
		return errors.New("database is not connected")
	}
	if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func migratePostgres(databaseURL string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
