package urlmap

import (
	"context"
	"errors"

	"github.com/bignyap/s3filestore/database"
	"github.com/jackc/pgx/v5/pgtype"
)

type queries struct {
	lookup string
	record string
	remove string
}

var dialects = map[database.Driver]queries{
	database.PostgresDriver: {
		lookup: `SELECT url FROM filestore_url_map WHERE id = $1`,
		record: `INSERT INTO filestore_url_map (id, url) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET url = EXCLUDED.url`,
		remove: `DELETE FROM filestore_url_map WHERE id = $1`,
	},
	database.MySQLDriver: {
		lookup: `SELECT url FROM filestore_url_map WHERE id = ?`,
		record: `INSERT INTO filestore_url_map (id, url) VALUES (?, ?)
			ON DUPLICATE KEY UPDATE url = VALUES(url)`,
		remove: `DELETE FROM filestore_url_map WHERE id = ?`,
	},
	database.SQLiteDriver: {
		lookup: `SELECT url FROM filestore_url_map WHERE id = ?`,
		record: `INSERT INTO filestore_url_map (id, url) VALUES (?, ?)
			ON CONFLICT (id) DO UPDATE SET url = excluded.url`,
		remove: `DELETE FROM filestore_url_map WHERE id = ?`,
	},
}

// SQL stores the map in the filestore_url_map table. Postgres goes through
// the pgx pool, the other drivers through database/sql.
type SQL struct {
	conn *database.Connection
	q    queries
}

var _ Store = (*SQL)(nil)

// NewSQL wraps a connected, migrated connection.
func NewSQL(conn *database.Connection) (*SQL, error) {
	q, ok := dialects[conn.Driver]
	if !ok {
		return nil, errors.New("url map: unsupported driver " + string(conn.Driver))
	}
	if conn.PgxPool == nil && conn.DB == nil {
		return nil, errors.New("url map: database is not connected")
	}
	return &SQL{conn: conn, q: q}, nil
}

func (s *SQL) Lookup(ctx context.Context, id string) (string, bool, error) {
	var url pgtype.Text
	var err error
	if s.conn.PgxPool != nil {
		err = s.conn.PgxPool.QueryRow(ctx, s.q.lookup, id).Scan(&url)
	} else {
		err = s.conn.DB.QueryRowContext(ctx, s.q.lookup, id).Scan(&url)
	}
	if database.IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, database.WrapError("lookup url map", err)
	}
	name := database.FromPgText(url)
	return name, name != "", nil
}

func (s *SQL) Record(ctx context.Context, id, filename string) error {
	return database.WrapError("record url map", s.exec(ctx, s.q.record, id, database.ToPgText(filename)))
}

func (s *SQL) Remove(ctx context.Context, id string) error {
	return database.WrapError("remove url map", s.exec(ctx, s.q.remove, id))
}

func (s *SQL) exec(ctx context.Context, query string, args ...any) error {
	if s.conn.PgxPool != nil {
		_, err := s.conn.PgxPool.Exec(ctx, query, args...)
		return err
	}
	_, err := s.conn.DB.ExecContext(ctx, query, args...)
	return err
}

func (s *SQL) Close() error {
	return s.conn.Close()
}
