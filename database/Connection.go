package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/exaring/otelpgx"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Driver represents a supported SQL driver.
type Driver string

const (
	PostgresDriver Driver = "postgres"
	MySQLDriver    Driver = "mysql"
	SQLiteDriver   Driver = "sqlite3"
)

func ParseDriver(input string) (Driver, error) {
	switch strings.ToLower(input) {
	case "postgres", "postgresql":
		return PostgresDriver, nil
	case "mysql":
		return MySQLDriver, nil
	case "sqlite", "sqlite3":
		return SQLiteDriver, nil
	default:
		return "", fmt.Errorf("unsupported driver: %s", input)
	}
}

type ConnectionString struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Options  map[string]string
}

type ConnectionPoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	EnableTelemetry bool // Enable OpenTelemetry tracing for pgx queries
}

func DefaultPoolConfig() *ConnectionPoolConfig {
	return &ConnectionPoolConfig{
		MaxOpenConns:    30,
		MaxIdleConns:    10,
		ConnMaxIdleTime: 5 * time.Minute,
		ConnMaxLifetime: 10 * time.Minute,
	}
}

// Connection holds either a pgx pool (postgres) or a database/sql handle
// (mysql, sqlite3) once Connect succeeds.
type Connection struct {
	Driver           Driver
	ConnectionString *ConnectionString
	PoolConfig       *ConnectionPoolConfig
	DB               *sql.DB
	PgxPool          *pgxpool.Pool
}

func NewConnection(driver Driver, cs *ConnectionString, pool *ConnectionPoolConfig) (*Connection, error) {
	if cs == nil {
		return nil, errors.New("connection string cannot be nil")
	}
	if pool == nil {
		pool = DefaultPoolConfig()
	}
	return &Connection{
		Driver:           driver,
		ConnectionString: cs,
		PoolConfig:       pool,
	}, nil
}

// sortedOptions keeps DSNs stable across runs.
func (cs *ConnectionString) sortedOptions() []string {
	keys := make([]string, 0, len(cs.Options))
	for key := range cs.Options {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (cs *ConnectionString) DSN(driver Driver) string {
	switch driver {
	case PostgresDriver:
		parts := []string{
			"host=" + cs.Host,
			"port=" + cs.Port,
			"user=" + cs.User,
			"password=" + cs.Password,
			"dbname=" + cs.Database,
		}
		for _, key := range cs.sortedOptions() {
			parts = append(parts, key+"="+cs.Options[key])
		}
		return strings.Join(parts, " ")
	case MySQLDriver:
		dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s", cs.User, cs.Password, net.JoinHostPort(cs.Host, cs.Port), cs.Database)
		if len(cs.Options) > 0 {
			values := make([]string, 0, len(cs.Options))
			for _, key := range cs.sortedOptions() {
				values = append(values, key+"="+cs.Options[key])
			}
			dsn += "?" + strings.Join(values, "&")
		}
		return dsn
	case SQLiteDriver:
		return cs.Database
	default:
		return ""
	}
}

// URL returns the postgres connection URL, the form golang-migrate expects.
func (cs *ConnectionString) URL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cs.User, cs.Password),
		Host:   net.JoinHostPort(cs.Host, cs.Port),
		Path:   "/" + cs.Database,
	}
	q := url.Values{}
	for key, value := range cs.Options {
		q.Set(key, value)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Connection) Connect(ctx context.Context) error {
	dsn := c.ConnectionString.DSN(c.Driver)
	if dsn == "" {
		return fmt.Errorf("invalid or unsupported driver: %s", c.Driver)
	}

	if c.Driver == PostgresDriver {
		cfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return fmt.Errorf("failed to parse pgx DSN: %w", err)
		}

		cfg.MaxConns = int32(c.PoolConfig.MaxOpenConns)
		cfg.MaxConnIdleTime = c.PoolConfig.ConnMaxIdleTime
		cfg.MaxConnLifetime = c.PoolConfig.ConnMaxLifetime

		if c.PoolConfig.EnableTelemetry {
			cfg.ConnConfig.Tracer = otelpgx.NewTracer()
		}

		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to create pgx pool: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return fmt.Errorf("failed to ping pgx pool: %w", err)
		}

		c.PgxPool = pool
		return nil
	}

	db, err := sql.Open(string(c.Driver), dsn)
	if err != nil {
		return fmt.Errorf("failed to open DB using driver %s: %w", c.Driver, err)
	}

	db.SetMaxOpenConns(c.PoolConfig.MaxOpenConns)
	db.SetMaxIdleConns(c.PoolConfig.MaxIdleConns)
	db.SetConnMaxIdleTime(c.PoolConfig.ConnMaxIdleTime)
	db.SetConnMaxLifetime(c.PoolConfig.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping DB: %w", err)
	}

	c.DB = db
	return nil
}

func (c *Connection) Close() error {
	if c.PgxPool != nil {
		c.PgxPool.Close()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
