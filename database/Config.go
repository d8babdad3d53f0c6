package database

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"
)

// DatabaseConfig is the env view of a connection.
type DatabaseConfig struct {
	Driver          string        `env:"DB_DRIVER" envDefault:"postgres"`
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            string        `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER"`
	Password        string        `env:"DB_PASSWORD"`
	Name            string        `env:"DB_NAME"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"30"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"10m"`
	EnableTelemetry bool          `env:"DB_ENABLE_TELEMETRY"`
}

// LoadDatabaseConfig reads DB_* environment variables
func LoadDatabaseConfig() (DatabaseConfig, error) {
	var cfg DatabaseConfig
	if err := env.Parse(&cfg); err != nil {
		return DatabaseConfig{}, fmt.Errorf("failed to parse database config: %w", err)
	}
	return cfg, nil
}

// NewConnectionFromConfig builds an unopened Connection.
func NewConnectionFromConfig(cfg DatabaseConfig) (*Connection, error) {
	driver, err := ParseDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}

	var options map[string]string
	switch driver {
	case PostgresDriver:
		options = map[string]string{"sslmode": cfg.SSLMode}
	case MySQLDriver:
		options = map[string]string{"parseTime": "true"}
	}

	cs := &ConnectionString{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Database: cfg.Name,
		Options:  options,
	}
	pool := &ConnectionPoolConfig{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		EnableTelemetry: cfg.EnableTelemetry,
	}
	return NewConnection(driver, cs, pool)
}
