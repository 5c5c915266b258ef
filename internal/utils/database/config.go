// Package database opens the gorm database backing deployment records.
package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Supported values of Config.DriverName.
const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"
)

const (
	defaultConnMaxLifetime = 10 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute
)

// Config db config
type Config struct {
	// data source name
	DSN        string `json:"dsn"`
	DriverName string `json:"driver_name"`

	MaxOpenNum int `json:"maxOpenNum"`
	MaxIdleNum int `json:"maxIdleNum"`
	// Connection lifetimes in seconds; zero keeps the defaults.
	ConnMaxLifetimeSec int64 `json:"conn_max_lifetime_sec"`
	ConnMaxIdleTimeSec int64 `json:"conn_max_idle_time_sec"`
}

func (c *Config) dialector() (gorm.Dialector, error) {
	if c.DSN == "" {
		return nil, fmt.Errorf("empty dsn for database driver %q", c.DriverName)
	}
	switch c.DriverName {
	case DriverPostgres:
		return postgres.Open(c.DSN), nil
	case DriverSqlite, "sqlite3":
		return sqlite.Open(c.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.DriverName)
	}
}

func (c *Config) connMaxLifetime() time.Duration {
	if c.ConnMaxLifetimeSec <= 0 {
		return defaultConnMaxLifetime
	}
	return time.Duration(c.ConnMaxLifetimeSec) * time.Second
}

func (c *Config) connMaxIdleTime() time.Duration {
	if c.ConnMaxIdleTimeSec <= 0 {
		return defaultConnMaxIdleTime
	}
	return time.Duration(c.ConnMaxIdleTimeSec) * time.Second
}
