/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// MemoryDBName selects a private, non-persistent SQLite database.
const MemoryDBName = ":memory:"

// sqliteForeignKeys turns on foreign key enforcement for every connection the
// pool opens, in the spelling of both drivers sqliteshim may select
// (mattn/go-sqlite3 and modernc.org/sqlite).
const sqliteForeignKeys = "_foreign_keys=1&_pragma=foreign_keys(1)"

// AbstractDatabaseManager defines the operations for managing a database
// connection and the schema of the registered models.
type AbstractDatabaseManager interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Ping(ctx context.Context) error
	GetDB() *bun.DB
	GetSQLDB() *sql.DB
	RecreateSchema(ctx context.Context) error
	Seed(ctx context.Context, dir string) error
	GetStats() *DBStats
	SetLogger(logger Logger)
}

// DBStats mirrors database/sql stats returned by the manager.
type DBStats struct {
	MaxOpenConns      int           `json:"max_open_conns"`
	OpenConns         int           `json:"open_conns"`
	InUse             int           `json:"in_use"`
	Idle              int           `json:"idle"`
	WaitCount         int64         `json:"wait_count"`
	WaitDuration      time.Duration `json:"wait_duration"`
	MaxIdleClosed     int64         `json:"max_idle_closed"`
	MaxIdleTimeClosed int64         `json:"max_idle_time_closed"`
	MaxLifetimeClosed int64         `json:"max_lifetime_closed"`
}

// ConnectionConfig describes how to connect to a database and tune its pool.
type ConnectionConfig struct {
	Type            string        `json:"type" yaml:"type"` // sqlite, postgres, mysql
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	Username        string        `json:"username" yaml:"username"`
	Password        string        `json:"password" yaml:"password"`
	DBName          string        `json:"dbname" yaml:"dbname"`
	SSLMode         string        `json:"sslmode" yaml:"sslmode"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" yaml:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `json:"connect_timeout" yaml:"connect_timeout"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	EnableQueryLog  bool          `json:"enable_query_log" yaml:"enable_query_log"`
	SlowQueryTime   time.Duration `json:"slow_query_time" yaml:"slow_query_time"`
}

// InMemory reports whether the config points at a non-persistent SQLite db.
func (c *ConnectionConfig) InMemory() bool {
	return isSQLite(c.Type) && (c.DBName == "" || c.DBName == MemoryDBName)
}

// DSN returns the database/sql driver name and data source name for the
// configured engine. A file-backed SQLite database lives in "<DBName>.db".
func (c *ConnectionConfig) DSN() (driverName string, dsn string, err error) {
	switch c.Type {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = c.Username
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
		mc.DBName = c.DBName
		mc.ParseTime = true
		mc.Loc = time.Local
		mc.Timeout = c.ConnectTimeout
		mc.ReadTimeout = c.ReadTimeout
		mc.WriteTimeout = c.WriteTimeout
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return "mysql", mc.FormatDSN(), nil
	case "postgres", "postgresql":
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(c.Username, c.Password),
			Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
			Path:   "/" + c.DBName,
		}
		q := url.Values{}
		q.Set("sslmode", sslMode)
		q.Set("connect_timeout", strconv.Itoa(int(c.ConnectTimeout.Seconds())))
		u.RawQuery = q.Encode()
		return "postgres", u.String(), nil
	case "sqlite", "sqlite3":
		if c.InMemory() {
			return sqliteshim.ShimName, MemoryDBName, nil
		}
		return sqliteshim.ShimName, c.DBName + ".db?" + sqliteForeignKeys, nil
	default:
		return "", "", fmt.Errorf("unsupported database type: %s", c.Type)
	}
}

// SchemaConfig controls what happens to the registered tables on startup.
type SchemaConfig struct {
	RecreateOnStartup bool `json:"recreate_on_startup" yaml:"recreate_on_startup"`
}

// DataInitConfig points at a directory of seed SQL files run after the
// schema is in place. An empty Filepath disables seeding.
type DataInitConfig struct {
	Filepath string `json:"filepath" yaml:"filepath"`
}

// Config aggregates connection, schema, and data initialization settings.
type Config struct {
	ConnectionConfig ConnectionConfig `json:"connection_config" yaml:"connection"`
	SchemaConfig     SchemaConfig     `json:"schema_config" yaml:"schema"`
	DataInitConfig   DataInitConfig   `json:"data_init_config" yaml:"data_init"`
}

// DefaultConnectionConfig returns an in-memory SQLite config.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Type:            "sqlite",
		DBName:          MemoryDBName,
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute * 30,
		ConnectTimeout:  time.Second * 10,
		ReadTimeout:     time.Second * 30,
		WriteTimeout:    time.Second * 30,
		EnableQueryLog:  false,
		SlowQueryTime:   time.Second * 2,
	}
}

// DefaultConfig returns the configuration of a plain reproduction run: an
// in-memory SQLite database whose tables are recreated on startup.
func DefaultConfig() *Config {
	return &Config{
		ConnectionConfig: *DefaultConnectionConfig(),
		SchemaConfig:     SchemaConfig{RecreateOnStartup: true},
	}
}

func isSQLite(typ string) bool {
	return typ == "sqlite" || typ == "sqlite3"
}
