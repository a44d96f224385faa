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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DB_HOST", "db.local")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_NAME", "repro")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("DB_CONN_MAX_LIFETIME", "60")
	t.Setenv("DB_ENABLE_QUERY_LOG", "true")

	cfg := DefaultConnectionConfig()
	OverrideFromEnv(cfg)

	assert.Equal(t, "postgres", cfg.Type)
	assert.Equal(t, "db.local", cfg.Host)
	assert.Equal(t, 5433, cfg.Port)
	assert.Equal(t, "repro", cfg.DBName)
	assert.Equal(t, 100, cfg.MaxOpenConns)
	assert.Equal(t, time.Minute, cfg.ConnMaxLifetime)
	assert.True(t, cfg.EnableQueryLog)
	assert.False(t, cfg.InMemory())
}

func TestCreateFromConfigRejectsUnknownType(t *testing.T) {
	f := NewDatabaseFactory()
	cfg := DefaultConnectionConfig()
	cfg.Type = "oracle"
	_, err := f.CreateFromConfig(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")

	_, err = f.CreateFromConfig(nil, nil)
	assert.Error(t, err)
	assert.Nil(t, f.GetDB())
	assert.NoError(t, f.Close())
}

func TestFactoryInitializeDatabase(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "001_owners.sql", "INSERT INTO test_owner (name) VALUES ('ann');\n")

	f := NewDatabaseFactory()
	assert.Error(t, f.InitializeDatabase(ctx, DefaultConfig()))

	cfg := DefaultConfig()
	cfg.DataInitConfig.Filepath = dir
	_, err := f.CreateFromConfig(&cfg.ConnectionConfig, testRegistry())
	require.NoError(t, err)
	require.NoError(t, f.InitializeDatabase(ctx, cfg))
	t.Cleanup(func() { _ = f.Close() })

	count, err := f.GetDB().NewSelect().Model((*testOwner)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, f.GetStats().MaxOpenConns)
}

func TestInitDBAndCloseDB(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, CloseDB())
	assert.Nil(t, GetDB())

	_, err := InitDB(ctx, nil)
	assert.Error(t, err)

	db, err := InitDB(ctx, DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, db)
	assert.Same(t, db, GetDB())
	assert.NotNil(t, GetDatabaseManager())
	assert.Equal(t, 1, GetDatabaseStats().MaxOpenConns)

	require.NoError(t, CloseDB())
	assert.Nil(t, GetDB())
	assert.Nil(t, GetDatabaseManager())
}

func TestConnectionConfigDSN(t *testing.T) {
	cfg := &ConnectionConfig{
		Type:           "postgres",
		Host:           "db",
		Port:           5432,
		Username:       "u",
		Password:       "p",
		DBName:         "repro",
		ConnectTimeout: 10 * time.Second,
	}
	driver, dsn, err := cfg.DSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres", driver)
	assert.Equal(t, "postgres://u:p@db:5432/repro?connect_timeout=10&sslmode=disable", dsn)

	cfg.Type = "mysql"
	cfg.Port = 3306
	driver, dsn, err = cfg.DSN()
	require.NoError(t, err)
	assert.Equal(t, "mysql", driver)
	assert.Contains(t, dsn, "u:p@tcp(db:3306)/repro?")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")

	cfg.Type = "sqlite"
	_, dsn, err = cfg.DSN()
	require.NoError(t, err)
	assert.Equal(t, "repro.db?_foreign_keys=1&_pragma=foreign_keys(1)", dsn)

	cfg.DBName = ""
	_, dsn, err = cfg.DSN()
	require.NoError(t, err)
	assert.Equal(t, MemoryDBName, dsn)

	cfg.Type = "oracle"
	_, _, err = cfg.DSN()
	assert.Error(t, err)
}
