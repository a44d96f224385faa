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
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type testOwner struct {
	bun.BaseModel `bun:"table:test_owner,alias:o"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull"`
}

type testPet struct {
	bun.BaseModel `bun:"table:test_pet,alias:tp"`

	ID      int64  `bun:"id,pk,autoincrement"`
	OwnerID int64  `bun:"owner_id,notnull"`
	Name    string `bun:"name"`
}

func testRegistry() ModelRegistry {
	r := NewModelRegistry()
	r.Register(NewModelAdapter((*testPet)(nil), 2, ForeignKeyConstraint{
		Table:           "test_pet",
		Column:          "owner_id",
		ReferenceTable:  "test_owner",
		ReferenceColumn: "id",
		OnDelete:        "CASCADE",
	}))
	r.Register(NewModelAdapter((*testOwner)(nil), 1))
	return r
}

func connectMemory(t *testing.T, registry ModelRegistry, hooks ...bun.QueryHook) AbstractDatabaseManager {
	t.Helper()
	m := NewDatabaseManager(DefaultConnectionConfig(), registry, hooks...)
	require.NoError(t, m.Connect(context.Background()))
	t.Cleanup(func() { _ = m.Disconnect() })
	return m
}

func TestManagerConnectMemory(t *testing.T) {
	m := connectMemory(t, testRegistry())

	require.NotNil(t, m.GetDB())
	require.NotNil(t, m.GetSQLDB())
	assert.NoError(t, m.Ping(context.Background()))
	assert.Equal(t, 1, m.GetStats().MaxOpenConns)

	// connecting twice is a no-op
	require.NoError(t, m.Connect(context.Background()))

	require.NoError(t, m.Disconnect())
	assert.Nil(t, m.GetDB())
	assert.Error(t, m.Ping(context.Background()))
	assert.Equal(t, &DBStats{}, m.GetStats())
	assert.NoError(t, m.Disconnect())
}

func TestManagerRequiresConnection(t *testing.T) {
	m := NewDatabaseManager(nil, nil)
	assert.Error(t, m.RecreateSchema(context.Background()))
	assert.Error(t, m.Seed(context.Background(), t.TempDir()))
}

func TestRecreateSchemaEnforcesForeignKeys(t *testing.T) {
	ctx := context.Background()
	m := connectMemory(t, testRegistry())
	require.NoError(t, m.RecreateSchema(ctx))
	db := m.GetDB()

	owner := &testOwner{Name: "ann"}
	_, err := db.NewInsert().Model(owner).Exec(ctx)
	require.NoError(t, err)
	require.NotZero(t, owner.ID)

	_, err = db.NewInsert().Model(&testPet{OwnerID: owner.ID, Name: "rex"}).Exec(ctx)
	require.NoError(t, err)

	_, err = db.NewInsert().Model(&testPet{OwnerID: owner.ID + 100, Name: "ghost"}).Exec(ctx)
	require.Error(t, err)
	is, kind := IsSqlError(err)
	assert.True(t, is)
	assert.Equal(t, ForeignKeyViolationErr, kind)

	_, err = db.NewDelete().Model(owner).WherePK().Exec(ctx)
	require.NoError(t, err)
	count, err := db.NewSelect().Model((*testPet)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "pets are removed together with their owner")

	// recreating twice leaves empty tables
	_, err = db.NewInsert().Model(&testOwner{Name: "bob"}).Exec(ctx)
	require.NoError(t, err)
	require.NoError(t, m.RecreateSchema(ctx))
	count, err = db.NewSelect().Model((*testOwner)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestFileDatabaseEnforcesForeignKeysOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConnectionConfig()
	cfg.DBName = filepath.Join(t.TempDir(), "fk")
	m := NewDatabaseManager(cfg, testRegistry())
	require.NoError(t, m.Connect(ctx))
	t.Cleanup(func() { _ = m.Disconnect() })
	require.NoError(t, m.RecreateSchema(ctx))
	db := m.GetDB()

	// the open transaction holds one connection, the insert needs another
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	_, err = db.NewInsert().Model(&testPet{OwnerID: 42, Name: "ghost"}).Exec(ctx)
	require.Error(t, err)
	_, kind := IsSqlError(err)
	assert.Equal(t, ForeignKeyViolationErr, kind)
	assert.Greater(t, m.GetStats().OpenConns, 1)
}

func TestSchemaBuilderTableNames(t *testing.T) {
	m := connectMemory(t, testRegistry())
	b := NewSchemaBuilder(m.GetDB(), testRegistry(), nil)
	assert.Equal(t, []string{"test_owner", "test_pet"}, b.TableNames())
}

func TestSchemaBuilderRejectsInvalidConstraint(t *testing.T) {
	r := NewModelRegistry()
	r.Register(NewModelAdapter((*testOwner)(nil), 1, ForeignKeyConstraint{
		Table:    "test_owner",
		Column:   "id",
		OnDelete: "EXPLODE",
	}))
	m := connectMemory(t, r)
	err := m.RecreateSchema(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid delete policy")
}

func TestQueryRecorder(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	rec := NewQueryRecorder(&out)
	m := connectMemory(t, testRegistry(), rec)
	require.NoError(t, m.RecreateSchema(ctx))

	rec.Reset()
	_, err := m.GetDB().NewInsert().Model(&testOwner{Name: "ann"}).Exec(ctx)
	require.NoError(t, err)
	_, err = m.GetDB().NewSelect().Model((*testOwner)(nil)).Count(ctx)
	require.NoError(t, err)
	_, err = m.GetDB().ExecContext(ctx, "SELECT * FROM missing_table")
	require.Error(t, err)

	records := rec.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "INSERT", records[0].Operation)
	assert.Contains(t, records[0].Query, "test_owner")
	assert.Empty(t, records[0].Err)
	assert.Equal(t, "SELECT", records[1].Operation)
	assert.NotEmpty(t, records[2].Err)
	assert.Contains(t, out.String(), "[SQL]")

	rec.Reset()
	assert.Empty(t, rec.Records())
}

func TestNilQueryRecorder(t *testing.T) {
	var rec *QueryRecorder
	m := connectMemory(t, testRegistry(), rec)
	require.NoError(t, m.RecreateSchema(context.Background()))

	rec.Reset()
	assert.Nil(t, rec.Records())
}

func TestSeedRun(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "002_pets.sql", "-- pets\nINSERT INTO test_pet (owner_id, name)\nVALUES (1, 'rex');\n")
	writeFile(t, dir, "001_owners.sql", "INSERT INTO test_owner (name) VALUES ('ann');\nINSERT INTO test_owner (name) VALUES ('bob');\n")
	writeFile(t, dir, "notes.txt", "ignored")

	m := connectMemory(t, testRegistry())
	require.NoError(t, m.RecreateSchema(ctx))

	seeder := NewSeedManager(m.GetDB(), dir, nil)
	files, err := seeder.Files()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "001_owners.sql", files[0].Name)
	assert.Equal(t, 1, files[0].Order)

	results, err := seeder.Run(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 2, results[0].Statements)
	assert.Equal(t, int64(2), results[0].RowsAffected)

	count, err := m.GetDB().NewSelect().Model((*testPet)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSeedRollsBackFailingFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "001_owners.sql", "INSERT INTO test_owner (name) VALUES ('ann');\nINSERT INTO nowhere VALUES (1);\n")

	m := connectMemory(t, testRegistry())
	require.NoError(t, m.RecreateSchema(ctx))

	err := m.Seed(ctx, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001_owners.sql")

	count, err := m.GetDB().NewSelect().Model((*testOwner)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSeedMissingDirectory(t *testing.T) {
	_, err := NewSeedManager(nil, filepath.Join(t.TempDir(), "absent"), nil).Files()
	assert.Error(t, err)
}

func TestSplitSQLStatements(t *testing.T) {
	script := `
-- comment
INSERT INTO a VALUES (1);
INSERT INTO b
  VALUES (2);

SELECT 1`
	statements, err := SplitSQLStatements(script)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"INSERT INTO a VALUES (1);",
		"INSERT INTO b VALUES (2);",
		"SELECT 1",
	}, statements)

	statements, err = SplitSQLStatements("-- only a comment\n\n")
	require.NoError(t, err)
	assert.Empty(t, statements)
}

func TestSplitSQLStatementsLongLines(t *testing.T) {
	bulk := "INSERT INTO test_owner (name) VALUES ('" + strings.Repeat("x", 70*1024) + "');"
	statements, err := SplitSQLStatements("SELECT 1;\n" + bulk + "\nSELECT 2;\n")
	require.NoError(t, err)
	require.Len(t, statements, 3)
	assert.Equal(t, bulk, statements[1])
	assert.Equal(t, "SELECT 2;", statements[2])

	_, err = SplitSQLStatements(strings.Repeat("y", maxSeedLine+1))
	assert.ErrorIs(t, err, bufio.ErrTooLong)
}

func TestParseSeedOrder(t *testing.T) {
	assert.Equal(t, 10, parseSeedOrder("010_people.sql"))
	assert.Equal(t, unorderedSeedFile, parseSeedOrder("people.sql"))
	assert.Equal(t, unorderedSeedFile, parseSeedOrder("v1_people.sql"))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
