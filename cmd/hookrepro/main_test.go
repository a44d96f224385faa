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

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/hookrepro/config"
	"github.com/tomoncle/hookrepro/database"
	"github.com/tomoncle/hookrepro/scenario"
)

func TestReproduceDefault(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg := config.Default()
	cfg.Log.QueryLog = true
	var out bytes.Buffer

	report, err := reproduce(context.Background(), cfg, &out)
	require.NoError(t, err)
	assert.True(t, report.Passed())
	assert.Contains(t, out.String(), "INSERT")
	assert.Nil(t, database.GetDB(), "database is closed after the run")
}

func TestReproduceDeepEqualFails(t *testing.T) {
	cfg := config.Default()
	cfg.Scenario.DeepEqual = true

	report, err := reproduce(context.Background(), cfg, nil)
	var expErr *scenario.ExpectationError
	require.True(t, errors.As(err, &expErr))
	assert.Len(t, report.Expectations, 4)
	assert.Nil(t, database.GetDB())
}

func TestReproduceSeedFailureClosesDatabase(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("INSERT INTO Nowhere VALUES (1);\n"), 0o644))
	cfg := config.Default()
	cfg.Database.DataInitConfig.Filepath = dir

	_, err := reproduce(context.Background(), cfg, nil)
	require.Error(t, err)
	is, kind := database.IsSqlError(err)
	assert.True(t, is)
	assert.Equal(t, database.NoTableErr, kind)
	assert.Nil(t, database.GetDB())
}

func TestRootCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--log-level", "error"})
	assert.NoError(t, cmd.Execute())

	cmd = newRootCmd()
	cmd.SetArgs([]string{"--deep-equal", "--log-level", "error"})
	assert.Error(t, cmd.Execute())

	cmd = newRootCmd()
	cmd.SetArgs([]string{"--dialect", "oracle", "--log-level", "error"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")

	cmd = newRootCmd()
	cmd.SetArgs([]string{"extra"})
	assert.Error(t, cmd.Execute())
}
