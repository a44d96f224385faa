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

package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureConsole(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	ConfigureConsoleOutput(&buf)
	t.Cleanup(func() { ConfigureConsoleOutput(nil) })
	return &buf
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogLevel(" DEBUG "))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("nonsense"))
}

func TestNewLoggerRegistry(t *testing.T) {
	a := NewLogger("UTILS_TEST_A")
	assert.Same(t, a, NewLogger("UTILS_TEST_A"))
	assert.Contains(t, RegisteredLoggers(), "UTILS_TEST_A")

	assert.True(t, SetLoggerLevel("UTILS_TEST_A", "error"))
	assert.Equal(t, logrus.ErrorLevel, a.GetLevel())
	assert.False(t, SetLoggerLevel("UTILS_TEST_MISSING", "error"))
}

func TestTextOutput(t *testing.T) {
	buf := captureConsole(t)
	l := NewLogger("UTILS_TEST_TEXT")
	l.SetLevel(logrus.InfoLevel)

	l.WithFields(logrus.Fields{"b": 2, "a": 1}).Info("hello")
	l.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "UTILS_TEST")
	assert.Contains(t, out, "hello a=1 b=2")
	assert.NotContains(t, out, "hidden")
}

func TestJSONFormatter(t *testing.T) {
	f := &JSONLogFormatter{LoggerName: "JSON"}
	entry := logrus.NewEntry(logrus.New()).WithField("error", errors.New("boom"))
	entry.Message = "failed"
	entry.Level = logrus.ErrorLevel

	b, err := f.Format(entry)
	require.NoError(t, err)
	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &rec))
	assert.Equal(t, "JSON", rec["logger"])
	assert.Equal(t, "error", rec["level"])
	assert.Equal(t, "failed", rec["message"])
	assert.Equal(t, map[string]interface{}{"error": "boom"}, rec["fields"])
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("UTILS_TEST_STR", "x")
	t.Setenv("UTILS_TEST_BOOL", "true")
	assert.Equal(t, "x", EnvDefaultString("UTILS_TEST_STR", "d"))
	assert.Equal(t, "d", EnvDefaultString("UTILS_TEST_UNSET", "d"))
	assert.True(t, EnvDefaultBool("UTILS_TEST_BOOL", false))
	assert.True(t, EnvDefaultBool("UTILS_TEST_UNSET", true))
}
