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
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/tomoncle/hookrepro/utils"
)

func TestToFields(t *testing.T) {
	fields := toFields([]interface{}{"a", 1, 2, "skipped", "b", "x", "dangling"})
	assert.Equal(t, logrus.Fields{"a": 1, "b": "x"}, fields)
}

func TestDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	utils.ConfigureConsoleOutput(&buf)
	defer utils.ConfigureConsoleOutput(nil)

	l := NewDefaultLogger(utils.NewLogger("DB_LOGGER_TEST"))
	l.SetLevel(LogLevelWarn)
	l.Info("quiet")
	l.Warn("loud", "table", "Person")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud table=Person")
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.NotNil(t, GetLogger())
}
