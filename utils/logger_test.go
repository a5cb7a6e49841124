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

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"":        logrus.InfoLevel,
		"debug":   logrus.DebugLevel,
		" WARN ":  logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"bogus":   logrus.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLogLevel(in), "level %q", in)
	}
}

func TestNewLoggerIsRegistered(t *testing.T) {
	l := NewLogger("TEST_REG")
	same := NewLogger("TEST_REG")
	assert.Same(t, l, same)

	assert.True(t, SetLoggerLevel("TEST_REG", "error"))
	assert.Equal(t, logrus.ErrorLevel, l.GetLevel())
	assert.False(t, SetLoggerLevel("TEST_MISSING", "error"))
}

func TestLog4jColorFormatter(t *testing.T) {
	f := &Log4jColorFormatter{LoggerName: "MONGO", NameWidth: 6, DisableColors: true}
	entry := logrus.NewEntry(logrus.New()).WithField("collection", "users")
	entry.Message = "connected"
	entry.Level = logrus.InfoLevel

	out, err := f.Format(entry)
	require.NoError(t, err)
	assert.Contains(t, string(out), "   INFO")
	assert.Contains(t, string(out), "[ MONGO]")
	assert.Contains(t, string(out), ": connected collection=users")
}

func TestJSONLogFormatter(t *testing.T) {
	f := &JSONLogFormatter{LoggerName: "MONGO"}
	entry := logrus.NewEntry(logrus.New()).WithField("error", errors.New("boom"))
	entry.Message = "failed"
	entry.Level = logrus.ErrorLevel

	out, err := f.Format(entry)
	require.NoError(t, err)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(out), &rec))
	assert.Equal(t, "error", rec["level"])
	assert.Equal(t, "MONGO", rec["logger"])
	assert.Equal(t, "failed", rec["message"])
	assert.Equal(t, map[string]interface{}{"error": "boom"}, rec["fields"])
}

func TestEnvLevel(t *testing.T) {
	t.Setenv("MONK_TEST_LEVEL", "2")
	assert.Equal(t, 2, EnvLevel("MONK_TEST_LEVEL", 0))
	t.Setenv("MONK_TEST_LEVEL", "x")
	assert.Equal(t, 0, EnvLevel("MONK_TEST_LEVEL", 1))
	assert.Equal(t, 1, EnvLevel("MONK_TEST_UNSET_LEVEL", 1))
}
