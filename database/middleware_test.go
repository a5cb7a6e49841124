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
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logEntry struct {
	level  LogLevel
	msg    string
	fields []interface{}
}

// recordingLogger keeps every entry for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level LogLevel, msg string, fields []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) SetLevel(LogLevel) {}
func (l *recordingLogger) Debug(msg string, fields ...interface{}) {
	l.add(LogLevelDebug, msg, fields)
}
func (l *recordingLogger) Info(msg string, fields ...interface{}) { l.add(LogLevelInfo, msg, fields) }
func (l *recordingLogger) Warn(msg string, fields ...interface{}) { l.add(LogLevelWarn, msg, fields) }
func (l *recordingLogger) Error(msg string, fields ...interface{}) {
	l.add(LogLevelError, msg, fields)
}

func (l *recordingLogger) byLevel(level LogLevel) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range l.entries {
		if e.level == level {
			out = append(out, e)
		}
	}
	return out
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(ctx context.Context, call *Call) error {
				order = append(order, name+">")
				err := next(ctx, call)
				order = append(order, "<"+name)
				return err
			}
		}
	}

	h := chain(func(ctx context.Context, call *Call) error {
		order = append(order, call.Method)
		return nil
	}, []Middleware{mark("outer"), mark("inner")})

	require.NoError(t, h(context.Background(), &Call{Method: MethodFind}))
	assert.Equal(t, []string{"outer>", "inner>", MethodFind, "<inner", "<outer"}, order)
}

func TestChainShortCircuit(t *testing.T) {
	denied := errors.New("denied")
	deny := func(next Handler) Handler {
		return func(ctx context.Context, call *Call) error { return denied }
	}
	reached := false
	h := chain(func(ctx context.Context, call *Call) error {
		reached = true
		return nil
	}, []Middleware{deny})

	assert.ErrorIs(t, h(context.Background(), &Call{}), denied)
	assert.False(t, reached)
}

func TestLoggingMiddleware(t *testing.T) {
	logger := &recordingLogger{}
	mw := LoggingMiddleware(logger)
	call := &Call{Collection: "users", Method: MethodFindOne}

	ok := mw(func(ctx context.Context, call *Call) error { return nil })
	require.NoError(t, ok(context.Background(), call))
	require.Len(t, logger.byLevel(LogLevelDebug), 1)
	assert.Contains(t, logger.byLevel(LogLevelDebug)[0].fields, "users")

	boom := fmt.Errorf("boom")
	failing := mw(func(ctx context.Context, call *Call) error { return boom })
	assert.Same(t, boom, failing(context.Background(), call))
	warns := logger.byLevel(LogLevelWarn)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0].fields, boom)
}

func TestSlowCallMiddleware(t *testing.T) {
	logger := &recordingLogger{}
	mw := SlowCallMiddleware(time.Millisecond, logger)

	fast := mw(func(ctx context.Context, call *Call) error { return nil })
	require.NoError(t, fast(context.Background(), &Call{Method: MethodCount}))
	assert.Empty(t, logger.byLevel(LogLevelWarn))

	slow := mw(func(ctx context.Context, call *Call) error {
		time.Sleep(5 * time.Millisecond)
		return nil
	})
	require.NoError(t, slow(context.Background(), &Call{Method: MethodCount}))
	assert.Len(t, logger.byLevel(LogLevelWarn), 1)
}
