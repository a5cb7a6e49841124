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
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/tomoncle/monk/utils"
	"go.mongodb.org/mongo-driver/event"
)

// CommandLogEnv switches command logging at runtime: "0" or empty disables it,
// "1" prints failed commands only and "2" prints every command.
const CommandLogEnv = "MONGODEBUG"

const maxCommandText = 512

// CommandHook observes driver commands. It feeds the stats recorder, prints
// commands to writer when enabled and warns about slow commands.
type CommandHook struct {
	envName  string
	enabled  bool
	verbose  bool
	slowTime time.Duration
	writer   io.Writer
	logger   Logger
	stats    *statsRecorder
	pending  sync.Map
}

func newCommandHook(cfg *ConnectionConfig, logger Logger, stats *statsRecorder) *CommandHook {
	return &CommandHook{
		envName:  CommandLogEnv,
		enabled:  cfg.EnableQueryLog,
		verbose:  cfg.EnableQueryLog,
		slowTime: cfg.SlowQueryTime,
		writer:   os.Stdout,
		logger:   logger,
		stats:    stats,
	}
}

func (h *CommandHook) Monitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Started:   h.onStarted,
		Succeeded: h.onSucceeded,
		Failed:    h.onFailed,
	}
}

func (h *CommandHook) logging() (enabled, verbose bool) {
	def := 0
	if h.enabled {
		def = 1
		if h.verbose {
			def = 2
		}
	}
	level := utils.EnvLevel(h.envName, def)
	return level >= 1, level >= 2
}

func (h *CommandHook) onStarted(_ context.Context, evt *event.CommandStartedEvent) {
	if enabled, _ := h.logging(); !enabled && h.slowTime <= 0 {
		return
	}
	h.pending.Store(evt.RequestID, commandText(evt.Command.String()))
}

func (h *CommandHook) onSucceeded(_ context.Context, evt *event.CommandSucceededEvent) {
	d := time.Duration(evt.DurationNanos)
	if h.stats != nil {
		h.stats.recordCommand(d, false)
	}
	text := h.take(evt.RequestID)

	if h.slowTime > 0 && d > h.slowTime && h.logger != nil {
		h.logger.Warn("slow command detected",
			"command", evt.CommandName,
			"duration", d,
			"slow_threshold", h.slowTime,
			"query", text,
		)
	}
	if enabled, verbose := h.logging(); enabled && verbose {
		h.print(evt.CommandName, text, d, "")
	}
}

func (h *CommandHook) onFailed(_ context.Context, evt *event.CommandFailedEvent) {
	d := time.Duration(evt.DurationNanos)
	if h.stats != nil {
		h.stats.recordCommand(d, true)
	}
	text := h.take(evt.RequestID)
	if enabled, _ := h.logging(); enabled {
		h.print(evt.CommandName, text, d, evt.Failure)
	}
}

func (h *CommandHook) take(requestID int64) string {
	v, ok := h.pending.LoadAndDelete(requestID)
	if !ok {
		return ""
	}
	return v.(string)
}

func (h *CommandHook) print(command, text string, d time.Duration, failure string) {
	if text == "" {
		text = command
	}
	args := []interface{}{
		time.Now().Format("2006-01-02 15:04:05.000"),
		color.New(color.FgCyan).Sprintf("%15s", "[MONGO]"),
		fmt.Sprintf("%17s", d.Round(time.Microsecond)),
		"  ", commandColor(command).Sprint(text),
	}
	if failure != "" {
		args = append(args, "\t", color.New(color.BgRed, color.FgHiWhite).Sprintf(" %s ", failure))
	}
	_, _ = fmt.Fprintln(h.writer, args...)
}

func commandColor(command string) *color.Color {
	switch command {
	case "find", "aggregate", "count", "distinct", "getMore":
		return color.New(color.FgGreen)
	case "insert":
		return color.New(color.FgBlue)
	case "update", "findAndModify":
		return color.New(color.FgYellow)
	case "delete":
		return color.New(color.FgMagenta)
	default:
		return color.New(color.FgRed)
	}
}

func commandText(s string) string {
	r := []rune(s)
	if len(r) <= maxCommandText {
		return s
	}
	return string(r[:maxCommandText]) + "..."
}
