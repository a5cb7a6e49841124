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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Logger = logrus.Logger

const defaultTimestampFormat = "2006-01-02 15:04:05.000"

var (
	defaultLevel     = ParseLogLevel(EnvDefaultString("LOG_LEVEL", "info"))
	consoleLogFormat = EnvDefaultString("CONSOLE_LOG_FORMAT", "text")
	loggerOutput     = io.Writer(os.Stdout)
	loggerRegistry   = map[string]*logrus.Logger{}
)

var loggerRegistryMu sync.RWMutex

// ConfigureConsoleLogFormat switches newly created loggers between "text" and "json".
func ConfigureConsoleLogFormat(format string) {
	if strings.ToLower(strings.TrimSpace(format)) == "json" {
		consoleLogFormat = "json"
	} else {
		consoleLogFormat = "text"
	}
}

// ConfigureOutput redirects every registered logger, and those created later, to w.
func ConfigureOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	loggerOutput = w
	for _, lg := range loggerRegistry {
		lg.SetOutput(w)
	}
}

func ParseLogLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "info", "":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

func RegisterLogger(name string, l *logrus.Logger) {
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	loggerRegistry[name] = l
}

// LookupLogger returns a previously registered logger.
func LookupLogger(name string) (*logrus.Logger, bool) {
	loggerRegistryMu.RLock()
	defer loggerRegistryMu.RUnlock()
	l, ok := loggerRegistry[name]
	return l, ok
}

func SetLoggerLevel(name string, lvlStr string) bool {
	lg, ok := LookupLogger(name)
	if !ok {
		return false
	}
	lg.SetLevel(ParseLogLevel(lvlStr))
	return true
}

// ConfigureLogLevel sets the level of every registered logger and of loggers created later.
func ConfigureLogLevel(levelStr string) {
	lvl := ParseLogLevel(levelStr)
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	defaultLevel = lvl
	for _, lg := range loggerRegistry {
		lg.SetLevel(lvl)
	}
}

// NewLogger builds a named logrus logger and registers it, so its level can be
// changed later through SetLoggerLevel.
func NewLogger(name string) *logrus.Logger {
	if l, ok := LookupLogger(name); ok {
		return l
	}
	l := logrus.New()
	loggerRegistryMu.RLock()
	l.SetOutput(loggerOutput)
	l.SetLevel(defaultLevel)
	loggerRegistryMu.RUnlock()
	l.SetReportCaller(true)
	if consoleLogFormat == "json" {
		l.SetFormatter(&JSONLogFormatter{LoggerName: name})
	} else {
		l.SetFormatter(&Log4jColorFormatter{LoggerName: name, NameWidth: 10, CallerWidth: 25})
	}
	RegisterLogger(name, l)
	return l
}

// Log4jColorFormatter renders "time LEVEL pid --- [name] caller : message k=v".
type Log4jColorFormatter struct {
	LoggerName      string
	TimestampFormat string
	NameWidth       int
	CallerWidth     int
	DisableColors   bool
}

func (f *Log4jColorFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	tsFormat := f.TimestampFormat
	if tsFormat == "" {
		tsFormat = defaultTimestampFormat
	}
	lvl := padLeft(strings.ToUpper(entry.Level.String()), 7)
	name := padLeft(limitRunes(f.LoggerName, f.NameWidth), f.NameWidth)
	caller := ""
	if entry.Caller != nil {
		caller = fmt.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
		if f.CallerWidth > 0 {
			caller = padLeft(limitRunesTail(caller, f.CallerWidth), f.CallerWidth)
		}
	}
	if !f.DisableColors {
		lvl = colorLevel(lvl, entry.Level)
		name = colorWrap(name, ansiCyan)
		caller = colorWrap(caller, ansiFaint)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %-6d --- [%s] %s : %s",
		entry.Time.Format(tsFormat), lvl, os.Getpid(), name, caller, entry.Message)
	for _, k := range sortedKeys(entry.Data) {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

type JSONLogFormatter struct {
	LoggerName      string
	TimestampFormat string
}

func (f *JSONLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	tsFormat := f.TimestampFormat
	if tsFormat == "" {
		tsFormat = defaultTimestampFormat
	}

	type jsonLogRecord struct {
		Time    string                 `json:"time"`
		Level   string                 `json:"level"`
		Logger  string                 `json:"logger"`
		Caller  string                 `json:"caller,omitempty"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields,omitempty"`
	}

	rec := jsonLogRecord{
		Time:    entry.Time.Format(tsFormat),
		Level:   strings.ToLower(entry.Level.String()),
		Logger:  f.LoggerName,
		Message: entry.Message,
	}
	if entry.Caller != nil {
		rec.Caller = fmt.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}
	if len(entry.Data) > 0 {
		rec.Fields = make(map[string]interface{}, len(entry.Data))
		for k, v := range entry.Data {
			if err, ok := v.(error); ok {
				v = err.Error()
			}
			rec.Fields[k] = v
		}
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

const (
	ansiReset   = "\x1b[0m"
	ansiFaint   = "\x1b[2m"
	ansiRed     = "\x1b[31m"
	ansiYellow  = "\x1b[33m"
	ansiGreen   = "\x1b[32m"
	ansiBlue    = "\x1b[34m"
	ansiMagenta = "\x1b[35m"
	ansiCyan    = "\x1b[36m"
)

func colorWrap(s, code string) string { return code + s + ansiReset }

func colorLevel(s string, level logrus.Level) string {
	switch level {
	case logrus.TraceLevel:
		return colorWrap(s, ansiMagenta)
	case logrus.DebugLevel:
		return colorWrap(s, ansiBlue)
	case logrus.InfoLevel:
		return colorWrap(s, ansiGreen)
	case logrus.WarnLevel:
		return colorWrap(s, ansiYellow)
	default:
		return colorWrap(s, ansiRed)
	}
}

func padLeft(s string, width int) string {
	if width <= 0 {
		return s
	}
	return fmt.Sprintf("%*s", width, s)
}

func limitRunes(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n])
}

// limitRunesTail keeps the last n runes, which is the informative end of a caller path.
func limitRunesTail(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Since is a small helper for "duration" log fields.
func Since(start time.Time) string {
	return time.Since(start).Round(time.Microsecond).String()
}
