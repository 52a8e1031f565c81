// Package logging provides levelled, structured logging with secret redaction
// for the leapsrp client.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity level of a log entry.
type LogLevel string

// Log severity levels.
const (
	// LevelDebug enables debug-level logging.
	LevelDebug LogLevel = "debug"
	// LevelInfo enables info-level logging.
	LevelInfo LogLevel = "info"
	// LevelWarn enables warn-level logging.
	LevelWarn LogLevel = "warn"
	// LevelError enables error-level logging.
	LevelError LogLevel = "error"
	// LevelOff disables logging.
	LevelOff LogLevel = "off"
)

var levelRank = map[LogLevel]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
	LevelOff:   4,
}

// LogFormat represents the output format for log entries.
type LogFormat string

// Log output formats.
const (
	// FormatJSON outputs one JSON object per line.
	FormatJSON LogFormat = "json"
	// FormatHuman outputs logs in human-readable format (default).
	FormatHuman LogFormat = "human"
)

// ParseLevel converts a level name. Unknown names yield an error and LevelInfo.
func ParseLevel(s string) (LogLevel, error) {
	level := LogLevel(strings.ToLower(strings.TrimSpace(s)))
	if level == "" {
		return LevelInfo, nil
	}
	if _, ok := levelRank[level]; !ok {
		return LevelInfo, fmt.Errorf("invalid log level %q (valid: debug, info, warn, error, off)", s)
	}
	return level, nil
}

// ParseFormat converts a format name. Unknown names yield an error and FormatHuman.
func ParseFormat(s string) (LogFormat, error) {
	switch LogFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatHuman:
		return FormatHuman, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return FormatHuman, fmt.Errorf("invalid log format %q (valid: human, json)", s)
	}
}

// sink is the shared output state of a logger and its children.
type sink struct {
	mu  sync.Mutex
	out io.Writer
}

// Logger provides structured logging with secret redaction. Loggers derived
// with With share the parent's output.
type Logger struct {
	level    LogLevel
	format   LogFormat
	redactor *Redactor
	sink     *sink
	fields   map[string]any
	now      func() time.Time
}

// logEntry represents a single log entry in JSON format.
type logEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// New creates a Logger writing to stderr, keeping stdout free for command
// output.
func New(level LogLevel, format LogFormat) *Logger {
	return &Logger{
		level:    level,
		format:   format,
		redactor: NewRedactor(),
		sink:     &sink{out: os.Stderr},
		now:      time.Now,
	}
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	l := New(LevelOff, FormatHuman)
	l.sink.out = io.Discard
	return l
}

// SetOutput redirects the logger and every logger derived from it.
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.out = w
}

// With returns a child logger that adds fields to every entry.
func (l *Logger) With(fields map[string]any) *Logger {
	child := *l
	child.fields = mergeFields(l.fields, fields)
	return &child
}

// Enabled reports whether entries at level are written.
func (l *Logger) Enabled(level LogLevel) bool {
	return levelRank[level] >= levelRank[l.level] && l.level != LevelOff
}

// Debug logs a debug-level message.
func (l *Logger) Debug(msg string, fields ...map[string]any) {
	l.log(LevelDebug, msg, fields)
}

// DebugContext logs a debug-level message with context.
func (l *Logger) DebugContext(_ context.Context, msg string, fields ...map[string]any) {
	l.log(LevelDebug, msg, fields)
}

// Info logs an info-level message.
func (l *Logger) Info(msg string, fields ...map[string]any) {
	l.log(LevelInfo, msg, fields)
}

// InfoContext logs an info-level message with context.
func (l *Logger) InfoContext(_ context.Context, msg string, fields ...map[string]any) {
	l.log(LevelInfo, msg, fields)
}

// Warn logs a warn-level message.
func (l *Logger) Warn(msg string, fields ...map[string]any) {
	l.log(LevelWarn, msg, fields)
}

// Error logs an error-level message.
func (l *Logger) Error(msg string, fields ...map[string]any) {
	l.log(LevelError, msg, fields)
}

func (l *Logger) log(level LogLevel, msg string, fields []map[string]any) {
	if l == nil || !l.Enabled(level) {
		return
	}

	all := mergeFields(append([]map[string]any{l.fields}, fields...)...)
	entry := logEntry{
		Timestamp: l.now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Message:   msg,
		Fields:    l.redactor.RedactFields(all),
	}

	var output string
	if l.format == FormatJSON {
		output = formatJSON(entry)
	} else {
		output = formatHuman(entry)
	}

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	_, _ = io.WriteString(l.sink.out, output)
}

func formatJSON(entry logEntry) string {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"timestamp":"%s","level":"error","message":"failed to marshal log entry: %s"}`+"\n",
			entry.Timestamp, err.Error())
	}
	return string(data) + "\n"
}

// formatHuman renders fields sorted by key so lines are stable.
func formatHuman(entry logEntry) string {
	var output strings.Builder
	fmt.Fprintf(&output, "[%s] %s: %s", entry.Timestamp, entry.Level, entry.Message)

	for _, k := range slices.Sorted(maps.Keys(entry.Fields)) {
		fmt.Fprintf(&output, " %s=%v", k, entry.Fields[k])
	}

	output.WriteString("\n")
	return output.String()
}

// mergeFields merges field maps, later keys winning.
func mergeFields(fields ...map[string]any) map[string]any {
	var merged map[string]any
	for _, f := range fields {
		if len(f) == 0 {
			continue
		}
		if merged == nil {
			merged = make(map[string]any)
		}
		maps.Copy(merged, f)
	}
	return merged
}
