package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(level LogLevel, format LogFormat) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(level, format)
	l.SetOutput(&buf)
	l.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return l, &buf
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected []string
	}{
		{level: LevelDebug, expected: []string{"debug", "info", "warn", "error"}},
		{level: LevelInfo, expected: []string{"info", "warn", "error"}},
		{level: LevelWarn, expected: []string{"warn", "error"}},
		{level: LevelError, expected: []string{"error"}},
		{level: LevelOff, expected: nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			l, buf := newTestLogger(tt.level, FormatJSON)
			l.Debug("debug")
			l.Info("info")
			l.Warn("warn")
			l.Error("error")

			var got []string
			for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
				if line == "" {
					continue
				}
				var entry logEntry
				require.NoError(t, json.Unmarshal([]byte(line), &entry))
				got = append(got, entry.Message)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLogger_JSONRedactsFields(t *testing.T) {
	l, buf := newTestLogger(LevelInfo, FormatJSON)

	l.Info("login verified", map[string]any{
		"username":      "alice",
		"session_token": "abc123",
		"M1":            "deadbeef",
	})

	var entry logEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "2024-05-01T12:00:00Z", entry.Timestamp)
	assert.Equal(t, "info", entry.Level)
	assert.Equal(t, "alice", entry.Fields["username"])
	assert.Equal(t, redactedValue, entry.Fields["session_token"])
	assert.Equal(t, redactedValue, entry.Fields["M1"])
}

func TestLogger_HumanFormatSortsFields(t *testing.T) {
	l, buf := newTestLogger(LevelInfo, FormatHuman)

	l.Info("exchange", map[string]any{"step": "init", "attempt": 1})

	assert.Equal(t, "[2024-05-01T12:00:00Z] info: exchange attempt=1 step=init\n", buf.String())
}

func TestLogger_With(t *testing.T) {
	l, buf := newTestLogger(LevelInfo, FormatHuman)

	child := l.With(map[string]any{"attempt_id": "42"})
	child.Info("start", map[string]any{"username": "alice"})
	l.Info("parent")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "attempt_id=42")
	assert.Contains(t, lines[0], "username=alice")
	assert.NotContains(t, lines[1], "attempt_id")
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	assert.False(t, l.Enabled(LevelError))
	l.Error("dropped")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
		wantErr  bool
	}{
		{input: "", expected: LevelInfo},
		{input: "DEBUG", expected: LevelDebug},
		{input: " warn ", expected: LevelWarn},
		{input: "off", expected: LevelOff},
		{input: "verbose", expected: LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			assert.Equal(t, tt.expected, got)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	got, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, got)

	got, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatHuman, got)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
