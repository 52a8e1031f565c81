package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactor_RedactFields(t *testing.T) {
	r := NewRedactor()

	got := r.RedactFields(map[string]any{
		"username": "alice",
		"password": "hunter2",
		"Salt":     "c0ffee",
		"nested": map[string]any{
			"session_key": "00ff",
			"carrier":     "_session_id",
		},
	})

	assert.Equal(t, "alice", got["username"])
	assert.Equal(t, redactedValue, got["password"])
	assert.Equal(t, redactedValue, got["Salt"])
	nested := got["nested"].(map[string]any)
	assert.Equal(t, redactedValue, nested["session_key"])
	assert.Equal(t, "_session_id", nested["carrier"])

	assert.Nil(t, r.RedactFields(nil))
}

func TestRedactor_CustomKeys(t *testing.T) {
	r := NewRedactor()

	r.AddSensitiveKey("Provider")
	r.RemoveSensitiveKey("salt")

	got := r.RedactFields(map[string]any{"provider": "demo", "salt": "01"})
	assert.Equal(t, redactedValue, got["provider"])
	assert.Equal(t, "01", got["salt"])
}

func TestRedactor_RedactURL(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "client proof",
			input:    "https://api.example.org/1/sessions/alice.json?client_auth=deadbeef",
			expected: "https://api.example.org/1/sessions/alice.json?client_auth=%5BREDACTED%5D",
		},
		{
			name:     "login kept",
			input:    "https://api.example.org/1/sessions.json?login=alice",
			expected: "https://api.example.org/1/sessions.json?login=alice",
		},
		{
			name:     "no query",
			input:    "https://api.example.org/1/logout",
			expected: "https://api.example.org/1/logout",
		},
		{
			name:     "unparseable",
			input:    "://bad",
			expected: redactedValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.RedactURL(tt.input))
		})
	}
}
