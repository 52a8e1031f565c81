package logging

import (
	"net/url"
	"strings"
)

const redactedValue = "[REDACTED]"

// Redactor masks secret values in log fields and URLs.
type Redactor struct {
	sensitiveKeys map[string]bool
}

// NewRedactor creates a Redactor with the default sensitive keys.
func NewRedactor() *Redactor {
	return &Redactor{
		sensitiveKeys: map[string]bool{
			// credentials
			"password":      true,
			"secret":        true,
			"authorization": true,
			"cookie":        true,
			"set-cookie":    true,

			// SRP values
			"a":           true, // client private ephemeral
			"b":           true, // server private ephemeral
			"x":           true,
			"verifier":    true,
			"salt":        true,
			"m1":          true,
			"m2":          true,
			"client_auth": true,
			"session_key": true,

			// session
			"token":              true,
			"session_token":      true,
			"authenticity_token": true,
		},
	}
}

// AddSensitiveKey adds a custom key to the redaction list.
func (r *Redactor) AddSensitiveKey(key string) {
	r.sensitiveKeys[strings.ToLower(key)] = true
}

// RemoveSensitiveKey removes a key from the redaction list.
func (r *Redactor) RemoveSensitiveKey(key string) {
	delete(r.sensitiveKeys, strings.ToLower(key))
}

// RedactFields returns a copy of fields with sensitive values replaced.
// Nested maps are redacted recursively.
func (r *Redactor) RedactFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}

	redacted := make(map[string]any, len(fields))
	for k, v := range fields {
		switch {
		case r.isSensitiveKey(k):
			redacted[k] = redactedValue
		case isMap(v):
			redacted[k] = r.RedactFields(v.(map[string]any))
		default:
			redacted[k] = v
		}
	}
	return redacted
}

// RedactURL masks sensitive query parameters of a request URL. Strings that
// do not parse are returned fully redacted.
func (r *Redactor) RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return redactedValue
	}
	if u.RawQuery == "" {
		return raw
	}

	q := u.Query()
	for k := range q {
		if r.isSensitiveKey(k) {
			q.Set(k, redactedValue)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// isSensitiveKey matches keys exactly, ignoring case. Substring matching
// catches too many legitimate fields.
func (r *Redactor) isSensitiveKey(key string) bool {
	return r.sensitiveKeys[strings.ToLower(key)]
}

func isMap(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}
