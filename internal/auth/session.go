package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	// ErrSessionNotFound is returned when a session token is unknown.
	ErrSessionNotFound = errors.New("session token not found")

	// ErrSessionExpired is returned when a session token has expired.
	ErrSessionExpired = errors.New("session token expired")

	// ErrInvalidSignature is returned when a token does not carry our HMAC.
	ErrInvalidSignature = errors.New("invalid session token signature")
)

const (
	// DefaultSessionCookie is the cookie a provider sets after a verified login.
	DefaultSessionCookie = "_session_id"

	// DefaultSessionTTL is the default session lifetime.
	DefaultSessionTTL = 30 * time.Minute

	// TokenIDBytes is the number of random bytes in the token ID.
	TokenIDBytes = 32
)

// Session is an authenticated provider session.
type Session struct {
	Token     string // token_id.signature
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionManager issues and tracks the tokens handed out as session cookies.
// Expired sessions are removed whenever the manager is touched.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionManager creates a manager signing tokens with secret.
func NewSessionManager(secret []byte, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		secret:   secret,
		ttl:      ttl,
		now:      time.Now,
	}
}

// CreateSession creates a session for username and returns its token.
func (sm *SessionManager) CreateSession(username string) (string, error) {
	tokenIDBytes := make([]byte, TokenIDBytes)
	if _, err := rand.Read(tokenIDBytes); err != nil {
		return "", fmt.Errorf("failed to generate token ID: %w", err)
	}
	tokenID := base64.RawURLEncoding.EncodeToString(tokenIDBytes)
	token := tokenID + "." + sm.computeSignature(tokenID, username)

	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.cleanup()
	now := sm.now()
	sm.sessions[token] = &Session{
		Token:     token,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(sm.ttl),
	}
	return token, nil
}

// ValidateSession returns the session for token.
func (sm *SessionManager) ValidateSession(token string) (*Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, ok := sm.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sm.now().After(session.ExpiresAt) {
		delete(sm.sessions, token)
		return nil, ErrSessionExpired
	}
	if !sm.verifySignature(token, session.Username) {
		return nil, ErrInvalidSignature
	}
	return session, nil
}

// InvalidateSession ends the session for token.
func (sm *SessionManager) InvalidateSession(token string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, ok := sm.sessions[token]; !ok {
		return ErrSessionNotFound
	}
	delete(sm.sessions, token)
	return nil
}

// Count returns the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.cleanup()
	return len(sm.sessions)
}

// HMAC-SHA256(token_id | username, secret)
func (sm *SessionManager) computeSignature(tokenID, username string) string {
	h := hmac.New(sha256.New, sm.secret)
	h.Write([]byte(tokenID))
	h.Write([]byte(username))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func (sm *SessionManager) verifySignature(token, username string) bool {
	i := strings.LastIndexByte(token, '.')
	if i <= 0 || i == len(token)-1 {
		return false
	}
	expected := sm.computeSignature(token[:i], username)
	return hmac.Equal([]byte(token[i+1:]), []byte(expected))
}

// cleanup drops expired sessions. The caller holds the lock.
func (sm *SessionManager) cleanup() {
	now := sm.now()
	for token, session := range sm.sessions {
		if now.After(session.ExpiresAt) {
			delete(sm.sessions, token)
		}
	}
}

// GenerateSessionSecret returns 32 random bytes for HMAC signing.
func GenerateSessionSecret() ([]byte, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate session secret: %w", err)
	}
	return secret, nil
}
