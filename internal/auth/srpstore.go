package auth

import (
	"sync"
	"time"
)

// pendingLogin holds a Server between the two exchanges.
type pendingLogin struct {
	server    *Server
	expiresAt time.Time
}

// SRPStore keeps Server instances between the init and verify exchanges.
// LEAP addresses the second exchange by username, so entries are keyed by
// username and a new init replaces the previous one. Expired entries are
// dropped lazily.
type SRPStore struct {
	mu      sync.Mutex
	pending map[string]*pendingLogin
	ttl     time.Duration
	now     func() time.Time
}

// NewSRPStore creates a store whose entries live for ttl.
func NewSRPStore(ttl time.Duration) *SRPStore {
	return &SRPStore{
		pending: make(map[string]*pendingLogin),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Store saves server for username, replacing and clearing any older entry.
func (s *SRPStore) Store(username string, server *Server) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanup()
	if old, ok := s.pending[username]; ok {
		old.server.ClearSecrets()
	}
	s.pending[username] = &pendingLogin{
		server:    server,
		expiresAt: s.now().Add(s.ttl),
	}
}

// Retrieve removes and returns the server for username. It returns nil when
// there is none or it has expired.
func (s *SRPStore) Retrieve(username string) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanup()
	entry, ok := s.pending[username]
	if !ok {
		return nil
	}
	delete(s.pending, username)
	return entry.server
}

// Count returns the number of pending logins.
func (s *SRPStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanup()
	return len(s.pending)
}

// cleanup drops expired entries. The caller holds the lock.
func (s *SRPStore) cleanup() {
	now := s.now()
	for username, entry := range s.pending {
		if now.After(entry.expiresAt) {
			entry.server.ClearSecrets()
			delete(s.pending, username)
		}
	}
}
