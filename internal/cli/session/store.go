// Package session persists the provider session credential obtained by a
// login so later commands (logout, status) can use it.
package session

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leapcode/leapsrp/internal/cli/config"
)

const (
	credentialFileMode = 0o600 // Owner read/write only
)

// Credential is what a verified login leaves behind: the cookie carrying the
// session token, keyed by provider API URL.
type Credential struct {
	APIURL    string    `yaml:"api_url" json:"api_url"`
	Username  string    `yaml:"username" json:"username"`
	Carrier   string    `yaml:"carrier" json:"carrier"`
	Token     string    `yaml:"token" json:"-"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
}

// Store manages credential persistence in the OS cache directory.
type Store struct {
	dir string
}

// NewStore creates a store in the OS-specific cache directory.
func NewStore() (*Store, error) {
	cacheDir, err := config.UserCacheDir()
	if err != nil {
		return nil, err
	}
	return NewStoreAt(cacheDir)
}

// NewStoreAt creates a store in dir, creating it with 0700 permissions.
func NewStoreAt(dir string) (*Store, error) {
	if err := config.EnsureDir(dir); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// Save writes cred with 0600 permissions, replacing any credential for the
// same API URL.
func (s *Store) Save(cred *Credential) error {
	if cred.APIURL == "" || cred.Token == "" {
		return fmt.Errorf("credential needs an API URL and a token")
	}

	data, err := yaml.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal session credential: %w", err)
	}

	if err := os.WriteFile(s.filename(cred.APIURL), data, credentialFileMode); err != nil {
		return fmt.Errorf("failed to save session credential: %w", err)
	}

	return nil
}

// Load returns the credential for apiURL, or nil if none is stored.
func (s *Store) Load(apiURL string) (*Credential, error) {
	data, err := os.ReadFile(s.filename(apiURL)) // #nosec G304 - filename is generated from a hash of the API URL
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session credential: %w", err)
	}

	var cred Credential
	if err := yaml.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("failed to parse session credential: %w", err)
	}
	if cred.Token == "" {
		return nil, nil
	}

	return &cred, nil
}

// Delete removes the credential for apiURL.
func (s *Store) Delete(apiURL string) error {
	if err := os.Remove(s.filename(apiURL)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete session credential: %w", err)
	}

	return nil
}

// filename derives the credential file from the API URL: session-<first 8
// bytes of SHA-256, hex>.yaml.
func (s *Store) filename(apiURL string) string {
	hash := sha256.Sum256([]byte(apiURL))
	return filepath.Join(s.dir, fmt.Sprintf("session-%x.yaml", hash[:8]))
}
