package tls

import (
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leapcode/leapsrp/internal/cli/config"
)

const knownCertsFileName = "known_certs.yaml"

// CertificateEntry represents a known certificate fingerprint.
type CertificateEntry struct {
	Host        string    `yaml:"host"`
	Fingerprint string    `yaml:"fingerprint"`
	AcceptedAt  time.Time `yaml:"accepted_at"`
}

// CertificateStore manages the fingerprints of certificates the user
// accepted on first use.
type CertificateStore struct {
	mu       sync.Mutex
	filePath string
	certs    map[string]CertificateEntry // Key: host, Value: certificate entry
}

// knownCertsFile represents the YAML structure of the known_certs.yaml file.
type knownCertsFile struct {
	Certificates []CertificateEntry `yaml:"certificates"`
}

// NewCertificateStore opens the store in the user config directory.
func NewCertificateStore() (*CertificateStore, error) {
	configDir, err := config.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return NewCertificateStoreAt(configDir)
}

// NewCertificateStoreAt opens the store kept in dir, creating dir if needed.
func NewCertificateStoreAt(dir string) (*CertificateStore, error) {
	if err := config.EnsureDir(dir); err != nil {
		return nil, err
	}

	store := &CertificateStore{
		filePath: filepath.Join(dir, knownCertsFileName),
		certs:    make(map[string]CertificateEntry),
	}

	if err := store.load(); err != nil {
		return nil, err
	}

	return store, nil
}

// Path returns the location of the known certificates file.
func (s *CertificateStore) Path() string {
	return s.filePath
}

func (s *CertificateStore) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read known certificates file: %w", err)
	}

	var file knownCertsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse known certificates file: %w", err)
	}

	for _, entry := range file.Certificates {
		s.certs[entry.Host] = entry
	}

	return nil
}

// save writes the entries sorted by host. Callers hold s.mu.
func (s *CertificateStore) save() error {
	certs := make([]CertificateEntry, 0, len(s.certs))
	for _, entry := range s.certs {
		certs = append(certs, entry)
	}
	sort.Slice(certs, func(i, j int) bool { return certs[i].Host < certs[j].Host })

	data, err := yaml.Marshal(&knownCertsFile{Certificates: certs})
	if err != nil {
		return fmt.Errorf("failed to marshal known certificates: %w", err)
	}

	// #nosec G306 - Certificate fingerprints are public information, 0644 is appropriate
	if err := os.WriteFile(s.filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write known certificates file: %w", err)
	}

	return nil
}

// IsKnown checks if a certificate fingerprint is known for the given host.
func (s *CertificateStore) IsKnown(host string, cert *x509.Certificate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.certs[host]
	return exists && FingerprintMatches(cert, entry.Fingerprint)
}

// Add records cert as trusted for host.
func (s *CertificateStore) Add(host string, cert *x509.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.certs[host] = CertificateEntry{
		Host:        host,
		Fingerprint: ComputeFingerprint(cert),
		AcceptedAt:  time.Now().UTC(),
	}

	return s.save()
}

// Get retrieves the stored certificate entry for a host.
// Returns nil if not found.
func (s *CertificateStore) Get(host string) *CertificateEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, exists := s.certs[host]; exists {
		return &entry
	}
	return nil
}

// Remove removes a certificate fingerprint from the store.
func (s *CertificateStore) Remove(host string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.certs, host)
	return s.save()
}

// VerifyFingerprint checks if the certificate matches the known fingerprint.
// Returns nil if the fingerprint matches or if no fingerprint is known.
// Returns an error if the fingerprint doesn't match (possible MITM attack).
func (s *CertificateStore) VerifyFingerprint(host string, cert *x509.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.certs[host]
	if !exists {
		return nil
	}

	if !FingerprintMatches(cert, entry.Fingerprint) {
		return fmt.Errorf("%w for %s\n"+
			"Expected: %s\n"+
			"Got:      %s\n"+
			"This could indicate a man-in-the-middle attack or certificate rotation.\n"+
			"If you trust this certificate, remove the old entry from: %s",
			ErrFingerprintMismatch, host, entry.Fingerprint, ComputeFingerprint(cert), s.filePath)
	}

	return nil
}
