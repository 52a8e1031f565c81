package tls

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net"
	"os"
)

var (
	// ErrFingerprintMismatch is returned when a certificate does not match a
	// pinned or previously accepted fingerprint.
	ErrFingerprintMismatch = errors.New("certificate fingerprint mismatch")

	// ErrCertificateRejected is returned when the user declines an unknown
	// certificate.
	ErrCertificateRejected = errors.New("certificate rejected by user")
)

// TrustOptions selects how the provider certificate is verified. In order of
// precedence: CACert, then CAFingerprint, then the system roots with a
// trust-on-first-use fallback when Store is set.
type TrustOptions struct {
	// Host is the provider host, with or without port. It keys the
	// known-certificates store and, without port, is the verified DNS name.
	Host string

	// CACert is a PEM file holding the provider CA.
	CACert string

	// CAFingerprint pins the provider CA ("SHA256: hex"). With CACert it must
	// match a certificate in the file; alone it must match a certificate the
	// server presents.
	CAFingerprint string

	// Roots overrides the system roots.
	Roots *x509.CertPool

	// Store enables trust on first use.
	Store *CertificateStore

	// Accept decides about unknown certificates. Defaults to
	// PromptAcceptCertificate.
	Accept func(host string, cert *x509.Certificate) bool
}

// NewConfig builds the client TLS configuration for opts.
func NewConfig(opts TrustOptions) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if opts.CACert != "" {
		pool, err := loadCAFile(opts.CACert, opts.CAFingerprint)
		if err != nil {
			return nil, err
		}
		cfg.RootCAs = pool
		return cfg, nil
	}

	dnsName := hostname(opts.Host)

	if opts.CAFingerprint != "" {
		if _, err := ParseFingerprint(opts.CAFingerprint); err != nil {
			return nil, err
		}
		// Chain verification happens in verifyPinned.
		cfg.InsecureSkipVerify = true // #nosec G402
		cfg.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			return verifyPinned(rawCerts, dnsName, opts.CAFingerprint)
		}
		return cfg, nil
	}

	if opts.Store == nil {
		cfg.RootCAs = opts.Roots
		return cfg, nil
	}

	accept := opts.Accept
	if accept == nil {
		accept = PromptAcceptCertificate
	}
	// Chain verification happens in verifyTOFU.
	cfg.InsecureSkipVerify = true // #nosec G402
	cfg.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		return verifyTOFU(rawCerts, opts.Host, dnsName, opts.Roots, opts.Store, accept)
	}
	return cfg, nil
}

func loadCAFile(path, fingerprint string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is user-provided config
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("failed to parse CA certificate %s", path)
	}

	if fingerprint == "" {
		return pool, nil
	}
	if _, err := ParseFingerprint(fingerprint); err != nil {
		return nil, err
	}
	certs, err := parsePEMCertificates(data)
	if err != nil {
		return nil, err
	}
	for _, cert := range certs {
		if FingerprintMatches(cert, fingerprint) {
			return pool, nil
		}
	}
	return nil, fmt.Errorf("%w: no certificate in %s matches %s", ErrFingerprintMismatch, path, fingerprint)
}

// verifyPinned accepts a chain whose leaf verifies against the presented
// certificate matching fingerprint.
func verifyPinned(rawCerts [][]byte, dnsName, fingerprint string) error {
	certs, err := parseCertificates(rawCerts)
	if err != nil {
		return err
	}

	for _, ca := range certs {
		if !FingerprintMatches(ca, fingerprint) {
			continue
		}
		roots := x509.NewCertPool()
		roots.AddCert(ca)
		return verifyChain(certs, dnsName, roots)
	}
	return fmt.Errorf("%w: server presented no certificate matching %s", ErrFingerprintMismatch, fingerprint)
}

// verifyTOFU accepts a chain the roots vouch for, else the leaf the user
// accepted for host before, else asks.
func verifyTOFU(rawCerts [][]byte, host, dnsName string, roots *x509.CertPool, store *CertificateStore,
	accept func(string, *x509.Certificate) bool,
) error {
	certs, err := parseCertificates(rawCerts)
	if err != nil {
		return err
	}
	if verifyChain(certs, dnsName, roots) == nil {
		return nil
	}

	leaf := certs[0]
	if err := store.VerifyFingerprint(host, leaf); err != nil {
		return err
	}
	if store.IsKnown(host, leaf) {
		return nil
	}

	if !accept(host, leaf) {
		return ErrCertificateRejected
	}
	if err := store.Add(host, leaf); err != nil {
		return fmt.Errorf("failed to save certificate: %w", err)
	}
	return nil
}

func verifyChain(certs []*x509.Certificate, dnsName string, roots *x509.CertPool) error {
	intermediates := x509.NewCertPool()
	for _, cert := range certs[1:] {
		intermediates.AddCert(cert)
	}
	_, err := certs[0].Verify(x509.VerifyOptions{
		DNSName:       dnsName,
		Roots:         roots,
		Intermediates: intermediates,
	})
	return err
}

func parseCertificates(rawCerts [][]byte) ([]*x509.Certificate, error) {
	if len(rawCerts) == 0 {
		return nil, errors.New("no TLS certificate received from server")
	}
	certs := make([]*x509.Certificate, 0, len(rawCerts))
	for _, raw := range rawCerts {
		cert, err := x509.ParseCertificate(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse server certificate: %w", err)
		}
		certs = append(certs, cert)
	}
	return certs, nil
}

func parsePEMCertificates(data []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return certs, nil
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse CA certificate: %w", err)
		}
		certs = append(certs, cert)
	}
}

func hostname(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
