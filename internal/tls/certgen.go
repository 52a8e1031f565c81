// Package tls provides certificate generation and server TLS configuration
// for the development provider.
package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"slices"
	"time"
)

// getSystemHostname returns the system hostname, or empty string if unavailable.
func getSystemHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}
	return hostname
}

// buildSANs constructs DNS names and IP addresses for certificate SANs from
// the loopback names, the system hostname and the configured hosts.
func buildSANs(hosts []string) (dnsNames []string, ipAddresses []net.IP) {
	dnsNames = []string{"localhost"}
	ipAddresses = []net.IP{
		net.ParseIP("127.0.0.1"),
		net.ParseIP("::1"),
	}

	if hostname := getSystemHostname(); hostname != "" && hostname != "localhost" {
		dnsNames = append(dnsNames, hostname)
	}

	for _, host := range hosts {
		if ip := net.ParseIP(host); ip != nil {
			if !slices.ContainsFunc(ipAddresses, ip.Equal) {
				ipAddresses = append(ipAddresses, ip)
			}
			continue
		}
		if !slices.Contains(dnsNames, host) {
			dnsNames = append(dnsNames, host)
		}
	}

	return dnsNames, ipAddresses
}

// GenerateSelfSignedCert generates a self-signed certificate and key for the
// provider API. The certificate doubles as the provider CA that clients pin.
//
//nolint:gosec // G304: File paths are from config, G302: 0644 is appropriate for certs
func GenerateSelfSignedCert(certPath, keyPath string, validDays int, hosts []string) (err error) {
	// ECDSA P-256 key
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate private key: %w", err)
	}

	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	serialNumber, err := rand.Int(rand.Reader, serialNumberLimit)
	if err != nil {
		return fmt.Errorf("failed to generate serial number: %w", err)
	}

	dnsNames, ipAddresses := buildSANs(hosts)

	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"LEAP SRP"},
			CommonName:   "LEAP SRP Development Provider",
		},
		NotBefore: now.Add(-time.Minute),
		NotAfter:  now.Add(time.Duration(validDays) * 24 * time.Hour),

		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,

		DNSNames:    dnsNames,
		IPAddresses: ipAddresses,
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}

	privateKeyBytes, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return fmt.Errorf("failed to marshal private key: %w", err)
	}

	//nolint:gofumpt // formatting is acceptable
	if err := writePEM(certPath, "CERTIFICATE", derBytes, 0644); err != nil {
		return fmt.Errorf("failed to write cert: %w", err)
	}

	//nolint:gofumpt // formatting is acceptable
	if err := writePEM(keyPath, "EC PRIVATE KEY", privateKeyBytes, 0600); err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}

	return nil
}

//nolint:gosec // G304: path is from config
func writePEM(path, blockType string, der []byte, mode os.FileMode) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		return err
	}

	// OpenFile leaves an existing file's mode alone.
	return os.Chmod(path, mode)
}

// CertificateExists checks if both certificate and key files exist.
func CertificateExists(certPath, keyPath string) bool {
	if _, err := os.Stat(certPath); os.IsNotExist(err) {
		return false
	}
	if _, err := os.Stat(keyPath); os.IsNotExist(err) {
		return false
	}
	return true
}

// LoadCertificate reads the first certificate of a PEM file.
//
//nolint:gosec // G304: Certificate path is from config
func LoadCertificate(certPath string) (*x509.Certificate, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate: %w", err)
	}

	block, _ := pem.Decode(certPEM)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	return cert, nil
}

// ValidateCertificate checks if a certificate file is valid and not expired.
func ValidateCertificate(certPath string) error {
	cert, err := LoadCertificate(certPath)
	if err != nil {
		return err
	}

	now := time.Now()
	if now.Before(cert.NotBefore) {
		return fmt.Errorf("certificate is not yet valid")
	}
	if now.After(cert.NotAfter) {
		return fmt.Errorf("certificate has expired")
	}

	return nil
}

// EnsureCertificate generates a certificate pair unless a valid one exists.
// It reports whether a new pair was written.
func EnsureCertificate(certPath, keyPath string, validDays int, hosts []string) (bool, error) {
	if CertificateExists(certPath, keyPath) && ValidateCertificate(certPath) == nil {
		return false, nil
	}

	if err := GenerateSelfSignedCert(certPath, keyPath, validDays, hosts); err != nil {
		return false, err
	}
	return true, nil
}
