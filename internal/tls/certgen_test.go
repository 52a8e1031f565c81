//nolint:errcheck,gosec,gofumpt // Test file - unchecked errors and relaxed file permissions acceptable
package tls_test

import (
	"crypto/x509"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tlspkg "github.com/leapcode/leapsrp/internal/tls"
)

func certPaths(t *testing.T) (string, string) {
	t.Helper()
	tmpDir := t.TempDir()
	return filepath.Join(tmpDir, "server.crt"), filepath.Join(tmpDir, "server.key")
}

func TestGenerateSelfSignedCert(t *testing.T) {
	certPath, keyPath := certPaths(t)

	err := tlspkg.GenerateSelfSignedCert(certPath, keyPath, 365, nil)
	require.NoError(t, err)

	assert.FileExists(t, certPath)
	assert.FileExists(t, keyPath)

	certInfo, err := os.Stat(certPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), certInfo.Mode().Perm())

	keyInfo, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), keyInfo.Mode().Perm())
}

func TestGenerateSelfSignedCert_ValidCertificate(t *testing.T) {
	certPath, keyPath := certPaths(t)

	err := tlspkg.GenerateSelfSignedCert(certPath, keyPath, 365, []string{"api.example.org", "10.0.0.7", "localhost"})
	require.NoError(t, err)

	cert, err := tlspkg.LoadCertificate(certPath)
	require.NoError(t, err)

	assert.Contains(t, cert.Subject.Organization, "LEAP SRP")
	assert.Equal(t, "LEAP SRP Development Provider", cert.Subject.CommonName)

	now := time.Now()
	assert.True(t, cert.NotBefore.Before(now))
	assert.True(t, cert.NotAfter.After(now))

	validDuration := cert.NotAfter.Sub(cert.NotBefore)
	assert.InDelta(t, 365*24*time.Hour, validDuration, float64(time.Hour))

	assert.True(t, cert.IsCA)
	assert.True(t, cert.KeyUsage&x509.KeyUsageDigitalSignature != 0)
	assert.Contains(t, cert.ExtKeyUsage, x509.ExtKeyUsageServerAuth)

	assert.Contains(t, cert.DNSNames, "localhost")
	assert.Contains(t, cert.DNSNames, "api.example.org")
	assert.True(t, containsIP(cert.IPAddresses, "127.0.0.1"))
	assert.True(t, containsIP(cert.IPAddresses, "10.0.0.7"))

	count := 0
	for _, name := range cert.DNSNames {
		if name == "localhost" {
			count++
		}
	}
	assert.Equal(t, 1, count, "duplicate SAN")
}

func TestGenerateSelfSignedCert_VerifiesAsOwnRoot(t *testing.T) {
	certPath, keyPath := certPaths(t)
	require.NoError(t, tlspkg.GenerateSelfSignedCert(certPath, keyPath, 30, []string{"api.example.org"}))

	cert, err := tlspkg.LoadCertificate(certPath)
	require.NoError(t, err)

	roots := x509.NewCertPool()
	roots.AddCert(cert)

	_, err = cert.Verify(x509.VerifyOptions{Roots: roots, DNSName: "api.example.org"})
	assert.NoError(t, err)

	_, err = cert.Verify(x509.VerifyOptions{Roots: roots, DNSName: "other.example.org"})
	assert.Error(t, err)
}

func TestGenerateSelfSignedCert_ValidPrivateKey(t *testing.T) {
	certPath, keyPath := certPaths(t)

	err := tlspkg.GenerateSelfSignedCert(certPath, keyPath, 365, nil)
	require.NoError(t, err)

	keyPEM, err := os.ReadFile(keyPath)
	require.NoError(t, err)

	block, _ := pem.Decode(keyPEM)
	require.NotNil(t, block)
	assert.Equal(t, "EC PRIVATE KEY", block.Type)

	_, err = x509.ParseECPrivateKey(block.Bytes)
	require.NoError(t, err)
}

func TestGenerateSelfSignedCert_InvalidPath(t *testing.T) {
	err := tlspkg.GenerateSelfSignedCert("/nonexistent/dir/cert.pem", "/nonexistent/dir/key.pem", 365, nil)
	assert.Error(t, err)
}

func TestCertificateExists(t *testing.T) {
	certPath, keyPath := certPaths(t)

	assert.False(t, tlspkg.CertificateExists(certPath, keyPath))

	require.NoError(t, tlspkg.GenerateSelfSignedCert(certPath, keyPath, 365, nil))
	assert.True(t, tlspkg.CertificateExists(certPath, keyPath))

	os.Remove(certPath)
	assert.False(t, tlspkg.CertificateExists(certPath, keyPath))

	require.NoError(t, tlspkg.GenerateSelfSignedCert(certPath, keyPath, 365, nil))
	os.Remove(keyPath)
	assert.False(t, tlspkg.CertificateExists(certPath, keyPath))
}

func TestEnsureCertificate(t *testing.T) {
	certPath, keyPath := certPaths(t)

	created, err := tlspkg.EnsureCertificate(certPath, keyPath, 30, nil)
	require.NoError(t, err)
	assert.True(t, created)

	first, err := os.ReadFile(certPath)
	require.NoError(t, err)

	created, err = tlspkg.EnsureCertificate(certPath, keyPath, 30, nil)
	require.NoError(t, err)
	assert.False(t, created)

	second, err := os.ReadFile(certPath)
	require.NoError(t, err)
	assert.Equal(t, first, second, "existing certificate must be kept")

	require.NoError(t, os.WriteFile(certPath, []byte("garbage"), 0644))
	created, err = tlspkg.EnsureCertificate(certPath, keyPath, 30, nil)
	require.NoError(t, err)
	assert.True(t, created, "invalid certificate must be replaced")
	assert.NoError(t, tlspkg.ValidateCertificate(certPath))
}

func TestValidateCertificate(t *testing.T) {
	certPath, keyPath := certPaths(t)

	require.NoError(t, tlspkg.GenerateSelfSignedCert(certPath, keyPath, 365, nil))
	assert.NoError(t, tlspkg.ValidateCertificate(certPath))
}

func TestValidateCertificate_FileNotFound(t *testing.T) {
	err := tlspkg.ValidateCertificate("/nonexistent/cert.pem")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read certificate")
}

func TestValidateCertificate_InvalidPEM(t *testing.T) {
	certPath := filepath.Join(t.TempDir(), "invalid-cert.pem")
	require.NoError(t, os.WriteFile(certPath, []byte("invalid pem data"), 0644))

	err := tlspkg.ValidateCertificate(certPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode PEM block")
}

func TestNewServerConfig(t *testing.T) {
	certPath, keyPath := certPaths(t)
	require.NoError(t, tlspkg.GenerateSelfSignedCert(certPath, keyPath, 30, nil))

	cfg, err := tlspkg.NewServerConfig(certPath, keyPath)
	require.NoError(t, err)
	assert.Len(t, cfg.Certificates, 1)

	_, err = tlspkg.NewServerConfig(certPath, filepath.Join(t.TempDir(), "missing.key"))
	assert.Error(t, err)
}

func containsIP(ips []net.IP, want string) bool {
	for _, ip := range ips {
		if ip.Equal(net.ParseIP(want)) {
			return true
		}
	}
	return false
}
