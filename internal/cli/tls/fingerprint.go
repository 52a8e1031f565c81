// Package tls decides which provider certificates the leapsrp CLI trusts:
// a configured CA file, a pinned CA fingerprint, the system roots, or a
// certificate the user accepted on first use.
package tls

import (
	"crypto/sha256"
	"crypto/subtle"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const fingerprintPrefix = "SHA256:"

// ErrInvalidFingerprint is returned for fingerprints that cannot be parsed.
var ErrInvalidFingerprint = errors.New("invalid certificate fingerprint")

// ComputeFingerprint computes the SHA-256 fingerprint of a certificate in the
// form LEAP providers publish it: "SHA256: <lowercase hex>".
func ComputeFingerprint(cert *x509.Certificate) string {
	hash := sha256.Sum256(cert.Raw)
	return fmt.Sprintf("%s %x", fingerprintPrefix, hash[:])
}

// ParseFingerprint decodes a "SHA256:" fingerprint. The digest may be hex,
// with or without colons, or base64.
func ParseFingerprint(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(fingerprintPrefix) || !strings.EqualFold(s[:len(fingerprintPrefix)], fingerprintPrefix) {
		return nil, fmt.Errorf("%w: %q must start with %s", ErrInvalidFingerprint, s, fingerprintPrefix)
	}
	digest := strings.TrimSpace(s[len(fingerprintPrefix):])

	if b, err := hex.DecodeString(strings.ReplaceAll(digest, ":", "")); err == nil && len(b) == sha256.Size {
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(digest); err == nil && len(b) == sha256.Size {
		return b, nil
	}
	return nil, fmt.Errorf("%w: %q is not a SHA-256 digest", ErrInvalidFingerprint, s)
}

// FingerprintMatches checks if a certificate's fingerprint matches the expected value.
func FingerprintMatches(cert *x509.Certificate, expected string) bool {
	want, err := ParseFingerprint(expected)
	if err != nil {
		return false
	}
	got := sha256.Sum256(cert.Raw)
	return subtle.ConstantTimeCompare(got[:], want) == 1
}
