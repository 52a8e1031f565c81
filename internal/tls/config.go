package tls

import (
	"crypto/tls"
	"fmt"
)

// NewServerConfig creates a TLS configuration for the provider API.
func NewServerConfig(certPath, keyPath string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},

		// Client authentication is not part of the LEAP login.
		ClientAuth: tls.NoClientCert,
	}, nil
}
