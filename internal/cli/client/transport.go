package client

import (
	"fmt"
	"net/http"
	"time"

	"github.com/leapcode/leapsrp/internal/cli/config"
	cliTLS "github.com/leapcode/leapsrp/internal/cli/tls"
)

const tlsHandshakeTimeout = 10 * time.Second

// NewTransport creates the HTTP transport for the provider in cfg. The
// provider certificate is checked against the configured CA file or
// fingerprint, else against the system roots with trust-on-first-use as the
// fallback.
func NewTransport(cfg *config.Config) (*http.Transport, error) {
	opts := cliTLS.TrustOptions{
		Host:          cfg.Host(),
		CACert:        cfg.CACert,
		CAFingerprint: cfg.CAFingerprint,
	}

	if cfg.CACert == "" && cfg.CAFingerprint == "" {
		store, err := cliTLS.NewCertificateStore()
		if err != nil {
			return nil, fmt.Errorf("failed to create certificate store: %w", err)
		}
		opts.Store = store
	}

	tlsConfig, err := cliTLS.NewConfig(opts)
	if err != nil {
		return nil, err
	}

	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSClientConfig:     tlsConfig,
		TLSHandshakeTimeout: tlsHandshakeTimeout,
		ForceAttemptHTTP2:   true,
	}, nil
}
