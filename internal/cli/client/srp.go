package client

import (
	"github.com/leapcode/leapsrp/internal/cli/config"
	"github.com/leapcode/leapsrp/internal/logging"
	"github.com/leapcode/leapsrp/internal/login"
	"github.com/leapcode/leapsrp/pkg/srp"
)

// NewAuthenticator returns a login orchestrator that runs SRP over c with the
// group, hardening policy and retry count from cfg.
func NewAuthenticator(c *Client, cfg *config.Config, logger *logging.Logger, opts ...login.Option) (*login.Authenticator, error) {
	params, err := cfg.SRPParameters()
	if err != nil {
		return nil, err
	}

	base := []login.Option{
		login.WithRetries(cfg.Retries),
		login.WithSessionOptions(srp.WithHardening(cfg.Hardened())),
	}
	return login.New(c, params, logger, append(base, opts...)...), nil
}
