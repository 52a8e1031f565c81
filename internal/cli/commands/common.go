// Package commands provides CLI command implementations for the leapsrp tool.
package commands

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/leapcode/leapsrp/internal/cli/clicontext"
	"github.com/leapcode/leapsrp/internal/cli/client"
	"github.com/leapcode/leapsrp/internal/cli/config"
	"github.com/leapcode/leapsrp/internal/logging"
)

// providerFlags are the flags every command accepts to select a provider.
type providerFlags struct {
	apiURL        *string
	caCert        *string
	caFingerprint *string
	group         *string
	logLevel      *string
	retries       *int
}

func registerProviderFlags(fs *flag.FlagSet) *providerFlags {
	return &providerFlags{
		apiURL:        fs.String("api-url", "", "Provider API URL, e.g. https://api.example.org:4430/1"),
		caCert:        fs.String("ca-cert", "", "Path to the provider CA certificate"),
		caFingerprint: fs.String("ca-fingerprint", "", "Expected provider CA fingerprint (\"SHA256: <hex>\")"),
		group:         fs.String("srp-group", "", "SRP group (leap-1024 or rfc5054-2048)"),
		logLevel:      fs.String("log-level", "", "Log level (debug, info, warn, error, off)"),
		retries:       fs.Int("retries", -1, "Retries after a transport failure (default from config)"),
	}
}

// load reads the configuration and applies the flags on top.
func (f *providerFlags) load(username string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.ApplyFlags(config.Flags{
		APIURL:        *f.apiURL,
		Username:      username,
		CACert:        *f.caCert,
		CAFingerprint: *f.caFingerprint,
		Group:         *f.group,
		LogLevel:      *f.logLevel,
		Retries:       *f.retries,
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.RequireAPIURL(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logging.Logger {
	return clicontext.Logger(cfg.LogLevel(), cfg.LogFormat())
}

// createClient creates a new API client from the configuration.
func createClient(cfg *config.Config, logger *logging.Logger) (*client.Client, error) {
	apiClient, err := client.NewClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return apiClient, nil
}

// finish exits the process for a failed Run. Asking for help is not a failure.
func finish(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	exitWithError("%v", err)
}

// exitWithError prints an error message to stderr and exits with status 1.
func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
