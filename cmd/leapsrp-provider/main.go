// leapsrp-provider is a development LEAP provider: it serves the SRP session
// API over HTTPS for the users listed in its config file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/leapcode/leapsrp/internal/api"
	"github.com/leapcode/leapsrp/internal/api/middleware"
	"github.com/leapcode/leapsrp/internal/auth"
	clitls "github.com/leapcode/leapsrp/internal/cli/tls"
	"github.com/leapcode/leapsrp/internal/config"
	"github.com/leapcode/leapsrp/internal/lifecycle"
	"github.com/leapcode/leapsrp/internal/logging"
	tlspkg "github.com/leapcode/leapsrp/internal/tls"
)

var (
	// version is set by build flags
	version = "dev"
	// commit is set by build flags
	commit = "none"
)

func main() {
	fs := flag.NewFlagSet("leapsrp-provider", flag.ExitOnError)
	configPath := fs.String("config", "provider.yaml", "path to configuration file")
	showVersion := fs.Bool("version", false, "print version and exit")
	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("leapsrp-provider version %s (%s)\n", version, commit)
		return
	}

	var err error
	switch cmd := fs.Arg(0); cmd {
	case "", "serve":
		err = run(*configPath)
	case "init":
		err = runInit(*configPath, os.Stdout)
	case "verifier":
		err = runVerifier(fs.Args()[1:], os.Stdin, os.Stdout)
	default:
		err = fmt.Errorf("unknown command %q (valid: serve, init, verifier)", cmd)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel(), cfg.LogFormat())

	fingerprint, err := ensureCertificate(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("leapsrp provider starting", map[string]any{
		"version":        version,
		"commit":         commit,
		"listen_address": cfg.Service.Listen,
		"api_prefix":     cfg.Service.APIPrefix,
		"srp_group":      cfg.SRP.Group,
		"users":          len(cfg.Users),
		"ca_fingerprint": fingerprint,
	})

	provider, err := newProvider(cfg, logger)
	if err != nil {
		return err
	}

	server, err := api.New(cfg, provider, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	shutdown := lifecycle.NewShutdownManager()
	defer shutdown.Stop()
	ctx := shutdown.Start(context.Background())

	idle, err := cfg.GetInactivityTimeout()
	if err != nil {
		return err
	}
	if idle > 0 {
		timer, err := lifecycle.NewIdleTimer(idle, func() {
			shutdown.Shutdown("inactivity timeout")
		})
		if err != nil {
			return err
		}
		defer timer.Stop()
		server.Use(middleware.Activity(timer.Touch))
	}

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("leapsrp provider stopped", map[string]any{"reason": shutdown.Reason()})
	return nil
}

// newProvider wires the session API from the configuration.
func newProvider(cfg *config.Config, logger *logging.Logger) (*auth.Provider, error) {
	params, err := cfg.SRPParameters()
	if err != nil {
		return nil, err
	}

	directory, err := cfg.Directory(params)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	sessionTTL, err := cfg.GetSessionTTL()
	if err != nil {
		return nil, err
	}
	pendingTTL, err := cfg.GetPendingTTL()
	if err != nil {
		return nil, err
	}
	lockout, err := cfg.GetLockoutDuration()
	if err != nil {
		return nil, err
	}

	provider, err := auth.NewProvider(params, directory,
		auth.WithSessionCookie(cfg.Service.CookieName),
		auth.WithSessionTTL(sessionTTL),
		auth.WithPendingTTL(pendingTTL),
		auth.WithRateLimiter(auth.NewRateLimiter(cfg.Lockout.MaxFailures, lockout)),
		auth.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	return provider, nil
}

// ensureCertificate generates the certificate when configured to and returns
// its fingerprint in the form clients pin.
func ensureCertificate(cfg *config.Config, logger *logging.Logger) (string, error) {
	if cfg.TLS.Generate {
		created, err := tlspkg.EnsureCertificate(cfg.TLS.Cert, cfg.TLS.Key, cfg.TLS.ValidDays, cfg.TLS.Hosts)
		if err != nil {
			return "", fmt.Errorf("TLS certificate generation failed: %w", err)
		}
		if created {
			logger.Info("generated TLS certificate", map[string]any{"cert": cfg.TLS.Cert})
		}
	} else if err := tlspkg.ValidateCertificate(cfg.TLS.Cert); err != nil {
		return "", fmt.Errorf("invalid TLS certificate: %w", err)
	}

	cert, err := tlspkg.LoadCertificate(cfg.TLS.Cert)
	if err != nil {
		return "", err
	}
	return clitls.ComputeFingerprint(cert), nil
}

// runInit creates the TLS certificate if needed and prints what a client
// needs to trust it. It is idempotent.
func runInit(configPath string, out io.Writer) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	fingerprint, err := ensureCertificate(cfg, logging.NewNop())
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Certificate: %s\n", cfg.TLS.Cert)
	fmt.Fprintf(out, "Fingerprint: %s\n", fingerprint)
	return nil
}
