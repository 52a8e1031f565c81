package config

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/leapcode/leapsrp/internal/logging"
)

// Validate performs comprehensive validation on the configuration.
func Validate(cfg *Config) error {
	if err := validateService(cfg); err != nil {
		return fmt.Errorf("service validation failed: %w", err)
	}

	if err := validateTLS(cfg); err != nil {
		return fmt.Errorf("tls validation failed: %w", err)
	}

	if err := validateSRP(cfg); err != nil {
		return fmt.Errorf("srp validation failed: %w", err)
	}

	if err := validateLockout(cfg); err != nil {
		return fmt.Errorf("lockout validation failed: %w", err)
	}

	if err := validateUsers(cfg); err != nil {
		return fmt.Errorf("user validation failed: %w", err)
	}

	if err := validateLogging(cfg); err != nil {
		return fmt.Errorf("logging validation failed: %w", err)
	}

	return nil
}

func validateService(cfg *Config) error {
	_, port, err := net.SplitHostPort(cfg.Service.Listen)
	if err != nil {
		return fmt.Errorf("listen must be host:port: %w", err)
	}
	if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("listen port must be between 0 and 65535")
	}

	if prefix := cfg.Service.APIPrefix; prefix != "" {
		if !strings.HasPrefix(prefix, "/") || strings.HasSuffix(prefix, "/") {
			return fmt.Errorf("api_prefix must start and must not end with '/': %s", prefix)
		}
	}

	if cfg.Service.CookieName == "" || strings.ContainsAny(cfg.Service.CookieName, " ;=") {
		return fmt.Errorf("cookie_name %q is not a valid cookie name", cfg.Service.CookieName)
	}

	if _, err := cfg.GetSessionTTL(); err != nil {
		return err
	}

	if _, err := cfg.GetPendingTTL(); err != nil {
		return err
	}

	if _, err := cfg.GetInactivityTimeout(); err != nil {
		return err
	}

	return nil
}

func validateTLS(cfg *Config) error {
	for name, path := range map[string]string{"cert": cfg.TLS.Cert, "key": cfg.TLS.Key} {
		dir := filepath.Dir(path)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("tls.%s directory does not exist: %s", name, dir)
		}

		if cfg.TLS.Generate {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("tls.%s does not exist and tls.generate is off: %s", name, path)
		}
	}

	if cfg.TLS.Generate && cfg.TLS.ValidDays <= 0 {
		return fmt.Errorf("tls.valid_days must be positive")
	}

	for i, host := range cfg.TLS.Hosts {
		if host == "" || strings.ContainsAny(host, " /") {
			return fmt.Errorf("tls.hosts[%d]: invalid host %q", i, host)
		}
	}

	return nil
}

func validateSRP(cfg *Config) error {
	_, err := cfg.SRPParameters()
	return err
}

func validateLockout(cfg *Config) error {
	if cfg.Lockout.MaxFailures <= 0 {
		return fmt.Errorf("max_failures must be positive")
	}

	_, err := cfg.GetLockoutDuration()
	return err
}

func validateUsers(cfg *Config) error {
	seen := make(map[string]bool)

	for i, user := range cfg.Users {
		if user.Login == "" {
			return fmt.Errorf("users[%d]: login is required", i)
		}

		if seen[user.Login] {
			return fmt.Errorf("users[%d]: duplicate login '%s'", i, user.Login)
		}
		seen[user.Login] = true

		hasPassword := user.Password != ""
		hasVerifier := user.Salt != "" || user.Verifier != ""
		switch {
		case hasPassword && hasVerifier:
			return fmt.Errorf("users[%d]: set either password or salt and verifier, not both", i)
		case !hasPassword && !hasVerifier:
			return fmt.Errorf("users[%d]: password or salt and verifier required", i)
		case hasVerifier:
			if _, err := hex.DecodeString(user.Salt); err != nil || user.Salt == "" {
				return fmt.Errorf("users[%d]: salt must be non-empty hex", i)
			}
			if v, ok := new(big.Int).SetString(user.Verifier, 16); !ok || v.Sign() <= 0 {
				return fmt.Errorf("users[%d]: verifier must be a positive hex integer", i)
			}
		}
	}

	return nil
}

func validateLogging(cfg *Config) error {
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		return err
	}

	if _, err := logging.ParseFormat(cfg.Logging.Format); err != nil {
		return err
	}

	return nil
}
