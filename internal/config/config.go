// Package config provides configuration loading and validation for the
// leapsrp development provider.
package config

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leapcode/leapsrp/internal/auth"
	"github.com/leapcode/leapsrp/internal/logging"
	"github.com/leapcode/leapsrp/pkg/srp"
)

// Defaults applied before the config file is read.
const (
	DefaultListen        = "127.0.0.1:4430"
	DefaultAPIPrefix     = "/1"
	DefaultCertValidDays = 365

	envListen = "LEAPSRP_PROVIDER_LISTEN"
)

// Config represents the development provider configuration.
type Config struct {
	Service ServiceSettings  `yaml:"service"`
	TLS     TLSSettings      `yaml:"tls"`
	SRP     SRPSettings      `yaml:"srp"`
	Lockout LockoutSettings  `yaml:"lockout"`
	Users   []UserDefinition `yaml:"users"`
	Logging LoggingSettings  `yaml:"logging"`
}

// ServiceSettings contains service-level configuration.
type ServiceSettings struct {
	Listen            string `yaml:"listen"`
	APIPrefix         string `yaml:"api_prefix"`
	CookieName        string `yaml:"cookie_name"`
	SessionTTL        string `yaml:"session_ttl"`
	PendingTTL        string `yaml:"pending_ttl"`
	InactivityTimeout string `yaml:"inactivity_timeout,omitempty"` // empty keeps the provider running
}

// TLSSettings locates the server certificate. A missing pair is generated on
// start when Generate is set.
type TLSSettings struct {
	Cert      string   `yaml:"cert"`
	Key       string   `yaml:"key"`
	Generate  bool     `yaml:"generate"`
	Hosts     []string `yaml:"hosts"`
	ValidDays int      `yaml:"valid_days"`
}

// SRPSettings selects the group the provider authenticates with.
type SRPSettings struct {
	Group string `yaml:"group"`
}

// LockoutSettings configures the failed-login lockout.
type LockoutSettings struct {
	MaxFailures int    `yaml:"max_failures"`
	Duration    string `yaml:"duration"`
}

// UserDefinition is one account. Either Password is set, or Salt and
// Verifier (hex, v = g^x mod N) as a provider database would store them.
type UserDefinition struct {
	Login    string `yaml:"login"`
	Password string `yaml:"password,omitempty"`
	Salt     string `yaml:"salt,omitempty"`
	Verifier string `yaml:"verifier,omitempty"`
}

// LoggingSettings contains logging configuration.
type LoggingSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the configuration file. Unset values keep their
// defaults.
//
//nolint:gosec // G304: Config path is from command-line argument
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Allow the listen address to be moved without editing the file.
	if listen := os.Getenv(envListen); listen != "" {
		cfg.Service.Listen = listen
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Service: ServiceSettings{
			Listen:     DefaultListen,
			APIPrefix:  DefaultAPIPrefix,
			CookieName: auth.DefaultSessionCookie,
			SessionTTL: auth.DefaultSessionTTL.String(),
			PendingTTL: auth.DefaultPendingTTL.String(),
		},
		TLS: TLSSettings{
			ValidDays: DefaultCertValidDays,
		},
		SRP: SRPSettings{
			Group: srp.GroupLEAP1024,
		},
		Lockout: LockoutSettings{
			MaxFailures: auth.DefaultMaxFailures,
			Duration:    auth.DefaultLockout.String(),
		},
		Logging: LoggingSettings{
			Level:  string(logging.LevelInfo),
			Format: string(logging.FormatJSON),
		},
	}
}

// validate performs basic validation on the configuration.
// Detailed validation is in validate.go.
func (c *Config) validate() error {
	if c.Service.Listen == "" {
		return fmt.Errorf("service.listen is required")
	}

	if c.TLS.Cert == "" {
		return fmt.Errorf("tls.cert is required")
	}

	if c.TLS.Key == "" {
		return fmt.Errorf("tls.key is required")
	}

	if len(c.Users) == 0 {
		return fmt.Errorf("at least one user is required")
	}

	return nil
}

// GetSessionTTL parses and returns the session lifetime.
func (c *Config) GetSessionTTL() (time.Duration, error) {
	return parsePositive("session_ttl", c.Service.SessionTTL)
}

// GetPendingTTL parses and returns how long a login may wait for its proof.
func (c *Config) GetPendingTTL() (time.Duration, error) {
	return parsePositive("pending_ttl", c.Service.PendingTTL)
}

// GetLockoutDuration parses and returns the lockout duration.
func (c *Config) GetLockoutDuration() (time.Duration, error) {
	return parsePositive("lockout.duration", c.Lockout.Duration)
}

// GetInactivityTimeout parses the inactivity timeout. Zero means the provider
// never stops on its own.
func (c *Config) GetInactivityTimeout() (time.Duration, error) {
	if c.Service.InactivityTimeout == "" {
		return 0, nil
	}

	duration, err := time.ParseDuration(c.Service.InactivityTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid inactivity_timeout: %w", err)
	}

	if duration < time.Second {
		return 0, fmt.Errorf("inactivity_timeout must be at least 1 second")
	}

	return duration, nil
}

// SRPParameters returns the configured group.
func (c *Config) SRPParameters() (*srp.Parameters, error) {
	return srp.GroupByName(c.SRP.Group)
}

// Directory builds the user directory. Users given by password are signed up
// with a fresh salt.
func (c *Config) Directory(params *srp.Parameters) (*auth.Directory, error) {
	dir := auth.NewDirectory()

	for i := range c.Users {
		record, err := c.Users[i].record(params)
		if err != nil {
			return nil, fmt.Errorf("user %q: %w", c.Users[i].Login, err)
		}
		dir.Add(record)
	}

	return dir, nil
}

func (u *UserDefinition) record(params *srp.Parameters) (*auth.Record, error) {
	if u.Password != "" {
		return auth.NewRecord(params, u.Login, u.Password)
	}

	salt, err := hex.DecodeString(u.Salt)
	if err != nil {
		return nil, fmt.Errorf("invalid salt: %w", err)
	}

	v, ok := new(big.Int).SetString(u.Verifier, 16)
	if !ok || v.Sign() <= 0 {
		return nil, fmt.Errorf("invalid verifier")
	}

	return &auth.Record{Username: u.Login, Salt: salt, Verifier: v}, nil
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() logging.LogLevel {
	level, _ := logging.ParseLevel(c.Logging.Level)
	return level
}

// LogFormat returns the configured log format.
func (c *Config) LogFormat() logging.LogFormat {
	format, _ := logging.ParseFormat(c.Logging.Format)
	return format
}

func parsePositive(name, value string) (time.Duration, error) {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}

	if duration <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}

	return duration, nil
}
