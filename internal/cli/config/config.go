package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapcode/leapsrp/internal/logging"
	"github.com/leapcode/leapsrp/pkg/srp"
)

const (
	configFileName = "config.yaml"

	// DefaultRetries is how often a login is retried after a transport failure.
	DefaultRetries = 3

	envAPIURL        = "LEAPSRP_API_URL"
	envUsername      = "LEAPSRP_USERNAME"
	envCACert        = "LEAPSRP_CA_CERT"
	envCAFingerprint = "LEAPSRP_CA_FINGERPRINT"
	envSRPGroup      = "LEAPSRP_SRP_GROUP"
	envLogLevel      = "LEAPSRP_LOG_LEVEL"
)

// SRPConfig selects the SRP group. Either Group names a preset, or N and G
// describe a custom group. K is computed as H(N | PAD(g)) when omitted.
type SRPConfig struct {
	Group    string `yaml:"group,omitempty"`
	N        string `yaml:"n,omitempty"`
	G        string `yaml:"g,omitempty"`
	K        string `yaml:"k,omitempty"`
	Hash     string `yaml:"hash,omitempty"`
	Salt     string `yaml:"salt,omitempty"`
	Hardened *bool  `yaml:"hardened,omitempty"`
}

// LogConfig controls the client log output.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Config holds the configuration for the leapsrp CLI tool.
type Config struct {
	APIURL        string    `yaml:"api_url"`
	Username      string    `yaml:"username"`
	CACert        string    `yaml:"ca_cert"`
	CAFingerprint string    `yaml:"ca_fingerprint"`
	Retries       int       `yaml:"retries"`
	SRP           SRPConfig `yaml:"srp"`
	Log           LogConfig `yaml:"log"`
}

// fileConfig mirrors Config with pointers where zero is a valid setting.
type fileConfig struct {
	APIURL        string    `yaml:"api_url"`
	Username      string    `yaml:"username"`
	CACert        string    `yaml:"ca_cert"`
	CAFingerprint string    `yaml:"ca_fingerprint"`
	Retries       *int      `yaml:"retries"`
	SRP           SRPConfig `yaml:"srp"`
	Log           LogConfig `yaml:"log"`
}

// Flags carries command-line overrides. Empty strings and a negative
// Retries leave the loaded value alone.
type Flags struct {
	APIURL        string
	Username      string
	CACert        string
	CAFingerprint string
	Group         string
	LogLevel      string
	Retries       int
}

// Load loads configuration from file, environment variables, and applies defaults.
// Precedence order (highest to lowest):
// 1. Environment variables
// 2. Config file
// 3. Defaults
//
// Command-line flags are applied by individual commands after calling Load().
func Load() (*Config, error) {
	cfg := &Config{
		Retries: DefaultRetries,
	}

	if err := cfg.loadFromFile(); err != nil {
		// The config file is optional.
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Path returns the location of the config file.
func Path() (string, error) {
	configDir, err := UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFileName), nil
}

func (c *Config) loadFromFile() error {
	configPath, err := Path()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(configPath) // #nosec G304 - configPath is user config directory
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	c.APIURL = fc.APIURL
	c.Username = fc.Username
	c.CACert = fc.CACert
	c.CAFingerprint = fc.CAFingerprint
	if fc.Retries != nil {
		c.Retries = *fc.Retries
	}
	c.SRP = fc.SRP
	c.Log = fc.Log

	return nil
}

func (c *Config) loadFromEnv() {
	setFromEnv(&c.APIURL, envAPIURL)
	setFromEnv(&c.Username, envUsername)
	setFromEnv(&c.CACert, envCACert)
	setFromEnv(&c.CAFingerprint, envCAFingerprint)
	setFromEnv(&c.SRP.Group, envSRPGroup)
	setFromEnv(&c.Log.Level, envLogLevel)
}

func setFromEnv(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

// ApplyFlags applies command-line flag values to the configuration.
// This should be called after Load() to apply the highest priority values.
func (c *Config) ApplyFlags(f Flags) {
	if f.APIURL != "" {
		c.APIURL = f.APIURL
	}
	if f.Username != "" {
		c.Username = f.Username
	}
	if f.CACert != "" {
		c.CACert = f.CACert
	}
	if f.CAFingerprint != "" {
		c.CAFingerprint = f.CAFingerprint
	}
	if f.Group != "" {
		c.SRP.Group = f.Group
	}
	if f.LogLevel != "" {
		c.Log.Level = f.LogLevel
	}
	if f.Retries >= 0 {
		c.Retries = f.Retries
	}
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	// The API URL may be empty here; commands that talk to a provider call
	// RequireAPIURL.
	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil {
			return fmt.Errorf("invalid api_url %q: %w", c.APIURL, err)
		}
		if u.Scheme != "https" || u.Host == "" {
			return fmt.Errorf("invalid api_url %q: must be an https URL", c.APIURL)
		}
	}

	if c.CACert != "" {
		if _, err := os.Stat(c.CACert); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("CA certificate file not found: %s", c.CACert)
			}
			return fmt.Errorf("failed to access CA certificate file %s: %w", c.CACert, err)
		}
	}

	if c.Retries < 0 {
		return fmt.Errorf("invalid retries %d: must not be negative", c.Retries)
	}

	if _, err := c.SRPParameters(); err != nil {
		return err
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return err
	}

	return nil
}

// RequireAPIURL checks if the API URL is set and returns an error with a
// helpful message if not.
func (c *Config) RequireAPIURL() error {
	if c.APIURL == "" {
		return fmt.Errorf("provider API URL not specified\n"+
			"Use --api-url flag, %s environment variable, or add 'api_url:' to config file:\n"+
			"  Config file location: <UserConfigDir>/%s/config.yaml\n"+
			"  Example: api_url: https://api.example.org:4430/1", envAPIURL, appName)
	}
	return nil
}

// RequireUsername checks if the username is set.
func (c *Config) RequireUsername() error {
	if c.Username == "" {
		return fmt.Errorf("username not specified\n"+
			"Use --username flag, %s environment variable, or add 'username:' to config file", envUsername)
	}
	return nil
}

// Host returns the host:port part of the API URL.
func (c *Config) Host() string {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// SRPParameters builds the group parameters described by the SRP section.
func (c *Config) SRPParameters() (*srp.Parameters, error) {
	s := c.SRP

	var params *srp.Parameters
	var err error
	switch {
	case s.N != "" || s.G != "":
		if s.Group != "" {
			return nil, fmt.Errorf("srp: set either group or n/g, not both")
		}
		params, err = srp.NewParameters(s.N, s.G, s.K, srp.HashAlgorithm(s.Hash))
	case s.Hash != "" || s.K != "":
		// Re-derive a preset with a different hash or multiplier.
		var preset *srp.Parameters
		if preset, err = srp.GroupByName(s.Group); err != nil {
			break
		}
		if s.K == "" && (s.Hash == "" || srp.HashAlgorithm(s.Hash) == preset.Hash) {
			params = preset
			break
		}
		params, err = srp.NewParameters(preset.N.Text(16), preset.G.Text(16), s.K, srp.HashAlgorithm(s.Hash))
	default:
		params, err = srp.GroupByName(s.Group)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid srp configuration: %w", err)
	}

	if s.Salt != "" {
		salt, err := hex.DecodeString(strings.TrimSpace(s.Salt))
		if err != nil {
			return nil, fmt.Errorf("invalid srp.salt: %w", err)
		}
		params.Salt = salt
	}

	return params, nil
}

// Hardened reports whether degenerate server values beyond B ≡ 0 are rejected.
func (c *Config) Hardened() bool {
	return c.SRP.Hardened == nil || *c.SRP.Hardened
}

// LogLevel returns the configured log level, defaulting to info.
func (c *Config) LogLevel() logging.LogLevel {
	level, _ := logging.ParseLevel(c.Log.Level)
	return level
}

// LogFormat returns the configured log format, defaulting to human.
func (c *Config) LogFormat() logging.LogFormat {
	format, _ := logging.ParseFormat(c.Log.Format)
	return format
}
