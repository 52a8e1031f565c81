package commands

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/leapcode/leapsrp/internal/cli/client"
	"github.com/leapcode/leapsrp/internal/cli/output"
	"github.com/leapcode/leapsrp/internal/cli/session"
)

// LoginCommand implements the 'login' command.
type LoginCommand struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// NewLoginCommand creates a new login command instance.
func NewLoginCommand() *LoginCommand {
	return &LoginCommand{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
}

// Execute runs the login command with the provided arguments.
func (c *LoginCommand) Execute(args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	finish(c.Run(ctx, args))
}

// Run logs in and stores the session credential.
func (c *LoginCommand) Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	provider := registerProviderFlags(fs)
	username := fs.String("username", "", "Username to log in as (prompts if not provided)")
	password := fs.String("password", "", "Password (prompts if not provided)")
	outputFormat := fs.String("output", "", "Also print the login result (yaml or json)")

	fs.Usage = func() {
		fmt.Fprintf(c.errOut, `Usage: leapsrp login [flags]

Log in to a LEAP provider with SRP-6a. The password never leaves this
machine; the session cookie the provider sets is stored for 'logout' and
'status'.

Flags:
`)
		fs.PrintDefaults()
		fmt.Fprintf(c.errOut, `
Examples:
  # Interactive (prompts for username and password)
  leapsrp login --api-url https://api.example.org:4430/1

  # Pin the provider CA published in provider.json
  leapsrp login --api-url https://api.example.org:4430/1 --username alice \
    --ca-fingerprint "SHA256: 0f3a..."

  # Non-interactive (for CI/CD)
  leapsrp login -y --username alice --password secret123
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	var format output.Format
	if *outputFormat != "" {
		var err error
		if format, err = output.ParseFormat(*outputFormat); err != nil {
			return err
		}
	}

	cfg, err := provider.load(*username)
	if err != nil {
		return err
	}

	reader := bufio.NewReader(c.in)

	user := cfg.Username
	if user == "" {
		if user, err = c.promptUsername(reader); err != nil {
			return err
		}
	}
	if user == "" {
		return cfg.RequireUsername()
	}

	pass := *password
	if pass == "" {
		if pass, err = c.promptPassword(reader); err != nil {
			return err
		}
	}

	logger := newLogger(cfg)
	apiClient, err := createClient(cfg, logger)
	if err != nil {
		return err
	}
	authenticator, err := client.NewAuthenticator(apiClient, cfg, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.errOut, "Logging in to %s as %s...\n", cfg.Host(), user)

	result, err := authenticator.Login(ctx, user, pass)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	store, err := session.NewStore()
	if err != nil {
		return fmt.Errorf("failed to access session store: %w", err)
	}
	if err := store.Save(&session.Credential{
		APIURL:    cfg.APIURL,
		Username:  result.Username,
		Carrier:   result.SessionTokenCarrier,
		Token:     result.SessionToken,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return err
	}

	fmt.Fprintf(c.errOut, "Login successful. Session saved.\n")

	if format != "" {
		return output.Write(c.out, result, format)
	}
	return nil
}

func (c *LoginCommand) promptUsername(reader *bufio.Reader) (string, error) {
	fmt.Fprintf(c.errOut, "Username: ")
	username, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read username: %w", err)
	}
	return strings.TrimSpace(username), nil
}

// promptPassword reads the password without echo from a terminal, or as a
// line from any other input.
func (c *LoginCommand) promptPassword(reader *bufio.Reader) (string, error) {
	fmt.Fprintf(c.errOut, "Password: ")

	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintf(c.errOut, "\n")
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(password), nil
	}

	password, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(password, "\r\n"), nil
}
