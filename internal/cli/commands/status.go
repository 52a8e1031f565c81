package commands

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/leapcode/leapsrp/internal/cli/output"
	"github.com/leapcode/leapsrp/internal/cli/session"
)

// Status describes the stored session for a provider.
type Status struct {
	APIURL    string     `json:"api_url" yaml:"api_url"`
	LoggedIn  bool       `json:"logged_in" yaml:"logged_in"`
	Username  string     `json:"username,omitempty" yaml:"username,omitempty"`
	Carrier   string     `json:"session_token_carrier,omitempty" yaml:"session_token_carrier,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// StatusCommand implements the 'status' command.
type StatusCommand struct {
	out    io.Writer
	errOut io.Writer
}

// NewStatusCommand creates a new status command instance.
func NewStatusCommand() *StatusCommand {
	return &StatusCommand{out: os.Stdout, errOut: os.Stderr}
}

// Execute runs the status command with the provided arguments.
func (c *StatusCommand) Execute(args []string) {
	finish(c.Run(args))
}

// Run prints the stored session. The token itself is never shown.
func (c *StatusCommand) Run(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	provider := registerProviderFlags(fs)
	outputFormat := fs.String("output", "yaml", "Output format (yaml or json)")

	fs.Usage = func() {
		fmt.Fprintf(c.errOut, `Usage: leapsrp status [flags]

Show the session stored by 'leapsrp login'.

Flags:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	format, err := output.ParseFormat(*outputFormat)
	if err != nil {
		return err
	}

	cfg, err := provider.load("")
	if err != nil {
		return err
	}

	store, err := session.NewStore()
	if err != nil {
		return fmt.Errorf("failed to access session store: %w", err)
	}
	cred, err := store.Load(cfg.APIURL)
	if err != nil {
		return err
	}

	status := Status{APIURL: cfg.APIURL}
	if cred != nil {
		status.LoggedIn = true
		status.Username = cred.Username
		status.Carrier = cred.Carrier
		status.CreatedAt = &cred.CreatedAt
	}

	return output.Write(c.out, status, format)
}
