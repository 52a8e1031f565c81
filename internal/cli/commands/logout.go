package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/leapcode/leapsrp/internal/cli/session"
	"github.com/leapcode/leapsrp/pkg/protocol"
)

// LogoutCommand implements the 'logout' command.
type LogoutCommand struct {
	errOut io.Writer
}

// NewLogoutCommand creates a new logout command instance.
func NewLogoutCommand() *LogoutCommand {
	return &LogoutCommand{errOut: os.Stderr}
}

// Execute runs the logout command with the provided arguments.
func (c *LogoutCommand) Execute(args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	finish(c.Run(ctx, args))
}

// Run ends the stored session at the provider and forgets it locally. A
// session the provider no longer knows is forgotten as well.
func (c *LogoutCommand) Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	fs.SetOutput(c.errOut)

	provider := registerProviderFlags(fs)

	fs.Usage = func() {
		fmt.Fprintf(c.errOut, `Usage: leapsrp logout [flags]

End the session stored by 'leapsrp login'.

Flags:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
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
	if cred == nil {
		return fmt.Errorf("not logged in to %s", cfg.APIURL)
	}

	apiClient, err := createClient(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	logoutErr := apiClient.Logout(ctx, cred.Carrier, cred.Token)
	if logoutErr != nil && !protocol.IsCode(logoutErr, protocol.ErrCodeSessionInvalid) {
		return fmt.Errorf("logout failed: %w", logoutErr)
	}

	if err := store.Delete(cfg.APIURL); err != nil {
		return err
	}

	if logoutErr != nil {
		fmt.Fprintf(c.errOut, "Session had already ended. Local session removed.\n")
		return nil
	}
	fmt.Fprintf(c.errOut, "Logged out.\n")
	return nil
}
