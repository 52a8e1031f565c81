// Package main provides the leapsrp CLI tool for logging in to LEAP providers.
//
// leapsrp authenticates against a provider's session API with SRP-6a, keeps
// the resulting session cookie, and can end the session again.
package main

import (
	"fmt"
	"os"

	"github.com/leapcode/leapsrp/internal/cli/clicontext"
	"github.com/leapcode/leapsrp/internal/cli/commands"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	args, command := parseGlobalFlags(os.Args[1:])

	switch command {
	case "--help", "-h", "help", "":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("leapsrp version %s\n", version)
		os.Exit(0)
	}

	switch command {
	case "login":
		commands.NewLoginCommand().Execute(args)
	case "logout":
		commands.NewLogoutCommand().Execute(args)
	case "status":
		commands.NewStatusCommand().Execute(args)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// parseGlobalFlags processes global flags and returns remaining args and the command.
// Global flags can appear anywhere in the argument list:
//
//	leapsrp -y login --username alice        (before command)
//	leapsrp login -y --username alice        (after command)
//	leapsrp login --username alice --debug   (at the end)
func parseGlobalFlags(args []string) ([]string, string) {
	remainingArgs := make([]string, 0, len(args))
	var command string

	for _, arg := range args {
		switch arg {
		case "--assumeyes", "-y":
			clicontext.SetAssumeYes(true)
			continue
		case "--debug", "-d":
			clicontext.SetDebug(true)
			continue
		case "--help", "-h", "--version", "-v":
			if command == "" {
				command = arg
				continue
			}
		}

		// First non-flag argument is the command
		if command == "" && !isFlag(arg) {
			command = arg
			continue
		}

		remainingArgs = append(remainingArgs, arg)
	}

	return remainingArgs, command
}

// isFlag returns true if the argument looks like a flag (starts with -).
func isFlag(arg string) bool {
	return len(arg) > 0 && arg[0] == '-'
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `leapsrp - log in to LEAP providers with SRP-6a

Usage:
  leapsrp <command> [flags]

Available Commands:
  login    Log in and store the session
  logout   End the stored session
  status   Show the stored session

Global Flags:
  --help, -h        Show help information
  --version, -v     Show version information
  --assumeyes, -y   Automatically answer 'yes' to prompts (non-interactive mode)
  --debug, -d       Log at debug level (secrets are redacted)

Configuration:
  <UserConfigDir>/leapsrp/config.yaml, overridden by LEAPSRP_* environment
  variables, overridden by flags.

Examples:
  # Log in (prompts for username and password)
  leapsrp login --api-url https://api.example.org:4430/1

  # Log in without prompts, accepting an unknown certificate
  leapsrp login -y --api-url https://api.example.org:4430/1 --username alice --password secret

  # Show and end the session
  leapsrp status
  leapsrp logout

For detailed help on a specific command, run:
  leapsrp <command> --help

`)
}
