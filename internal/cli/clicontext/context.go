// Package clicontext holds state set from the global command-line flags and
// shared by every command.
package clicontext

import (
	"sync"

	"github.com/leapcode/leapsrp/internal/logging"
)

// Global holds the global CLI context, including flags that affect all commands.
type Global struct {
	// AssumeYes automatically answers 'yes' to all prompts (non-interactive mode).
	AssumeYes bool

	// Debug forces debug logging regardless of the configured level.
	Debug bool
}

var (
	globalContext = &Global{}
	mu            sync.RWMutex
)

// Set updates the global CLI context.
func Set(ctx *Global) {
	mu.Lock()
	defer mu.Unlock()
	globalContext = ctx
}

// Get returns a copy of the current global CLI context.
func Get() Global {
	mu.RLock()
	defer mu.RUnlock()
	return *globalContext
}

// AssumeYes returns whether the CLI is in assume-yes mode.
func AssumeYes() bool {
	mu.RLock()
	defer mu.RUnlock()
	return globalContext.AssumeYes
}

// SetAssumeYes sets the assume-yes flag.
func SetAssumeYes(value bool) {
	mu.Lock()
	defer mu.Unlock()
	globalContext.AssumeYes = value
}

// SetDebug sets the debug flag.
func SetDebug(value bool) {
	mu.Lock()
	defer mu.Unlock()
	globalContext.Debug = value
}

// Logger returns a logger at level and format, or at debug level when
// --debug is set.
func Logger(level logging.LogLevel, format logging.LogFormat) *logging.Logger {
	mu.RLock()
	debug := globalContext.Debug
	mu.RUnlock()

	if debug {
		level = logging.LevelDebug
	}
	return logging.New(level, format)
}
