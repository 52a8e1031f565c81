package srp

import "errors"

// Error classes returned by this package. Callers match them with errors.Is.
var (
	// ErrConfiguration indicates malformed or missing group parameters or
	// session inputs.
	ErrConfiguration = errors.New("srp: invalid configuration")

	// ErrProtocolViolation indicates a Session method was called out of order.
	ErrProtocolViolation = errors.New("srp: protocol violation")

	// ErrDegenerateValue indicates the server sent a value that would force
	// the shared secret to a known constant.
	ErrDegenerateValue = errors.New("srp: degenerate server value")
)
