// Package protocol defines the wire structures of the LEAP session API and
// the error codes a login can end with.
package protocol

import (
	"errors"
	"fmt"
)

// ErrorCode represents a standardized error code.
type ErrorCode string

// Login error codes.
const (
	// ErrCodeConfigurationError indicates unusable group parameters or client settings.
	ErrCodeConfigurationError ErrorCode = "CONFIGURATION_ERROR"
	// ErrCodeProtocolViolation indicates operations were driven out of order
	// or the provider sent something that is not a valid reply.
	ErrCodeProtocolViolation ErrorCode = "PROTOCOL_VIOLATION"
	// ErrCodeAuthenticationFailed indicates the login was rejected.
	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"
	// ErrCodeTransportFailure indicates the provider could not be reached.
	ErrCodeTransportFailure ErrorCode = "TRANSPORT_FAILURE"

	// ErrCodeSessionInvalid indicates the session token is missing or unknown.
	ErrCodeSessionInvalid ErrorCode = "SESSION_INVALID"
	// ErrCodeSessionExpired indicates the session has expired.
	ErrCodeSessionExpired ErrorCode = "SESSION_EXPIRED"
	// ErrCodeRateLimitExceeded indicates the provider locked the account.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeInvalidRequest indicates a malformed request.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	// ErrCodeTLSError indicates the provider certificate could not be verified.
	ErrCodeTLSError ErrorCode = "TLS_ERROR"
)

// ErrorResponse is a login outcome error. Err holds the underlying cause and
// Retryable marks transport failures worth another attempt.
type ErrorResponse struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"-"`
	Err       error     `json:"-"`
}

// Error implements the error interface.
func (e *ErrorResponse) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ErrorResponse) Unwrap() error {
	return e.Err
}

// NewError creates a new ErrorResponse.
func NewError(code ErrorCode, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithDetails creates a new ErrorResponse with details.
func NewErrorWithDetails(code ErrorCode, message, details string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Wrap attaches cause to e and returns e.
func (e *ErrorResponse) Wrap(cause error) *ErrorResponse {
	e.Err = cause
	return e
}

// IsCode reports whether err is or wraps an ErrorResponse with code.
func IsCode(err error, code ErrorCode) bool {
	var e *ErrorResponse
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsRetryable reports whether err is or wraps a retryable ErrorResponse.
func IsRetryable(err error) bool {
	var e *ErrorResponse
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// NewConfigurationError creates a configuration error.
func NewConfigurationError(details string) *ErrorResponse {
	return NewErrorWithDetails(ErrCodeConfigurationError, "Configuration error", details)
}

// NewProtocolViolationError creates a protocol violation error.
func NewProtocolViolationError(details string) *ErrorResponse {
	return NewErrorWithDetails(ErrCodeProtocolViolation, "Protocol violation", details)
}

// NewAuthenticationFailedError creates an authentication failed error. The
// message is the same for every cause.
func NewAuthenticationFailedError() *ErrorResponse {
	return NewError(ErrCodeAuthenticationFailed, "Authentication failed")
}

// NewTransportFailureError creates a transport failure error.
func NewTransportFailureError(details string, retryable bool) *ErrorResponse {
	e := NewErrorWithDetails(ErrCodeTransportFailure, "Transport failure", details)
	e.Retryable = retryable
	return e
}

// NewSessionInvalidError creates a session invalid error.
func NewSessionInvalidError(details string) *ErrorResponse {
	return NewErrorWithDetails(ErrCodeSessionInvalid, "Session token is invalid", details)
}

// NewSessionExpiredError creates a session expired error.
func NewSessionExpiredError() *ErrorResponse {
	return NewError(ErrCodeSessionExpired, "Session token has expired")
}

// NewRateLimitExceededError creates a rate limit exceeded error.
func NewRateLimitExceededError(retryAfter int) *ErrorResponse {
	return NewErrorWithDetails(ErrCodeRateLimitExceeded, "Rate limit exceeded", fmt.Sprintf("Retry after %d seconds", retryAfter))
}

// NewInvalidRequestError creates an invalid request error.
func NewInvalidRequestError(details string) *ErrorResponse {
	return NewErrorWithDetails(ErrCodeInvalidRequest, "Invalid request", details)
}

// NewTLSError creates a TLS error.
func NewTLSError(details string) *ErrorResponse {
	return NewErrorWithDetails(ErrCodeTLSError, "TLS error", details)
}
