package login

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leapcode/leapsrp/internal/logging"
	"github.com/leapcode/leapsrp/pkg/protocol"
	"github.com/leapcode/leapsrp/pkg/srp"
)

const (
	// DefaultRetries is the number of extra attempts after a transport failure.
	DefaultRetries = 3

	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
)

// Exchanger carries the two login exchanges to a provider. Values are hex
// strings as they appear on the wire. An implementation returns an empty
// response when the provider rejected the request, and a
// *protocol.ErrorResponse for everything else that went wrong.
type Exchanger interface {
	//nolint:gocritic // A is capitalized per RFC 5054 SRP-6a specification
	SRPInit(ctx context.Context, username, A string) (*protocol.SRPInitResponse, error)
	//nolint:gocritic // M1 is capitalized per RFC 5054 SRP-6a specification
	SRPVerify(ctx context.Context, username, M1 string) (*protocol.SRPVerifyResponse, error)
}

// Result is a successful login.
type Result struct {
	AttemptID           string `json:"attempt_id" yaml:"attempt_id"`
	Username            string `json:"username" yaml:"username"`
	SessionToken        string `json:"-" yaml:"-"`
	SessionTokenCarrier string `json:"session_token_carrier" yaml:"session_token_carrier"`
	SessionKey          []byte `json:"-" yaml:"-"`
	Attempts            int    `json:"attempts" yaml:"attempts"`
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithSessionOptions passes opts to every srp.Session.
func WithSessionOptions(opts ...srp.Option) Option {
	return func(a *Authenticator) {
		a.sessionOpts = opts
	}
}

// WithRetries sets how many times a transport failure is retried.
func WithRetries(n int) Option {
	return func(a *Authenticator) {
		a.retries = max(n, 0)
	}
}

// WithBackoff sets the initial and maximum delay between attempts.
func WithBackoff(initial, maxDelay time.Duration) Option {
	return func(a *Authenticator) {
		a.initialBackoff = initial
		a.maxBackoff = maxDelay
	}
}

// Authenticator logs users in with SRP-6a.
type Authenticator struct {
	exchanger      Exchanger
	params         *srp.Parameters
	logger         *logging.Logger
	sessionOpts    []srp.Option
	retries        int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// New creates an Authenticator using params for every session.
func New(exchanger Exchanger, params *srp.Parameters, logger *logging.Logger, opts ...Option) *Authenticator {
	if logger == nil {
		logger = logging.NewNop()
	}
	a := &Authenticator{
		exchanger:      exchanger,
		params:         params,
		logger:         logger,
		retries:        DefaultRetries,
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Login authenticates username. Transport failures are retried with a new
// session each time; every other failure ends the login. The returned error
// is always a *protocol.ErrorResponse.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*Result, error) {
	attemptID := uuid.NewString()
	log := a.logger.With(map[string]any{"attempt_id": attemptID, "username": username})

	backoff := a.initialBackoff
	for attempt := 1; ; attempt++ {
		log.Debug("starting login attempt", map[string]any{"attempt": attempt})

		result, err := a.attempt(ctx, log, username, password)
		if err == nil {
			result.AttemptID = attemptID
			result.Attempts = attempt
			log.Info("login verified", map[string]any{"attempt": attempt})
			return result, nil
		}

		if !protocol.IsRetryable(err) || attempt > a.retries {
			log.Warn("login failed", map[string]any{"attempt": attempt, "error": err.Error()})
			return nil, err
		}

		log.Warn("transport failure, retrying with a new session", map[string]any{
			"attempt": attempt,
			"backoff": backoff.String(),
			"error":   err.Error(),
		})

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, protocol.NewTransportFailureError("login cancelled", false).Wrap(ctx.Err())
		case <-timer.C:
		}
		backoff = min(backoff*2, a.maxBackoff)
	}
}

// attempt runs one complete login with a brand-new session. The session's
// secrets are cleared whatever the outcome.
func (a *Authenticator) attempt(ctx context.Context, log *logging.Logger, username, password string) (*Result, error) {
	session, err := srp.NewSession(username, password, a.params, a.sessionOpts...)
	if err != nil {
		return nil, coreError(err)
	}
	defer session.ClearSecrets()

	A, err := session.Exponential()
	if err != nil {
		return nil, coreError(err)
	}

	initResp, err := a.exchanger.SRPInit(ctx, username, protocol.EncodeHex(A))
	if err != nil {
		return nil, exchangeError("init", err)
	}
	if initResp.Empty() {
		log.Debug("provider rejected init")
		return nil, protocol.NewAuthenticationFailedError()
	}

	salt, err := protocol.DecodeHex(initResp.Salt)
	if err != nil {
		return nil, protocol.NewProtocolViolationError("salt: " + err.Error()).Wrap(err)
	}
	B, err := protocol.DecodeHex(initResp.B)
	if err != nil {
		return nil, protocol.NewProtocolViolationError("B: " + err.Error()).Wrap(err)
	}

	M1, err := session.Response(salt, B)
	if err != nil {
		return nil, coreError(err)
	}

	verifyResp, err := a.exchanger.SRPVerify(ctx, username, protocol.EncodeHex(M1))
	if err != nil {
		return nil, exchangeError("verify", err)
	}
	if verifyResp.Empty() {
		log.Debug("provider rejected client proof")
		return nil, protocol.NewAuthenticationFailedError()
	}

	M2, err := protocol.DecodeHexPadded(verifyResp.M2, a.params.DigestSize())
	if err != nil {
		log.Debug("server proof has the wrong size", map[string]any{"error": err.Error()})
		return nil, protocol.NewAuthenticationFailedError().Wrap(err)
	}

	ok, err := session.Verify(M2)
	if err != nil {
		return nil, coreError(err)
	}
	if !ok {
		log.Warn("server proof mismatch")
		return nil, protocol.NewAuthenticationFailedError()
	}

	if verifyResp.SessionToken == "" {
		return nil, protocol.NewSessionInvalidError("provider verified the login but set no session cookie")
	}

	K, err := session.SessionKey()
	if err != nil {
		return nil, coreError(err)
	}

	return &Result{
		Username:            username,
		SessionToken:        verifyResp.SessionToken,
		SessionTokenCarrier: verifyResp.SessionTokenCarrier,
		SessionKey:          K,
	}, nil
}

// coreError maps srp errors onto login error codes. Degenerate values are
// reported like any other rejection.
func coreError(err error) *protocol.ErrorResponse {
	switch {
	case errors.Is(err, srp.ErrConfiguration):
		return protocol.NewConfigurationError(err.Error()).Wrap(err)
	case errors.Is(err, srp.ErrDegenerateValue):
		return protocol.NewAuthenticationFailedError().Wrap(err)
	case errors.Is(err, srp.ErrProtocolViolation):
		return protocol.NewProtocolViolationError(err.Error()).Wrap(err)
	default:
		return protocol.NewConfigurationError(err.Error()).Wrap(err)
	}
}

func exchangeError(step string, err error) error {
	var perr *protocol.ErrorResponse
	if errors.As(err, &perr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return protocol.NewTransportFailureError(step+": "+err.Error(), false).Wrap(err)
	}
	return protocol.NewTransportFailureError(fmt.Sprintf("%s: %v", step, err), true).Wrap(err)
}
