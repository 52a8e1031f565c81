package srp

import (
	"bytes"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"math/big"
	"slices"
)

// defaultEphemeralBits is the size of a randomly drawn private exponent.
const defaultEphemeralBits = 256

// State is the position of a Session in the login exchange.
type State int

// Session states. StateVerified and StateFailed are terminal.
const (
	StateCreated State = iota
	StateExponentialSent
	StateResponseComputed
	StateVerified
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateExponentialSent:
		return "exponential_sent"
	case StateResponseComputed:
		return "response_computed"
	case StateVerified:
		return "verified"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Option configures a Session.
type Option func(*Session)

// WithEphemeral fixes the private exponent a to the unsigned big-endian
// integer in ab instead of drawing it at random.
func WithEphemeral(ab []byte) Option {
	return func(s *Session) {
		s.a = new(big.Int).SetBytes(ab)
		s.seeded = true
	}
}

// WithRandom sets the entropy source for the private exponent.
func WithRandom(r io.Reader) Option {
	return func(s *Session) {
		s.random = r
	}
}

// WithHardening toggles rejection of u == 0 and B ≡ v (mod N). It is on by
// default. B ≡ 0 (mod N) is rejected regardless.
func WithHardening(enabled bool) Option {
	return func(s *Session) {
		s.hardened = enabled
	}
}

// Session is the client side of one login attempt. It must not be shared
// between goroutines or reused after it reaches a terminal state.
type Session struct {
	params   *Parameters
	username string
	password []byte // packed; zeroed as soon as x is derived
	random   io.Reader
	hardened bool
	seeded   bool

	x *big.Int // password secret
	v *big.Int // k * g^x mod N
	a *big.Int // private ephemeral
	A []byte   // public ephemeral, trimmed
	K []byte   // session key

	client *Transcript // towards M1
	server *Transcript // towards M2

	state State
}

// NewSession starts a login attempt for username. The password is packed
// immediately and the plain string is not retained.
func NewSession(username, password string, params *Parameters, opts ...Option) (*Session, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrConfiguration)
	}
	if params == nil {
		return nil, fmt.Errorf("%w: parameters are required", ErrConfiguration)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	params = params.Clone()

	s := &Session{
		params:   params,
		username: username,
		password: PackPassword(password),
		random:   rand.Reader,
		hardened: true,
		client:   NewTranscript(params.Hash, clientTranscriptLabels...),
		server:   NewTranscript(params.Hash, serverTranscriptLabels...),
		state:    StateCreated,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.seeded && s.a.Cmp(bigOne) <= 0 {
		s.ClearSecrets()
		return nil, fmt.Errorf("%w: private ephemeral must be at least 2", ErrConfiguration)
	}

	if err := s.client.Set(LabelGroup, groupDigest(params)); err != nil {
		return nil, err
	}
	if err := s.client.Set(LabelUsername, usernameDigest(params, username)); err != nil {
		return nil, err
	}

	if params.Salt != nil {
		if err := s.deriveSecret(params.Salt); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Exponential returns the trimmed public ephemeral A, generating a if it was
// not supplied. Repeated calls return the same A without touching the
// transcripts.
func (s *Session) Exponential() ([]byte, error) {
	switch s.state {
	case StateCreated:
	case StateFailed:
		return nil, fmt.Errorf("%w: session has failed", ErrProtocolViolation)
	default:
		return slices.Clone(s.A), nil
	}

	if s.a == nil {
		a, err := RandomEphemeral(s.random, defaultEphemeralBits)
		if err != nil {
			s.fail()
			return nil, err
		}
		s.a = a
	}

	s.A = PublicEphemeral(s.params, s.a).Bytes()
	if err := s.client.Set(LabelA, s.A); err != nil {
		return nil, s.violation(err)
	}
	if err := s.server.Set(LabelA, s.A); err != nil {
		return nil, s.violation(err)
	}

	s.state = StateExponentialSent
	return slices.Clone(s.A), nil
}

// Response consumes the server's salt and B and returns the client proof M1.
// A nil salt falls back to Parameters.Salt.
//
//nolint:gocritic // B is capitalized per RFC 5054 SRP-6a specification
func (s *Session) Response(salt, B []byte) ([]byte, error) {
	if s.state != StateExponentialSent {
		return nil, s.violation(fmt.Errorf("%w: response requires state %s, have %s",
			ErrProtocolViolation, StateExponentialSent, s.state))
	}

	B = Trim(B)
	b := new(big.Int).SetBytes(B)
	if new(big.Int).Mod(b, s.params.N).Sign() == 0 {
		s.fail()
		return nil, fmt.Errorf("%w: B mod N == 0", ErrDegenerateValue)
	}

	if err := s.resolveSalt(salt); err != nil {
		s.fail()
		return nil, err
	}

	u := ScramblingParam(s.params, s.A, B)
	if s.hardened {
		if u.Sign() == 0 {
			s.fail()
			return nil, fmt.Errorf("%w: u == 0", ErrDegenerateValue)
		}
		if diff := new(big.Int).Sub(b, s.v); diff.Mod(diff, s.params.N).Sign() == 0 {
			s.fail()
			return nil, fmt.Errorf("%w: B ≡ v (mod N)", ErrDegenerateValue)
		}
	}

	S := SharedSecret(s.params, b, s.v, s.a, u, s.x)
	K := SessionKey(s.params, S)
	S.SetInt64(0)

	if err := s.client.Set(LabelB, B); err != nil {
		return nil, s.violation(err)
	}
	if err := s.client.Set(LabelKey, K); err != nil {
		return nil, s.violation(err)
	}
	M1, err := s.client.Sum()
	if err != nil {
		return nil, s.violation(err)
	}

	if err := s.server.Set(LabelProof, M1); err != nil {
		return nil, s.violation(err)
	}
	if err := s.server.Set(LabelKey, K); err != nil {
		return nil, s.violation(err)
	}

	s.K = K
	s.state = StateResponseComputed
	return M1, nil
}

// Verify checks the server proof M2 in constant time. A mismatch is reported
// as false with a nil error and leaves the session failed; an error means
// Verify was called out of order.
//
//nolint:gocritic // M2 is capitalized per RFC 5054 SRP-6a specification
func (s *Session) Verify(M2 []byte) (bool, error) {
	if s.state != StateResponseComputed {
		return false, s.violation(fmt.Errorf("%w: verify requires state %s, have %s",
			ErrProtocolViolation, StateResponseComputed, s.state))
	}

	expected, err := s.server.Sum()
	if err != nil {
		return false, s.violation(err)
	}

	if subtle.ConstantTimeCompare(M2, expected) != 1 {
		s.fail()
		return false, nil
	}

	s.state = StateVerified
	return true, nil
}

// SessionKey returns a copy of K. It is only available once the server proof
// has been verified.
func (s *Session) SessionKey() ([]byte, error) {
	if s.state != StateVerified {
		return nil, fmt.Errorf("%w: session key requires state %s, have %s",
			ErrProtocolViolation, StateVerified, s.state)
	}
	if s.K == nil {
		return nil, fmt.Errorf("%w: session key has been cleared", ErrProtocolViolation)
	}
	return slices.Clone(s.K), nil
}

// ClearSecrets zeroes the password, x, v, a and K and drops both transcripts.
// The session cannot be used for further exchanges afterwards.
func (s *Session) ClearSecrets() {
	clear(s.password)
	s.password = nil

	for _, n := range []*big.Int{s.x, s.v, s.a} {
		if n != nil {
			n.SetInt64(0)
		}
	}
	s.x, s.v, s.a = nil, nil, nil

	clear(s.K)
	s.K = nil

	if s.client != nil {
		s.client.Reset()
	}
	if s.server != nil {
		s.server.Reset()
	}
	if s.state != StateVerified {
		s.state = StateFailed
	}
}

// resolveSalt checks the server salt against a configured one and derives x
// and v unless the configured salt already did.
func (s *Session) resolveSalt(salt []byte) error {
	if s.params.Salt != nil && salt != nil && !bytes.Equal(Trim(salt), Trim(s.params.Salt)) {
		return fmt.Errorf("%w: server salt differs from configured salt", ErrConfiguration)
	}
	if s.client.Has(LabelSalt) {
		return nil
	}
	return s.deriveSecret(salt)
}

func (s *Session) deriveSecret(salt []byte) error {
	salt = Trim(salt)

	xb := derivePasswordSecret(s.params, s.username, s.password, salt)
	s.x = new(big.Int).SetBytes(xb)
	clear(xb)
	clear(s.password)
	s.password = nil

	s.v = DeriveVerifier(s.params, s.x)
	return s.client.Set(LabelSalt, salt)
}

func (s *Session) fail() {
	s.ClearSecrets()
	s.state = StateFailed
}

func (s *Session) violation(err error) error {
	s.fail()
	return err
}
