// Package auth implements the provider half of the LEAP SRP-6a exchange: user
// records, the per-login server state, session tokens and an HTTP handler
// that speaks the provider session API. It is the reference the client is
// tested against.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/leapcode/leapsrp/pkg/srp"
)

// ephemeralBits is the size of the server private exponent b.
const ephemeralBits = 256

var (
	// ErrInvalidEphemeral is returned when the client's A is 0 mod N.
	ErrInvalidEphemeral = errors.New("invalid A: A mod N == 0")

	// ErrProofMismatch is returned when the client's M1 does not match.
	ErrProofMismatch = errors.New("authentication failed: invalid proof M1")

	// ErrNotInitialized is returned when Verify runs before Init.
	ErrNotInitialized = errors.New("init must be called before verify")
)

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerEphemeral fixes the private exponent b.
func WithServerEphemeral(b []byte) ServerOption {
	return func(s *Server) {
		s.b = new(big.Int).SetBytes(b)
	}
}

// WithServerRandom sets the entropy source for b.
func WithServerRandom(r io.Reader) ServerOption {
	return func(s *Server) {
		s.random = r
	}
}

// Server holds the provider state for one login attempt.
type Server struct {
	params *srp.Parameters
	record *Record
	random io.Reader

	b *big.Int // private ephemeral
	A []byte   // client public ephemeral, trimmed
	B []byte   // server public ephemeral, trimmed
	K []byte   // session key
}

// NewServer creates the server side of a login for record.
func NewServer(params *srp.Parameters, record *Record, opts ...ServerOption) *Server {
	s := &Server{
		params: params,
		record: record,
		random: rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init consumes the client's A and returns the salt and B = k*v + g^b mod N.
//
//nolint:gocritic // A and B are capitalized per RFC 5054 SRP-6a specification
func (s *Server) Init(A []byte) (salt, B []byte, err error) {
	N := s.params.N

	a := new(big.Int).SetBytes(A)
	if new(big.Int).Mod(a, N).Sign() == 0 {
		return nil, nil, ErrInvalidEphemeral
	}
	s.A = a.Bytes()

	if s.b == nil {
		if s.b, err = srp.RandomEphemeral(s.random, ephemeralBits); err != nil {
			return nil, nil, fmt.Errorf("failed to generate random b: %w", err)
		}
	}

	kv := new(big.Int).Mul(s.params.K, s.record.Verifier)
	gb := new(big.Int).Exp(s.params.G, s.b, N)
	b := kv.Add(kv, gb)
	b.Mod(b, N)
	if b.Sign() == 0 {
		return nil, nil, fmt.Errorf("invalid B: B mod N == 0 (regenerate b)")
	}
	s.B = b.Bytes()

	return s.record.Salt, s.B, nil
}

// Verify checks the client's M1 and returns M2 = H(A | M1 | K).
//
//nolint:gocritic // M1 and M2 are capitalized per RFC 5054 SRP-6a specification
func (s *Server) Verify(M1 []byte) (M2 []byte, err error) {
	if s.A == nil || s.B == nil {
		return nil, ErrNotInitialized
	}

	N := s.params.N
	u := srp.ScramblingParam(s.params, s.A, s.B)

	// S = (A * v^u)^b mod N
	avu := new(big.Int).Exp(s.record.Verifier, u, N)
	avu.Mul(avu, new(big.Int).SetBytes(s.A))
	avu.Mod(avu, N)
	S := new(big.Int).Exp(avu, s.b, N)
	s.K = srp.SessionKey(s.params, S)
	S.SetInt64(0)

	expected := srp.ClientProof(s.params, s.record.Username, s.record.Salt, s.A, s.B, s.K)
	if subtle.ConstantTimeCompare(M1, expected) != 1 {
		return nil, ErrProofMismatch
	}

	return srp.ServerProof(s.params, s.A, M1, s.K), nil
}

// SessionKey returns K once Verify has run.
func (s *Server) SessionKey() []byte {
	return s.K
}

// ClearSecrets zeroes b and K.
func (s *Server) ClearSecrets() {
	if s.b != nil {
		s.b.SetInt64(0)
		s.b = nil
	}
	clear(s.K)
	s.K = nil
}
