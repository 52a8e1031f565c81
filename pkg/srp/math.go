package srp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

var bigOne = big.NewInt(1)

// Trim strips leading zero bytes, leaving the unsigned big-endian magnitude.
// Every integer and most digests cross the hash chain in trimmed form.
func Trim(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	return b[i:]
}

// DerivePasswordSecret computes x = H(s | H(U | ":" | P)) in trimmed form,
// where P is the packed password.
func DerivePasswordSecret(p *Parameters, username, password string, salt []byte) []byte {
	packed := PackPassword(password)
	defer clear(packed)

	return derivePasswordSecret(p, username, packed, salt)
}

func derivePasswordSecret(p *Parameters, username string, packed, salt []byte) []byte {
	inner := p.Hash.digest(encodeUsername(username), Trim([]byte(":")), packed)
	return Trim(p.Hash.digest(Trim(salt), inner))
}

// DeriveVerifier computes the client-side verifier v = k * g^x mod N.
func DeriveVerifier(p *Parameters, x *big.Int) *big.Int {
	v := new(big.Int).Exp(p.G, x, p.N)
	v.Mul(v, p.K)
	return v.Mod(v, p.N)
}

// RandomEphemeral draws a private exponent of at most bits bits from r,
// retrying until the value is at least 2.
func RandomEphemeral(r io.Reader, bits int) (*big.Int, error) {
	if bits < 2 {
		return nil, fmt.Errorf("%w: ephemeral needs at least 2 bits, got %d", ErrConfiguration, bits)
	}
	if r == nil {
		return nil, errors.New("no random source")
	}

	limit := new(big.Int).Lsh(bigOne, uint(bits))
	for {
		a, err := rand.Int(r, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to read random ephemeral: %w", err)
		}
		if a.Cmp(bigOne) > 0 {
			return a, nil
		}
	}
}

// PublicEphemeral computes A = g^a mod N.
func PublicEphemeral(p *Parameters, a *big.Int) *big.Int {
	return new(big.Int).Exp(p.G, a, p.N)
}

// ScramblingParam computes u = H(A | B). A and B are the trimmed encodings
// that were put on the wire.
//
//nolint:gocritic // A and B are capitalized per RFC 5054 SRP-6a specification
func ScramblingParam(p *Parameters, A, B []byte) *big.Int {
	return new(big.Int).SetBytes(p.Hash.digest(A, B))
}

// SharedSecret computes S = (B - v)^(a + u*x) mod N. A base congruent to zero
// yields S = 0 without error; Session decides whether to accept that.
//
//nolint:gocritic // B is capitalized per RFC 5054 SRP-6a specification
func SharedSecret(p *Parameters, B, v, a, u, x *big.Int) *big.Int {
	base := new(big.Int).Sub(B, v)
	base.Mod(base, p.N)

	exponent := new(big.Int).Mul(u, x)
	exponent.Add(exponent, a)

	return new(big.Int).Exp(base, exponent, p.N)
}

// SessionKey computes K = H(S).
//
//nolint:gocritic // S is capitalized per RFC 5054 SRP-6a specification
func SessionKey(p *Parameters, S *big.Int) []byte {
	return p.Hash.digest(S.Bytes())
}

// ClientProof computes M1 = H(H(N) xor H(g) | H(U) | s | A | B | K).
//
//nolint:gocritic // A, B and K are capitalized per RFC 5054 SRP-6a specification
func ClientProof(p *Parameters, username string, salt, A, B, K []byte) []byte {
	return p.Hash.digest(groupDigest(p), usernameDigest(p, username), Trim(salt), Trim(A), Trim(B), K)
}

// ServerProof computes M2 = H(A | M1 | K).
//
//nolint:gocritic // A, M1 and K are capitalized per RFC 5054 SRP-6a specification
func ServerProof(p *Parameters, A, M1, K []byte) []byte {
	return p.Hash.digest(Trim(A), M1, K)
}

// groupDigest computes H(N) xor H(g), trimmed.
func groupDigest(p *Parameters) []byte {
	hn := p.Hash.digest(p.N.Bytes())
	hg := p.Hash.digest(p.G.Bytes())

	for i := range hn {
		hn[i] ^= hg[i]
	}
	return Trim(hn)
}

// usernameDigest computes H(U), trimmed.
func usernameDigest(p *Parameters, username string) []byte {
	return Trim(p.Hash.digest(encodeUsername(username)))
}
