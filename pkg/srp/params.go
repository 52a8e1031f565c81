// Package srp provides the client side of the SRP-6a variant spoken by LEAP
// providers: password secret derivation, ephemeral exchange, session key
// agreement and mutual proof verification.
//
// The derivation functions (DerivePasswordSecret, DeriveVerifier,
// PublicEphemeral, ScramblingParam, SharedSecret, SessionKey, ClientProof,
// ServerProof) take Parameters that have passed Validate and panic on
// parameters that would not. NewSession validates before using any of them.
package srp

import (
	"crypto"
	"fmt"
	"math/big"
	"slices"

	"github.com/bytemare/hash"
)

// HashAlgorithm names the digest used for every hash in the protocol.
type HashAlgorithm string

// Supported hash algorithms. Both produce 256-bit digests.
const (
	SHA256   HashAlgorithm = "SHA-256"
	SHA3_256 HashAlgorithm = "SHA3-256"
)

const digestSize = 32

// Group names accepted by GroupByName.
const (
	GroupLEAP1024 = "leap-1024"
	GroupRFC2048  = "rfc5054-2048"
)

// RFC 5054 Appendix A group moduli.
const (
	leap1024N = "EEAF0AB9ADB38DD69C33F80AFA8FC5E86072618775FF3C0B9EA2314C9C256576" +
		"D674DF7496EA81D3383B4813D692C6E0E0D5D8E250B98BE48E495C1D6089DAD1" +
		"5DC7D7B46154D6B6CE8EF4AD69B15D4982559B297BCF1885C529F566660E57EC" +
		"68EDBC3C05726CC02FD4CBF4976EAA9AFD5138FE8376435B9FC61D2FC0EB06E3"

	// leap1024K is the multiplier LEAP servers are configured with.
	leap1024K = "bf66c44a428916cad64aa7c679f3fd897ad4c375e9bbb4cbf2f5de241d618ef0"

	rfc5054N2048 = "AC6BDB41324A9A9BF166DE5E1389582FAF72B6651987EE07FC3192943DB56050" +
		"A37329CBB4A099ED8193E0757767A13DD52312AB4B03310DCD7F48A9DA04FD50" +
		"E8083969EDB767B0CF6095179A163AB3661A05FBD5FAAAE82918A9962F0B93B8" +
		"55F97993EC975EEAA80D740ADBF4FF747359D041D5C33EA71D281E446B14773B" +
		"CA97B43A23FB801676BD207A436C6481F1D2B9078717461A5B9D32E688F87748" +
		"544523B524B0D57D5EA77A2775D2ECFA032CFBDBF52FB3786160279004E57AE6" +
		"AF874E7303CE53299CCC041C7BC308D82A5698F3A8D0C38271AE35F8E9DBFBB6" +
		"94B5C803D89F7AE435DE236D525F54759B65E372FCD68EF20FA7111F9E4AFF73"
)

// Parameters holds the group and hash agreed with the server.
// A Parameters value must not be modified once a Session uses it.
type Parameters struct {
	N *big.Int // group modulus
	G *big.Int // generator
	K *big.Int // multiplier, must equal the server's constant

	// Salt, when set, overrides the salt supplied by the server.
	Salt []byte

	// Hash defaults to SHA-256 when empty.
	Hash HashAlgorithm
}

// NewParameters parses hex-encoded group values. An empty kHex derives the
// multiplier as k = H(N | PAD(g)).
//
//nolint:gocritic // N is capitalized per RFC 5054 SRP-6a specification
func NewParameters(nHex, gHex, kHex string, h HashAlgorithm) (*Parameters, error) {
	N, err := parseHex("N", nHex)
	if err != nil {
		return nil, err
	}
	g, err := parseHex("g", gHex)
	if err != nil {
		return nil, err
	}

	p := &Parameters{N: N, G: g, K: big.NewInt(1), Hash: h}
	if kHex != "" {
		if p.K, err = parseHex("k", kHex); err != nil {
			return nil, err
		}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	if kHex == "" {
		p.K = computeK(p)
	}
	return p, nil
}

// LEAP1024 returns the 1024-bit group used by LEAP providers, with g = 2,
// LEAP's fixed multiplier and SHA-256.
func LEAP1024() *Parameters {
	return &Parameters{
		N:    mustHex(leap1024N),
		G:    big.NewInt(2),
		K:    mustHex(leap1024K),
		Hash: SHA256,
	}
}

// RFC5054Group2048 returns the 2048-bit RFC 5054 group with g = 2 and
// k = H(N | PAD(g)) over SHA-256.
func RFC5054Group2048() *Parameters {
	p := &Parameters{
		N:    mustHex(rfc5054N2048),
		G:    big.NewInt(2),
		Hash: SHA256,
	}
	p.K = computeK(p)
	return p
}

// GroupByName returns the preset registered under name.
func GroupByName(name string) (*Parameters, error) {
	switch name {
	case GroupLEAP1024, "":
		return LEAP1024(), nil
	case GroupRFC2048:
		return RFC5054Group2048(), nil
	default:
		return nil, fmt.Errorf("%w: unknown group %q", ErrConfiguration, name)
	}
}

// Validate reports whether the parameters are usable. It does not test N for
// primality; a composite N weakens the protocol but does not break it.
func (p *Parameters) Validate() error {
	switch {
	case p.N == nil:
		return fmt.Errorf("%w: N is required", ErrConfiguration)
	case p.G == nil:
		return fmt.Errorf("%w: g is required", ErrConfiguration)
	case p.K == nil:
		return fmt.Errorf("%w: k is required", ErrConfiguration)
	case p.N.Cmp(big.NewInt(2)) <= 0 || p.N.Bit(0) == 0:
		return fmt.Errorf("%w: N must be an odd integer greater than 2", ErrConfiguration)
	case p.G.Cmp(big.NewInt(1)) <= 0 || p.G.Cmp(p.N) >= 0:
		return fmt.Errorf("%w: g must lie in (1, N)", ErrConfiguration)
	case p.K.Sign() <= 0:
		return fmt.Errorf("%w: k must be positive", ErrConfiguration)
	}

	id, err := p.Hash.identifier()
	if err != nil {
		return err
	}
	if size := hash.FromCrypto(id).GetHashFunction().Size(); size != digestSize {
		return fmt.Errorf("%w: %s produces %d-byte digests, want %d", ErrConfiguration, p.Hash, size, digestSize)
	}
	return nil
}

// DigestSize returns the size of proofs and session keys in bytes.
func (p *Parameters) DigestSize() int {
	return digestSize
}

// Clone returns a deep copy of p.
func (p *Parameters) Clone() *Parameters {
	c := &Parameters{Hash: p.Hash}
	if p.N != nil {
		c.N = new(big.Int).Set(p.N)
	}
	if p.G != nil {
		c.G = new(big.Int).Set(p.G)
	}
	if p.K != nil {
		c.K = new(big.Int).Set(p.K)
	}
	c.Salt = slices.Clone(p.Salt)
	return c
}

func (h HashAlgorithm) identifier() (crypto.Hash, error) {
	switch h {
	case SHA256, "":
		return crypto.SHA256, nil
	case SHA3_256:
		return crypto.SHA3_256, nil
	default:
		return 0, fmt.Errorf("%w: unsupported hash algorithm %q", ErrConfiguration, string(h))
	}
}

// digest hashes the concatenation of chunks. h must have passed Validate.
func (h HashAlgorithm) digest(chunks ...[]byte) []byte {
	id, err := h.identifier()
	if err != nil {
		panic("srp: parameters not validated: " + err.Error())
	}

	fn := hash.FromCrypto(id).GetHashFunction()
	for _, c := range chunks {
		_, _ = fn.Write(c)
	}
	return fn.Sum(nil)
}

// computeK computes the SRP-6a multiplier k = H(N | PAD(g)).
func computeK(p *Parameters) *big.Int {
	nBytes := p.N.Bytes()
	gBytes := make([]byte, len(nBytes))
	p.G.FillBytes(gBytes)

	return new(big.Int).SetBytes(p.Hash.digest(nBytes, gBytes))
}

func parseHex(name, s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: %s is required", ErrConfiguration, name)
	}
	n, ok := new(big.Int).SetString(s, 16)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s is not a hex integer", ErrConfiguration, name)
	}
	return n, nil
}

func mustHex(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("invalid hex string: " + s)
	}
	return n
}
