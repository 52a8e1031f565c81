package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"

	"github.com/leapcode/leapsrp/pkg/srp"
)

// DefaultSaltSize is the salt length used by GenerateSalt callers in this package.
const DefaultSaltSize = 8

// Record is what a provider stores for a user: the salt and the verifier
// v = g^x mod N.
type Record struct {
	Username string
	Salt     []byte
	Verifier *big.Int
}

// ComputeVerifier computes v = g^x % N where x = H(s | H(U | ":" | P)).
func ComputeVerifier(params *srp.Parameters, username, password string, salt []byte) *big.Int {
	x := new(big.Int).SetBytes(srp.DerivePasswordSecret(params, username, password, salt))
	defer x.SetInt64(0)

	return new(big.Int).Exp(params.G, x, params.N)
}

// GenerateSalt returns size random bytes whose first byte is non-zero, so the
// salt survives the hex round trip unchanged.
func GenerateSalt(size int) ([]byte, error) {
	salt := make([]byte, size)
	for {
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("failed to generate random salt: %w", err)
		}
		if size == 0 || salt[0] != 0 {
			return salt, nil
		}
	}
}

// NewRecord signs a user up: it draws a salt and computes the verifier.
func NewRecord(params *srp.Parameters, username, password string) (*Record, error) {
	salt, err := GenerateSalt(DefaultSaltSize)
	if err != nil {
		return nil, err
	}
	return &Record{
		Username: username,
		Salt:     salt,
		Verifier: ComputeVerifier(params, username, password, salt),
	}, nil
}

// Directory is a concurrency-safe set of user records.
type Directory struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewDirectory creates a Directory holding records.
func NewDirectory(records ...*Record) *Directory {
	d := &Directory{records: make(map[string]*Record, len(records))}
	for _, r := range records {
		d.records[r.Username] = r
	}
	return d
}

// Add stores or replaces a record.
func (d *Directory) Add(r *Record) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records[r.Username] = r
}

// Lookup returns the record for username, or nil.
func (d *Directory) Lookup(username string) *Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.records[username]
}
