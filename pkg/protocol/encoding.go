package protocol

import (
	"fmt"
	"math/big"
	"strings"
)

// EncodeHex renders b as the provider expects integers: lowercase hex of the
// unsigned big-endian value, no leading zeros. An all-zero input encodes as "0".
func EncodeHex(b []byte) string {
	return new(big.Int).SetBytes(b).Text(16)
}

// DecodeHex parses a hex integer as sent by the provider and returns its
// magnitude bytes. Case and an odd digit count are tolerated.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty hex value")
	}
	n, ok := new(big.Int).SetString(s, 16)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("invalid hex value %q", truncate(s, 16))
	}
	return n.Bytes(), nil
}

// DecodeHexPadded is DecodeHex left-padded with zeros to size bytes. Values
// longer than size are rejected.
func DecodeHexPadded(s string, size int) ([]byte, error) {
	b, err := DecodeHex(s)
	if err != nil {
		return nil, err
	}
	if len(b) > size {
		return nil, fmt.Errorf("hex value is %d bytes, want at most %d", len(b), size)
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
