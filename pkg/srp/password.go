package srp

import "unicode/utf16"

// PackPassword encodes a password the way LEAP servers hash it. Each UTF-16
// code unit contributes its low byte, followed by its high byte only when the
// unit is above 0xFF. This is not a standard text encoding but existing
// verifiers depend on it.
func PackPassword(password string) []byte {
	units := utf16.Encode([]rune(password))

	packed := make([]byte, 0, 2*len(units))
	for _, c := range units {
		packed = append(packed, byte(c))
		if c > 0xFF {
			packed = append(packed, byte(c>>8))
		}
	}
	return packed
}

// encodeUsername returns the bytes hashed for the identity. Go strings already
// hold UTF-8; a string that is not valid UTF-8 is hashed as its raw bytes.
func encodeUsername(username string) []byte {
	return Trim([]byte(username))
}
