package srp

import (
	"fmt"
	"slices"
)

// Transcript slot labels.
const (
	LabelGroup    = "H(N)^H(g)"
	LabelUsername = "H(U)"
	LabelSalt     = "s"
	LabelA        = "A"
	LabelB        = "B"
	LabelKey      = "K"
	LabelProof    = "M1"
)

var (
	clientTranscriptLabels = []string{LabelGroup, LabelUsername, LabelSalt, LabelA, LabelB, LabelKey}
	serverTranscriptLabels = []string{LabelA, LabelProof, LabelKey}
)

// Transcript is an ordered list of labelled byte chunks that is hashed on
// demand. Slots can be filled in any order but are always hashed in the order
// given to NewTranscript, and each slot is written exactly once.
type Transcript struct {
	hash   HashAlgorithm
	labels []string
	chunks map[string][]byte
}

// NewTranscript creates an empty transcript with the given slot order.
func NewTranscript(h HashAlgorithm, labels ...string) *Transcript {
	return &Transcript{
		hash:   h,
		labels: slices.Clone(labels),
		chunks: make(map[string][]byte, len(labels)),
	}
}

// Set fills a slot with a copy of chunk.
func (t *Transcript) Set(label string, chunk []byte) error {
	if !slices.Contains(t.labels, label) {
		return fmt.Errorf("%w: transcript has no slot %q", ErrProtocolViolation, label)
	}
	if _, ok := t.chunks[label]; ok {
		return fmt.Errorf("%w: transcript slot %q already written", ErrProtocolViolation, label)
	}

	t.chunks[label] = slices.Clone(chunk)
	if t.chunks[label] == nil {
		t.chunks[label] = []byte{}
	}
	return nil
}

// Has reports whether a slot has been filled.
func (t *Transcript) Has(label string) bool {
	_, ok := t.chunks[label]
	return ok
}

// Chunks returns the filled slots in hashing order. It fails if any slot is
// still empty.
func (t *Transcript) Chunks() ([][]byte, error) {
	out := make([][]byte, 0, len(t.labels))
	for _, label := range t.labels {
		chunk, ok := t.chunks[label]
		if !ok {
			return nil, fmt.Errorf("%w: transcript slot %q not written", ErrProtocolViolation, label)
		}
		out = append(out, chunk)
	}
	return out, nil
}

// Sum hashes the complete transcript.
func (t *Transcript) Sum() ([]byte, error) {
	chunks, err := t.Chunks()
	if err != nil {
		return nil, err
	}
	return t.hash.digest(chunks...), nil
}

// Reset zeroes and drops every chunk.
func (t *Transcript) Reset() {
	for label, chunk := range t.chunks {
		clear(chunk)
		delete(t.chunks, label)
	}
}
