// Package hasher provides the double-SHA256 primitive used for block
// identity, with a snapshot/fork API that amortizes the mining search
// loop's prefix hashing across nonce attempts.
package hasher

import (
	"crypto/sha256"
	"encoding"
	"fmt"
)

// Hash256 is a streaming double-SHA256 accumulator. The zero value is
// ready to use via Reset, mirroring crypto/sha256.New.
type Hash256 struct {
	inner crypto256
}

type crypto256 interface {
	Write(p []byte) (int, error)
	Sum(b []byte) []byte
}

// New returns a Hash256 ready to accept writes.
func New() *Hash256 {
	h := &Hash256{}
	h.Reset()
	return h
}

// Reset clears the accumulator back to its initial state.
func (h *Hash256) Reset() {
	h.inner = sha256.New()
}

// Write absorbs p into the running hash. It never fails.
func (h *Hash256) Write(p []byte) {
	h.inner.Write(p)
}

// WriteUint32 absorbs v as four little-endian bytes, byte-identical to
// a raw Write of the same bytes.
func (h *Hash256) WriteUint32(v uint32) {
	h.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

// WriteInt32 absorbs v as four little-endian bytes.
func (h *Hash256) WriteInt32(v int32) {
	h.WriteUint32(uint32(v))
}

// Sum finalizes the accumulator and returns SHA256(SHA256(written)). It
// does not mutate the receiver; further writes may follow as if Sum had
// not been called, matching crypto/sha256's own Sum semantics.
func (h *Hash256) Sum() [32]byte {
	first := h.inner.Sum(nil)
	return sha256.Sum256(first)
}

// Snapshot captures the accumulator's internal state as an opaque,
// copyable value. crypto/sha256's digest type implements
// encoding.BinaryMarshaler specifically so mid-stream state can be
// captured without exposing the digest's internal fields; this is the
// "value with no hidden heap state" the mining prefix-snapshot needs.
func (h *Hash256) Snapshot() ([]byte, error) {
	m, ok := h.inner.(encoding.BinaryMarshaler)
	if !ok {
		return nil, fmt.Errorf("hasher: state is not marshalable")
	}
	return m.MarshalBinary()
}

// Fork produces a new Hash256 seeded from a prior Snapshot, leaving the
// snapshot and any other fork of it independently writable.
func Fork(snapshot []byte) (*Hash256, error) {
	h := New()
	u, ok := h.inner.(encoding.BinaryUnmarshaler)
	if !ok {
		return nil, fmt.Errorf("hasher: state is not unmarshalable")
	}
	if err := u.UnmarshalBinary(snapshot); err != nil {
		return nil, fmt.Errorf("hasher: restoring snapshot: %w", err)
	}
	return h, nil
}

// Sum256 double-hashes p in one call, for callers that have no need for
// the streaming or snapshot API.
func Sum256(p []byte) [32]byte {
	first := sha256.Sum256(p)
	return sha256.Sum256(first[:])
}
