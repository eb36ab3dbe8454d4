// Copyright (c) 2025 The Zcash developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

// Package header implements the canonical 80-byte Bitcoin block header:
// serialization, double-SHA256 block identity, and proof-of-work
// verification and mining.
package header

import (
	"errors"
	"fmt"

	"github.com/btcforknode/headerchain/codec"
	"github.com/btcforknode/headerchain/hash32"
	"github.com/btcforknode/headerchain/hasher"
	"github.com/btcforknode/headerchain/powtarget"
)

// Size is the canonical serialized length of a header, in bytes.
const Size = 80

// Header is the six-field Bitcoin block header record. It is a plain
// value: freely copyable, with no identity beyond its contents.
type Header struct {
	Version    int32
	PrevBlock  hash32.T
	MerkleRoot hash32.T
	Time       uint32
	Bits       uint32
	Nonce      uint32
}

// Init resets h to its zero value.
func (h *Header) Init() {
	*h = Header{}
}

// Copy returns a deep copy of h. Because every field is a value type,
// this is equivalent to a plain struct assignment; the method exists so
// callers don't need to know that.
func (h Header) Copy() Header {
	return h
}

// Size returns the constant canonical serialized length, 80.
func (h *Header) Size() int {
	return Size
}

// MarshalBinary returns the 80-byte canonical little-endian encoding of
// h. It never fails.
func (h *Header) MarshalBinary() ([]byte, error) {
	w := codec.NewWriter(Size)
	w.WriteInt32(h.Version)
	w.WriteRaw(h.PrevBlock[:])
	w.WriteRaw(h.MerkleRoot[:])
	w.WriteUint32(h.Time)
	w.WriteUint32(h.Bits)
	w.WriteUint32(h.Nonce)
	return w.Bytes(), nil
}

// ErrShortHeader is returned by Parse when fewer than Size bytes are
// available.
var ErrShortHeader = errors.New("header: short input")

// Parse decodes the first 80 bytes of data into a new Header and
// returns it along with the unconsumed remainder. On failure it returns
// a nil Header and the input slice unaltered; the caller never observes
// a partially-populated header.
func Parse(data []byte) (*Header, []byte, error) {
	s := codec.String(data)
	var h Header
	var raw []byte

	if !s.ReadInt32(&h.Version) {
		return nil, data, fmt.Errorf("header: version: %w", ErrShortHeader)
	}
	if !s.ReadBytes(&raw, 32) {
		return nil, data, fmt.Errorf("header: prev_block: %w", ErrShortHeader)
	}
	h.PrevBlock = hash32.FromSlice(raw)
	if !s.ReadBytes(&raw, 32) {
		return nil, data, fmt.Errorf("header: merkle_root: %w", ErrShortHeader)
	}
	h.MerkleRoot = hash32.FromSlice(raw)
	if !s.ReadUint32(&h.Time) {
		return nil, data, fmt.Errorf("header: time: %w", ErrShortHeader)
	}
	if !s.ReadUint32(&h.Bits) {
		return nil, data, fmt.Errorf("header: bits: %w", ErrShortHeader)
	}
	if !s.ReadUint32(&h.Nonce) {
		return nil, data, fmt.Errorf("header: nonce: %w", ErrShortHeader)
	}

	return &h, []byte(s), nil
}

// Hash returns the double-SHA256 block identifier of h, in the hasher's
// native byte order (the same order SHA256d naturally produces, i.e.
// little-endian when interpreted as a 256-bit integer). Use hash32.Reverse
// to obtain the conventional big-endian display form.
func (h *Header) Hash() hash32.T {
	ser, _ := h.MarshalBinary()
	return hash32.T(hasher.Sum256(ser))
}

// Verify reports whether h satisfies proof-of-work: its block hash,
// reversed into big-endian order, is less than or equal to the 256-bit
// target decoded from Bits. A header whose Bits fails to decode is
// never verified.
func (h *Header) Verify() bool {
	target, ok := powtarget.CompactToTarget(h.Bits)
	if !ok {
		return false
	}
	hash := hash32.Reverse(h.Hash())
	return powtarget.CompareHash([32]byte(hash), target) <= 0
}

// Clock returns the current time as Unix-epoch seconds, the shape Mine
// expects for re-timestamping the header between prefix recomputations.
type Clock func() uint32

// Mine searches for a Nonce (and Time) such that h satisfies
// proof-of-work against target. It mutates h in place: Version,
// PrevBlock, MerkleRoot, and Bits are left as the caller set them; Time
// and Nonce are overwritten during the search.
//
// The search amortizes hashing by snapshotting the hash of the first 76
// header bytes (everything but the nonce) once per pass over the nonce
// space, then forking that snapshot for each nonce attempt and absorbing
// only the four nonce bytes before finalizing. The clock is read at the
// start and again each time Nonce wraps to zero. If limit is nonzero,
// Mine gives up and returns false after limit attempts, leaving h's Time
// at its last value and Nonce one past the last nonce tried. If limit is
// zero the search is unbounded.
func (h *Header) Mine(target [32]byte, limit uint64, clock Clock) bool {
	var attempts uint64

	for {
		h.Time = clock()

		prefix := hasher.New()
		prefix.WriteInt32(h.Version)
		prefix.Write(h.PrevBlock[:])
		prefix.Write(h.MerkleRoot[:])
		prefix.WriteUint32(h.Time)
		prefix.WriteUint32(h.Bits)

		snap, err := prefix.Snapshot()
		if err != nil {
			return false
		}

		for {
			attempt, err := hasher.Fork(snap)
			if err != nil {
				return false
			}
			attempt.WriteUint32(h.Nonce)
			hash := hash32.Reverse(hash32.T(attempt.Sum()))

			if powtarget.CompareHash([32]byte(hash), target) <= 0 {
				return true
			}

			h.Nonce++

			if limit > 0 {
				attempts++
				if attempts == limit {
					return false
				}
			}

			if h.Nonce == 0 {
				break
			}
		}
	}
}
