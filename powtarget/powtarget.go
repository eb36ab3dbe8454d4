// Package powtarget converts between the compact ("nBits") proof-of-work
// target encoding and the 256-bit big-endian target it represents, and
// compares block hashes against a decoded target.
package powtarget

import "math/big"

// Size is the length in bytes of a decoded target.
const Size = 32

const (
	mantissaMask = 0x007fffff
	signBit      = 0x00800000
)

// CompactToTarget decodes bits into a 32-byte big-endian target. It
// reports false when bits does not encode a valid positive target:
// a zero mantissa, the sign bit set, a size above 34, a value that
// decodes to zero (as every size-0 encoding does), or a value that
// would overflow 256 bits are all rejected.
func CompactToTarget(bits uint32) (target [Size]byte, ok bool) {
	size := bits >> 24
	mantissa := bits & mantissaMask

	if mantissa == 0 {
		return target, false
	}
	if bits&signBit != 0 {
		return target, false
	}
	if size > 34 {
		return target, false
	}

	m := big.NewInt(int64(mantissa))
	t := new(big.Int)
	if size < 3 {
		t.Rsh(m, uint(8*(3-size)))
	} else {
		t.Lsh(m, uint(8*(size-3)))
	}

	if t.Sign() == 0 {
		return target, false
	}

	if t.BitLen() > 256 {
		return target, false
	}

	b := t.Bytes()
	if len(b) > Size {
		return target, false
	}
	copy(target[Size-len(b):], b)
	return target, true
}

// TargetToCompact encodes a 32-byte big-endian target into its minimal
// compact form. If the mantissa's high bit would be set (which would be
// misread as the sign flag) the size is bumped and the mantissa shifted
// down by one byte, preserving the unsigned-positive encoding.
func TargetToCompact(target [Size]byte) uint32 {
	t := new(big.Int).SetBytes(target[:])
	if t.Sign() == 0 {
		return 0
	}

	raw := t.Bytes()
	size := uint32(len(raw))

	var mantissa uint32
	switch {
	case size >= 3:
		mantissa = uint32(raw[0])<<16 | uint32(raw[1])<<8 | uint32(raw[2])
	case size == 2:
		mantissa = uint32(raw[0])<<16 | uint32(raw[1])<<8
	default:
		mantissa = uint32(raw[0]) << 16
	}

	if mantissa&signBit != 0 {
		mantissa >>= 8
		size++
	}

	return size<<24 | (mantissa & mantissaMask)
}

// CompareHash performs a three-way comparison of two 32-byte arrays as
// big-endian 256-bit integers, most-significant byte first. hash is
// expected already reversed into the same big-endian orientation
// CompactToTarget produces; see header.Header.Hash for the conversion
// from the hasher's native little-endian digest.
func CompareHash(hash, target [Size]byte) int {
	for i := 0; i < Size; i++ {
		if hash[i] != target[i] {
			if hash[i] < target[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
