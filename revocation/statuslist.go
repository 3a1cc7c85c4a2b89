// Package revocation implements the StatusList2021 bit-vector used to
// record revoked or suspended credentials by index.
package revocation

import (
	"fmt"

	"github.com/veridian/go-identity-sdk/credential/common/util"
)

// StatusType2022 is the credentialStatus type tag understood by the
// credential validator for bitmap-backed revocation.
const StatusType2022 = "RevocationBitmap2022"

// DefaultEntries is the default status list capacity (16 KiB of bits).
const DefaultEntries = 16 * 1024 * 8

// ErrInvalidEncodedList is returned when an encoded status list cannot be
// decoded back into a bit-vector.
var ErrInvalidEncodedList = fmt.Errorf("invalid encoded status list")

// StatusList2021 is a fixed-capacity bit-vector. Every entry starts as
// "not revoked" (0). Bits are addressed MSB-first within each byte and
// the bit length is always a multiple of 8.
type StatusList2021 struct {
	bits []byte
}

// New allocates a status list able to hold at least numEntries bits,
// all zero. A non-positive numEntries yields the default capacity.
func New(numEntries int) *StatusList2021 {
	if numEntries <= 0 {
		numEntries = DefaultEntries
	}
	return &StatusList2021{bits: make([]byte, (numEntries+7)/8)}
}

// Len returns the number of entries in the list.
func (s *StatusList2021) Len() int {
	return len(s.bits) * 8
}

// Get reads the bit at index. ok is false when index is out of range.
func (s *StatusList2021) Get(index int) (value, ok bool) {
	if index < 0 || index >= s.Len() {
		return false, false
	}
	return s.GetUnchecked(index), true
}

// GetUnchecked reads the bit at index without bounds checking. The caller
// must have verified index < Len(); out-of-range access panics.
func (s *StatusList2021) GetUnchecked(index int) bool {
	return s.bits[index/8]&(0x80>>(index%8)) != 0
}

// Set writes the bit at index. Out-of-range indices are silently ignored.
func (s *StatusList2021) Set(index int, value bool) {
	if index < 0 || index >= s.Len() {
		return
	}
	mask := byte(0x80) >> (index % 8)
	if value {
		s.bits[index/8] |= mask
	} else {
		s.bits[index/8] &^= mask
	}
}

// Encode serializes the list as gzip-compressed, unpadded base64url text,
// the form published inside a status list credential.
func (s *StatusList2021) Encode() (string, error) {
	encoded, err := util.CompressToBase64URL(s.bits)
	if err != nil {
		return "", fmt.Errorf("failed to encode status list: %w", err)
	}
	return encoded, nil
}

// Decode parses the textual form produced by Encode. The round trip is
// lossless for every bit pattern and length.
func Decode(encoded string) (*StatusList2021, error) {
	bits, err := util.DecompressFromBase64URL(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEncodedList, err)
	}
	return &StatusList2021{bits: bits}, nil
}
