package types

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// HashSize is the length of all digests in bytes.
const HashSize = 32

// Hash represents a 32-byte digest (VerusHash output or a personalized
// BLAKE2b pre-header hash).
type Hash [HashSize]byte

// ZeroHash is the all-zeroes hash.
var ZeroHash Hash

// SentinelHash is returned in place of a proof-of-work digest when a block
// claims merged-mining support but its commitment does not authenticate.
// No difficulty target can be satisfied by it.
var SentinelHash = Hash{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
}

// HashFromBytes creates a Hash from a byte slice. Returns error if len != 32.
func HashFromBytes(b []byte) (Hash, error) {
	if len(b) != HashSize {
		return Hash{}, fmt.Errorf("hash must be %d bytes, got %d", HashSize, len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// HashFromHex parses a hex-encoded string into a Hash.
func HashFromHex(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("invalid hex: %w", err)
	}
	return HashFromBytes(b)
}

// HashFromReverseHex parses the display form produced by ReverseHex.
func HashFromReverseHex(s string) (Hash, error) {
	r, err := HashFromHex(s)
	if err != nil {
		return Hash{}, err
	}
	var h Hash
	for i := range r {
		h[HashSize-1-i] = r[i]
	}
	return h, nil
}

// Bytes returns the hash as a byte slice.
func (h Hash) Bytes() []byte {
	return h[:]
}

// Hex returns the lowercase hex-encoded string in storage (little endian) order.
func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

// ReverseHex returns the hex string with byte order reversed, the way block
// explorers and pool software display a uint256.
func (h Hash) ReverseHex() string {
	var r Hash
	for i := range h {
		r[HashSize-1-i] = h[i]
	}
	return r.Hex()
}

// String implements fmt.Stringer.
func (h Hash) String() string {
	return h.Hex()
}

// IsZero returns true if every byte is 0x00.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// IsSentinel returns true if every byte is 0xFF.
func (h Hash) IsSentinel() bool {
	return h == SentinelHash
}

// Less orders digests as little endian 256-bit integers, so a Less hash
// represents more work.
func (h Hash) Less(other Hash) bool {
	for i := HashSize - 1; i >= 0; i-- {
		if h[i] != other[i] {
			return h[i] < other[i]
		}
	}
	return false
}

// Equal compares a digest against a raw byte slice.
func (h Hash) Equal(b []byte) bool {
	return bytes.Equal(h[:], b)
}
