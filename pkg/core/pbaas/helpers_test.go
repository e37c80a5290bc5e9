package pbaas

import (
	"encoding/binary"
	"testing"
)

// buildBlock returns a header+solution buffer with every byte non-zero,
// the given solution version and numHeaders chain descriptors.
func buildBlock(t *testing.T, solutionVersion uint32, numHeaders uint8) []byte {
	t.Helper()
	size := SolutionOffset + SolutionHeaderSize + int(numHeaders)*ChainDescriptorSize
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = byte(i%251) + 1
	}
	binary.LittleEndian.PutUint32(buf[SolutionOffset:], solutionVersion)
	buf[SolutionOffset+NumPBaaSHeadersOffset] = numHeaders
	return buf
}

// buildSealedBlock returns a PBaaS block whose first descriptor commits to
// its pre-header.
func buildSealedBlock(t *testing.T) []byte {
	t.Helper()
	buf := buildBlock(t, MinPBaaSSolutionVersion, 1)
	if err := Seal(buf); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	return buf
}

// canonicalMask marks the bytes canonicalization is allowed to touch.
func canonicalMask(size int) []bool {
	mask := make([]bool, size)
	for _, s := range canonicalFields {
		for i := s.off; i < s.end(); i++ {
			mask[i] = true
		}
	}
	return mask
}
