package pbaas

import (
	"fmt"

	blake2b "github.com/minio/blake2b-simd"

	"github.com/chronodrachma/verushash/pkg/core/types"
)

// PreHeaderSize is the size of the assembled pre-header.
const PreHeaderSize = 32 + 32 + 32 + 32 + 4 + 32 + 32

// Personalization is the BLAKE2b personalization tag for pre-header hashes.
const Personalization = "VerusDefaultHash"

// PreHeader holds the fields merged mining allows to vary, in commitment
// order: hashPrevBlock, hashMerkleRoot, hashFinalSaplingRoot, nNonce, nBits,
// hashPrevMMRRoot, hashBlockMMRRoot. It is never hashed for proof of work.
type PreHeader [PreHeaderSize]byte

// preHeaderLayout lists the source fields in commitment order.
var preHeaderLayout = []span{
	headerRootsField,
	nonceField,
	bitsField,
	mmrRootsField,
}

// AssemblePreHeader copies the non-canonical fields of buf into a new PreHeader.
func AssemblePreHeader(buf []byte) (PreHeader, error) {
	var p PreHeader
	v := NewView(buf)
	n := 0
	for _, s := range preHeaderLayout {
		b, err := v.field(s)
		if err != nil {
			return PreHeader{}, err
		}
		n += copy(p[n:], b)
	}
	return p, nil
}

// IsZero reports whether every byte of the pre-header is zero, meaning the
// non-canonical fields were cleared upstream.
func (p *PreHeader) IsZero() bool {
	for _, b := range p {
		if b != 0 {
			return false
		}
	}
	return true
}

// Hash returns the personalized BLAKE2b-256 of the pre-header.
func (p *PreHeader) Hash() (types.Hash, error) {
	return personalizedHash(p[:])
}

// PersonalizedHash computes BLAKE2b-256 with the "VerusDefaultHash"
// personalization, no key and no salt. State is allocated per call.
func PersonalizedHash(data []byte) (types.Hash, error) {
	h, err := blake2b.New(&blake2b.Config{
		Size:   types.HashSize,
		Person: []byte(Personalization),
	})
	if err != nil {
		return types.Hash{}, fmt.Errorf("blake2b init: %w", err)
	}
	h.Write(data)
	return types.HashFromBytes(h.Sum(nil))
}

// personalizedHash is replaced in tests to exercise primitive failures.
var personalizedHash = PersonalizedHash
