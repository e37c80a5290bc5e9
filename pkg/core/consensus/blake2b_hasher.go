package consensus

import (
	"golang.org/x/crypto/blake2b"

	"github.com/chronodrachma/verushash/pkg/core/types"
)

// Blake2bHasher implements Hasher using keyed BLAKE2b-256, one key per
// variant so the variants stay distinguishable.
// Used in tests to avoid requiring the VerusHash CGO build. Its digests are
// not VerusHash digests.
type Blake2bHasher struct {
	key []byte
}

var _ Hasher = (*Blake2bHasher)(nil)

// NewBlake2bHasher returns a new Blake2bHasher for the given variant.
func NewBlake2bHasher(variant Variant) *Blake2bHasher {
	return &Blake2bHasher{key: []byte("verushash/" + variant.String())}
}

// Hash computes BLAKE2b-256 keyed with the variant name. State is allocated
// per call.
func (h *Blake2bHasher) Hash(data []byte) (types.Hash, error) {
	d, err := blake2b.New256(h.key)
	if err != nil {
		return types.Hash{}, err
	}
	d.Write(data)
	return types.HashFromBytes(d.Sum(nil))
}

// Close is a no-op for Blake2bHasher.
func (h *Blake2bHasher) Close() {}
