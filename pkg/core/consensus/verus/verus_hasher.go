//go:build cgo && verushash

package verus

import (
	"github.com/chronodrachma/verushash/pkg/core/types"
)

// Hasher computes one VerusHash variant through the native library.
// It holds no mutable state and is safe for concurrent use.
type Hasher struct {
	v1         bool
	version    SolutionVersion
	finalize2b bool
}

// NewV1 returns a Hasher for VerusHash 1.0.
func NewV1() *Hasher {
	return &Hasher{v1: true}
}

// NewV2 returns a Hasher for the VerusHash 2 engine generation version.
func NewV2(version SolutionVersion, finalize2b bool) *Hasher {
	return &Hasher{version: version, finalize2b: finalize2b}
}

// Hash computes the VerusHash of the given header bytes.
func (h *Hasher) Hash(data []byte) (types.Hash, error) {
	if err := Init(); err != nil {
		return types.Hash{}, err
	}
	if h.v1 {
		return SumV1(data), nil
	}
	return SumV2(data, h.version, h.finalize2b), nil
}

// Close is a no-op; the native engines hold no per-hasher resources.
func (h *Hasher) Close() {}
