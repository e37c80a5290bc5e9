package consensus

import (
	"fmt"

	"github.com/chronodrachma/verushash/pkg/core/types"
)

// Hasher computes Proof-of-Work hashes. Implementations include
// verus.Hasher (production, CGO) and Blake2bHasher (testing, pure Go).
// Implementations must be safe for concurrent use on independent buffers.
type Hasher interface {
	// Hash computes the PoW hash of the given header+solution bytes.
	Hash(data []byte) (types.Hash, error)

	// Close releases any resources held by the hasher.
	Close()
}

// Variant names one VerusHash engine and finalization.
type Variant uint8

const (
	// VariantV1 is VerusHash 1.0.
	VariantV1 Variant = iota
	// VariantV2 is VerusHash 2.0 with the standard finalization.
	VariantV2
	// VariantV2b is VerusHash 2.0 with the 2b finalization.
	VariantV2b
	// VariantV2b1 is the VerusHash 2.1 engine with the 2b finalization.
	VariantV2b1
	// VariantV2b2 is the VerusHash 2.2 engine with the 2b finalization.
	// Dispatch applies PBaaS canonicalization before it.
	VariantV2b2
)

// Variants lists every variant in release order.
var Variants = []Variant{VariantV1, VariantV2, VariantV2b, VariantV2b1, VariantV2b2}

var variantNames = [...]string{
	VariantV1:   "v1",
	VariantV2:   "v2",
	VariantV2b:  "v2b",
	VariantV2b1: "v2b1",
	VariantV2b2: "v2b2",
}

func (v Variant) String() string {
	if int(v) < len(variantNames) {
		return variantNames[v]
	}
	return fmt.Sprintf("variant(%d)", uint8(v))
}

// ParseVariant converts a variant name such as "v2b2" to a Variant.
func ParseVariant(s string) (Variant, error) {
	for i, name := range variantNames {
		if name == s {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("unknown hash variant: %q", s)
}
