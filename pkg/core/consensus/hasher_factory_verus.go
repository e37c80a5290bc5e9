//go:build verushash

package consensus

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/chronodrachma/verushash/pkg/core/consensus/verus"
)

// Native reports whether hashers are backed by the native VerusHash library.
const Native = true

// NewHasher returns the appropriate Hasher implementation based on build tags.
// With the 'verushash' tag, this returns a verus.Hasher.
func NewHasher(variant Variant) (Hasher, error) {
	if !CPUSupported() {
		return nil, fmt.Errorf("native %s engine on %s: %w", variant, CPUBrand(), ErrCPUUnsupported)
	}
	zap.L().Debug("initializing native VerusHash engine", zap.Stringer("variant", variant))

	switch variant {
	case VariantV1:
		return verus.NewV1(), nil
	case VariantV2:
		return verus.NewV2(verus.SolutionV2, false), nil
	case VariantV2b:
		return verus.NewV2(verus.SolutionV2, true), nil
	case VariantV2b1:
		return verus.NewV2(verus.SolutionV2_1, true), nil
	case VariantV2b2:
		return verus.NewV2(verus.SolutionV2_2, true), nil
	}
	return nil, fmt.Errorf("no native engine for %s", variant)
}
