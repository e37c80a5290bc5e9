//go:build !verushash

package consensus

import (
	"go.uber.org/zap"
)

// Native reports whether hashers are backed by the native VerusHash library.
const Native = false

// NewHasher returns the appropriate Hasher implementation based on build tags.
// Without the 'verushash' tag, this returns a Blake2bHasher (pure Go, for
// testing and prototyping).
func NewHasher(variant Variant) (Hasher, error) {
	zap.L().Warn("verushash build tag not found, using BLAKE2b stand-in hasher",
		zap.Stringer("variant", variant),
		zap.String("hint", "build with: go build -tags verushash"),
	)
	return NewBlake2bHasher(variant), nil
}
