// Package verushash dispatches header+solution buffers to the VerusHash
// engines, applying merged-mining canonicalization for the V2b2 variant.
package verushash

import (
	"errors"
	"fmt"

	"github.com/chronodrachma/verushash/pkg/core/consensus"
	"github.com/chronodrachma/verushash/pkg/core/pbaas"
	"github.com/chronodrachma/verushash/pkg/core/types"
)

var (
	// ErrEmptyInput is returned when no bytes are supplied.
	ErrEmptyInput = errors.New("input must not be empty")
	// ErrShortHeader is returned by V2b2 when the input cannot hold a block header.
	ErrShortHeader = fmt.Errorf("input is shorter than %d bytes: %w", pbaas.HeaderSize, pbaas.ErrShortHeader)
	// ErrMissingHasher is returned when an Engines handle lacks a variant.
	ErrMissingHasher = errors.New("no hasher configured for variant")
)

// Engines is a caller-owned handle over one hasher per variant. It holds no
// mutable state of its own, so one handle may serve concurrent calls as long
// as each call hashes its own buffer.
type Engines struct {
	hashers map[consensus.Variant]consensus.Hasher
}

// New creates an Engines handle backed by consensus.NewHasher.
func New() (*Engines, error) {
	hashers := make(map[consensus.Variant]consensus.Hasher, len(consensus.Variants))
	for _, v := range consensus.Variants {
		h, err := consensus.NewHasher(v)
		if err != nil {
			for _, opened := range hashers {
				opened.Close()
			}
			return nil, fmt.Errorf("hasher %s: %w", v, err)
		}
		hashers[v] = h
	}
	return &Engines{hashers: hashers}, nil
}

// NewWithHashers creates an Engines handle over caller-supplied hashers.
// Variants missing from the map return ErrMissingHasher when used.
func NewWithHashers(hashers map[consensus.Variant]consensus.Hasher) *Engines {
	m := make(map[consensus.Variant]consensus.Hasher, len(hashers))
	for v, h := range hashers {
		m[v] = h
	}
	return &Engines{hashers: m}
}

// Close releases every hasher.
func (e *Engines) Close() {
	for _, h := range e.hashers {
		h.Close()
	}
}

func (e *Engines) sum(v consensus.Variant, data []byte) (types.Hash, error) {
	h, ok := e.hashers[v]
	if !ok {
		return types.Hash{}, fmt.Errorf("%w: %s", ErrMissingHasher, v)
	}
	return h.Hash(data)
}

func (e *Engines) plain(v consensus.Variant, data []byte) (types.Hash, error) {
	if len(data) == 0 {
		return types.Hash{}, ErrEmptyInput
	}
	return e.sum(v, data)
}

// Hash computes VerusHash 1.0.
func (e *Engines) Hash(data []byte) (types.Hash, error) {
	return e.plain(consensus.VariantV1, data)
}

// HashV2 computes VerusHash 2.0.
func (e *Engines) HashV2(data []byte) (types.Hash, error) {
	return e.plain(consensus.VariantV2, data)
}

// HashV2b computes VerusHash 2.0 with the 2b finalization.
func (e *Engines) HashV2b(data []byte) (types.Hash, error) {
	return e.plain(consensus.VariantV2b, data)
}

// HashV2b1 computes VerusHash 2.1.
func (e *Engines) HashV2b1(data []byte) (types.Hash, error) {
	return e.plain(consensus.VariantV2b1, data)
}

// HashV2b2 computes VerusHash 2.2 after merged-mining canonicalization.
// data is modified in place when its PBaaS commitment verifies. When a
// commitment is declared but does not verify, the sentinel digest is
// returned and the engine is not invoked.
func (e *Engines) HashV2b2(data []byte) (types.Hash, error) {
	digest, _, err := e.HashWithDecision(data)
	return digest, err
}

// HashWithDecision is HashV2b2 that also reports the canonicalization decision.
func (e *Engines) HashWithDecision(data []byte) (types.Hash, pbaas.Decision, error) {
	if len(data) == 0 {
		return types.Hash{}, pbaas.NotApplicable, ErrEmptyInput
	}
	if len(data) < pbaas.HeaderSize {
		return types.Hash{}, pbaas.NotApplicable, ErrShortHeader
	}

	decision := pbaas.Prepare(data)
	if decision == pbaas.Rejected {
		return types.SentinelHash, decision, nil
	}
	digest, err := e.sum(consensus.VariantV2b2, data)
	return digest, decision, err
}

// HashVariant dispatches by variant.
func (e *Engines) HashVariant(v consensus.Variant, data []byte) (types.Hash, error) {
	switch v {
	case consensus.VariantV1:
		return e.Hash(data)
	case consensus.VariantV2:
		return e.HashV2(data)
	case consensus.VariantV2b:
		return e.HashV2b(data)
	case consensus.VariantV2b1:
		return e.HashV2b1(data)
	case consensus.VariantV2b2:
		return e.HashV2b2(data)
	}
	return types.Hash{}, fmt.Errorf("%w: %s", ErrMissingHasher, v)
}
