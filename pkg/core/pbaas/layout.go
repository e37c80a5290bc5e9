// Package pbaas detects, authenticates and canonicalizes merged-mining
// (PBaaS) metadata carried in a serialized block header and solution.
package pbaas

import (
	"encoding/binary"
	"errors"
)

// Block header layout. The solution follows the header behind a 3-byte
// compact-size length prefix.
const (
	VersionOffset          = 0
	PrevBlockOffset        = 4
	MerkleRootOffset       = 36
	FinalSaplingRootOffset = 68
	TimeOffset             = 100
	BitsOffset             = 104
	NonceOffset            = 108

	HeaderSize         = 140
	SolutionSizePrefix = 3
	SolutionOffset     = HeaderSize + SolutionSizePrefix
)

// Solution layout, relative to SolutionOffset.
const (
	SolutionVersionOffset = 0
	DescriptorBitsOffset  = 4
	NumPBaaSHeadersOffset = 5
	ExtraSpaceOffset      = 6
	PrevMMRRootOffset     = 8
	BlockMMRRootOffset    = 40

	// SolutionHeaderSize covers version, descriptor bits, header count,
	// extra space and both MMR roots. It does not depend on the number of
	// PBaaS headers.
	SolutionHeaderSize  = 4 + 1 + 1 + 2 + 32 + 32
	ChainIDSize         = 20
	PreHeaderHashSize   = 32
	ChainDescriptorSize = ChainIDSize + PreHeaderHashSize
)

// MinPBaaSSolutionVersion is the first solution version that carries PBaaS fields.
const MinPBaaSSolutionVersion = 7

var (
	ErrShortHeader   = errors.New("buffer is shorter than the block header")
	ErrShortSolution = errors.New("buffer is too short for the solution field")
	ErrNoDescriptor  = errors.New("solution declares no PBaaS chain descriptor")
)

// span is an absolute [off, off+size) range inside the buffer.
type span struct {
	off, size int
}

func (s span) end() int { return s.off + s.size }

func solutionSpan(off, size int) span { return span{off: SolutionOffset + off, size: size} }

var (
	versionField          = span{VersionOffset, 4}
	prevBlockField        = span{PrevBlockOffset, 32}
	merkleRootField       = span{MerkleRootOffset, 32}
	finalSaplingRootField = span{FinalSaplingRootOffset, 32}
	timeField             = span{TimeOffset, 4}
	bitsField             = span{BitsOffset, 4}
	nonceField            = span{NonceOffset, 32}

	solutionVersionField = solutionSpan(SolutionVersionOffset, 4)
	descriptorBitsField  = solutionSpan(DescriptorBitsOffset, 1)
	numPBaaSHeadersField = solutionSpan(NumPBaaSHeadersOffset, 1)
	extraSpaceField      = solutionSpan(ExtraSpaceOffset, 2)
	prevMMRRootField     = solutionSpan(PrevMMRRootOffset, 32)
	blockMMRRootField    = solutionSpan(BlockMMRRootOffset, 32)

	// hashPrevBlock, hashMerkleRoot and hashFinalSaplingRoot are contiguous.
	headerRootsField = span{PrevBlockOffset, 96}
	// hashPrevMMRRoot and hashBlockMMRRoot are contiguous.
	mmrRootsField = solutionSpan(PrevMMRRootOffset, 64)
)

func descriptorSpan(index int) span {
	return solutionSpan(SolutionHeaderSize+index*ChainDescriptorSize, ChainDescriptorSize)
}

// View is a bounds-checked, typed view over a serialized header+solution.
// Slices returned by its accessors alias the underlying buffer.
type View struct {
	buf []byte
}

// NewView wraps buf without copying it.
func NewView(buf []byte) View {
	return View{buf: buf}
}

// Len returns the length of the underlying buffer.
func (v View) Len() int {
	return len(v.buf)
}

// Bytes returns the underlying buffer.
func (v View) Bytes() []byte {
	return v.buf
}

func (v View) field(s span) ([]byte, error) {
	if s.end() > len(v.buf) {
		if s.off < SolutionOffset {
			return nil, ErrShortHeader
		}
		return nil, ErrShortSolution
	}
	return v.buf[s.off:s.end():s.end()], nil
}

// Version returns the block header version.
func (v View) Version() (uint32, error) {
	b, err := v.field(versionField)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (v View) PrevBlock() ([]byte, error)        { return v.field(prevBlockField) }
func (v View) MerkleRoot() ([]byte, error)       { return v.field(merkleRootField) }
func (v View) FinalSaplingRoot() ([]byte, error) { return v.field(finalSaplingRootField) }
func (v View) Nonce() ([]byte, error)            { return v.field(nonceField) }
func (v View) PrevMMRRoot() ([]byte, error)      { return v.field(prevMMRRootField) }
func (v View) BlockMMRRoot() ([]byte, error)     { return v.field(blockMMRRootField) }

// Time returns the header timestamp.
func (v View) Time() (uint32, error) {
	b, err := v.field(timeField)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Bits returns the compact difficulty field.
func (v View) Bits() (uint32, error) {
	b, err := v.field(bitsField)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// SolutionVersion returns the little endian version at the start of the solution.
func (v View) SolutionVersion() (uint32, error) {
	b, err := v.field(solutionVersionField)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// DescriptorBits is carried for completeness; canonicalization ignores it.
func (v View) DescriptorBits() (uint8, error) {
	b, err := v.field(descriptorBitsField)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// NumPBaaSHeaders returns the number of chain descriptors the solution declares.
func (v View) NumPBaaSHeaders() (uint8, error) {
	b, err := v.field(numPBaaSHeadersField)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ExtraSpace is carried for completeness; canonicalization ignores it.
func (v View) ExtraSpace() (uint16, error) {
	b, err := v.field(extraSpaceField)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ChainID returns the hash160 chain identifier of the descriptor at index.
func (v View) ChainID(index int) ([]byte, error) {
	d, err := v.descriptor(index)
	if err != nil {
		return nil, err
	}
	return d[:ChainIDSize], nil
}

// PreHeaderHash returns the commitment of the descriptor at index.
func (v View) PreHeaderHash(index int) ([]byte, error) {
	d, err := v.descriptor(index)
	if err != nil {
		return nil, err
	}
	return d[ChainIDSize:], nil
}

func (v View) descriptor(index int) ([]byte, error) {
	n, err := v.NumPBaaSHeaders()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= int(n) {
		return nil, ErrNoDescriptor
	}
	return v.field(descriptorSpan(index))
}

// IsPBaaS reports whether the solution version carries PBaaS fields.
// Buffers too short to hold the solution version are not PBaaS.
func (v View) IsPBaaS() bool {
	ver, err := v.SolutionVersion()
	return err == nil && ver >= MinPBaaSSolutionVersion
}
