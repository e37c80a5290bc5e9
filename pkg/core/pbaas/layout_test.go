package pbaas

import (
	"bytes"
	"errors"
	"testing"
)

func TestLayoutConstants(t *testing.T) {
	if SolutionOffset != 143 {
		t.Errorf("SolutionOffset = %d, want 143", SolutionOffset)
	}
	if SolutionHeaderSize != 72 {
		t.Errorf("SolutionHeaderSize = %d, want 72", SolutionHeaderSize)
	}
	if PreHeaderSize != 196 {
		t.Errorf("PreHeaderSize = %d, want 196", PreHeaderSize)
	}
	if nonceField.end() != HeaderSize {
		t.Errorf("nonce ends at %d, want %d", nonceField.end(), HeaderSize)
	}
	if blockMMRRootField.end() != SolutionOffset+SolutionHeaderSize {
		t.Errorf("block MMR root ends at %d, want %d", blockMMRRootField.end(), SolutionOffset+SolutionHeaderSize)
	}
	if d := descriptorSpan(0); d.off+ChainIDSize != 143+92 {
		t.Errorf("first commitment starts at %d, want %d", d.off+ChainIDSize, 143+92)
	}
}

func TestViewAccessors(t *testing.T) {
	buf := buildBlock(t, 7, 2)
	v := NewView(buf)

	ver, err := v.SolutionVersion()
	if err != nil || ver != 7 {
		t.Fatalf("SolutionVersion() = %d, %v", ver, err)
	}
	n, err := v.NumPBaaSHeaders()
	if err != nil || n != 2 {
		t.Fatalf("NumPBaaSHeaders() = %d, %v", n, err)
	}

	prev, _ := v.PrevBlock()
	if !bytes.Equal(prev, buf[4:36]) {
		t.Error("PrevBlock does not alias bytes 4..36")
	}
	nonce, _ := v.Nonce()
	if !bytes.Equal(nonce, buf[108:140]) {
		t.Error("Nonce does not alias bytes 108..140")
	}
	prevMMR, _ := v.PrevMMRRoot()
	if !bytes.Equal(prevMMR, buf[151:183]) {
		t.Error("PrevMMRRoot does not alias solution bytes 8..40")
	}

	id, err := v.ChainID(1)
	if err != nil {
		t.Fatalf("ChainID(1): %v", err)
	}
	off := SolutionOffset + SolutionHeaderSize + ChainDescriptorSize
	if !bytes.Equal(id, buf[off:off+ChainIDSize]) {
		t.Error("ChainID(1) at wrong offset")
	}
	commitment, err := v.PreHeaderHash(0)
	if err != nil {
		t.Fatalf("PreHeaderHash(0): %v", err)
	}
	off = SolutionOffset + SolutionHeaderSize + ChainIDSize
	if !bytes.Equal(commitment, buf[off:off+PreHeaderHashSize]) {
		t.Error("PreHeaderHash(0) at wrong offset")
	}

	if _, err := v.ChainID(2); !errors.Is(err, ErrNoDescriptor) {
		t.Errorf("ChainID(2) error = %v, want ErrNoDescriptor", err)
	}
}

func TestViewBounds(t *testing.T) {
	tests := []struct {
		name string
		size int
		want error
	}{
		{name: "empty", size: 0, want: ErrShortHeader},
		{name: "header only", size: HeaderSize, want: ErrShortSolution},
		{name: "three bytes of version", size: SolutionOffset + 3, want: ErrShortSolution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewView(make([]byte, tt.size))
			_, err := v.SolutionVersion()
			if tt.size < HeaderSize {
				_, err = v.Nonce()
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if v.IsPBaaS() {
				t.Error("short buffer must not be PBaaS")
			}
		})
	}
}

func TestViewDescriptorPastEnd(t *testing.T) {
	// Declares one header but carries no descriptor bytes.
	buf := buildBlock(t, 7, 0)
	buf[SolutionOffset+NumPBaaSHeadersOffset] = 1
	if _, err := NewView(buf).PreHeaderHash(0); !errors.Is(err, ErrShortSolution) {
		t.Errorf("error = %v, want ErrShortSolution", err)
	}
}

func TestAccessorSlicesCannotGrow(t *testing.T) {
	buf := buildBlock(t, 7, 1)
	nonce, _ := NewView(buf).Nonce()
	if cap(nonce) != len(nonce) {
		t.Errorf("cap = %d, want %d", cap(nonce), len(nonce))
	}
}
