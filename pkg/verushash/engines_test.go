package verushash

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/chronodrachma/verushash/pkg/core/consensus"
	"github.com/chronodrachma/verushash/pkg/core/pbaas"
	"github.com/chronodrachma/verushash/pkg/core/types"
)

// countingHasher wraps a hasher and counts calls.
type countingHasher struct {
	inner consensus.Hasher
	calls atomic.Int64
	last  []byte
	mu    sync.Mutex
}

func (h *countingHasher) Hash(data []byte) (types.Hash, error) {
	h.calls.Add(1)
	h.mu.Lock()
	h.last = bytes.Clone(data)
	h.mu.Unlock()
	return h.inner.Hash(data)
}

func (h *countingHasher) Close() {}

func newTestEngines(t *testing.T) (*Engines, map[consensus.Variant]*countingHasher) {
	t.Helper()
	counters := make(map[consensus.Variant]*countingHasher)
	hashers := make(map[consensus.Variant]consensus.Hasher)
	for _, v := range consensus.Variants {
		c := &countingHasher{inner: consensus.NewBlake2bHasher(v)}
		counters[v] = c
		hashers[v] = c
	}
	return NewWithHashers(hashers), counters
}

// block builds a 143-byte header prefix plus a solution header and
// numHeaders descriptors, with every byte non-zero.
func block(solutionVersion uint32, numHeaders uint8) []byte {
	size := pbaas.SolutionOffset + pbaas.SolutionHeaderSize + int(numHeaders)*pbaas.ChainDescriptorSize
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = byte(i*7%253) + 1
	}
	binary.LittleEndian.PutUint32(buf[pbaas.SolutionOffset:], solutionVersion)
	buf[pbaas.SolutionOffset+pbaas.NumPBaaSHeadersOffset] = numHeaders
	return buf
}

func sealed(t *testing.T) []byte {
	t.Helper()
	buf := block(7, 1)
	if err := pbaas.Seal(buf); err != nil {
		t.Fatalf("Seal: %v", err)
	}
	return buf
}

func TestHashV2b2Verified(t *testing.T) {
	e, counters := newTestEngines(t)
	buf := sealed(t)

	digest, decision, err := e.HashWithDecision(buf)
	if err != nil {
		t.Fatalf("HashWithDecision: %v", err)
	}
	if decision != pbaas.Verified {
		t.Fatalf("decision = %s, want %s", decision, pbaas.Verified)
	}
	if digest.IsSentinel() {
		t.Fatal("verified block produced the sentinel")
	}

	c := counters[consensus.VariantV2b2]
	if c.calls.Load() != 1 {
		t.Fatalf("engine calls = %d, want 1", c.calls.Load())
	}
	if !bytes.Equal(c.last, buf) {
		t.Error("engine did not hash the canonicalized caller buffer")
	}
	pre, _ := pbaas.AssemblePreHeader(buf)
	if !pre.IsZero() {
		t.Error("non-canonical fields were not cleared")
	}

	want, _ := consensus.NewBlake2bHasher(consensus.VariantV2b2).Hash(buf)
	if digest != want {
		t.Errorf("digest = %s, want %s", digest, want)
	}
}

func TestHashV2b2RejectedReturnsSentinel(t *testing.T) {
	e, counters := newTestEngines(t)
	buf := sealed(t)
	buf[pbaas.SolutionOffset+pbaas.SolutionHeaderSize+pbaas.ChainIDSize+5] ^= 0x10
	before := bytes.Clone(buf)

	digest, err := e.HashV2b2(buf)
	if err != nil {
		t.Fatalf("HashV2b2: %v", err)
	}
	if digest != types.SentinelHash {
		t.Fatalf("digest = %s, want sentinel", digest)
	}
	if n := counters[consensus.VariantV2b2].calls.Load(); n != 0 {
		t.Errorf("engine was called %d times for a rejected block", n)
	}
	if !bytes.Equal(buf, before) {
		t.Error("rejected buffer was modified")
	}
}

func TestHashV2b2LegacyMatchesEngine(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{name: "version 6", buf: block(6, 1)},
		{name: "version 7 without headers", buf: block(7, 0)},
		{name: "header only", buf: block(6, 0)[:pbaas.HeaderSize]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngines(t)
			before := bytes.Clone(tt.buf)

			digest, decision, err := e.HashWithDecision(tt.buf)
			if err != nil {
				t.Fatalf("HashWithDecision: %v", err)
			}
			if decision != pbaas.NotApplicable {
				t.Errorf("decision = %s, want %s", decision, pbaas.NotApplicable)
			}
			if !bytes.Equal(tt.buf, before) {
				t.Error("buffer was modified")
			}
			want, _ := consensus.NewBlake2bHasher(consensus.VariantV2b2).Hash(before)
			if digest != want {
				t.Errorf("digest = %s, want %s", digest, want)
			}
		})
	}
}

func TestHashV2b2Idempotent(t *testing.T) {
	e, _ := newTestEngines(t)
	buf := sealed(t)

	first, err := e.HashV2b2(buf)
	if err != nil {
		t.Fatalf("first HashV2b2: %v", err)
	}
	canonical := bytes.Clone(buf)

	second, decision, err := e.HashWithDecision(buf)
	if err != nil {
		t.Fatalf("second HashV2b2: %v", err)
	}
	if decision != pbaas.AlreadyCanonical {
		t.Errorf("decision = %s, want %s", decision, pbaas.AlreadyCanonical)
	}
	if first != second {
		t.Errorf("digests differ: %s vs %s", first, second)
	}
	if !bytes.Equal(buf, canonical) {
		t.Error("second call modified the buffer")
	}
}

func TestUsageErrors(t *testing.T) {
	e, counters := newTestEngines(t)

	for _, v := range consensus.Variants {
		if _, err := e.HashVariant(v, nil); !errors.Is(err, ErrEmptyInput) {
			t.Errorf("%s: error = %v, want ErrEmptyInput", v, err)
		}
	}
	if _, err := e.HashV2b2(make([]byte, pbaas.HeaderSize-1)); !errors.Is(err, ErrShortHeader) {
		t.Errorf("error = %v, want ErrShortHeader", err)
	}
	if !errors.Is(ErrShortHeader, pbaas.ErrShortHeader) {
		t.Error("ErrShortHeader should wrap pbaas.ErrShortHeader")
	}
	for v, c := range counters {
		if c.calls.Load() != 0 {
			t.Errorf("%s engine called on usage error", v)
		}
	}
}

func TestNonPBaaSVariantsDeterministic(t *testing.T) {
	e, _ := newTestEngines(t)
	buf := sealed(t)
	before := bytes.Clone(buf)

	calls := []func([]byte) (types.Hash, error){e.Hash, e.HashV2, e.HashV2b, e.HashV2b1}
	for i, fn := range calls {
		a, err := fn(buf)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		b, _ := fn(buf)
		if a != b {
			t.Errorf("call %d is not deterministic", i)
		}
	}
	if !bytes.Equal(buf, before) {
		t.Error("non-PBaaS variants must not modify the buffer")
	}
}

func TestMissingHasher(t *testing.T) {
	e := NewWithHashers(nil)
	if _, err := e.HashV2([]byte{1}); !errors.Is(err, ErrMissingHasher) {
		t.Errorf("error = %v, want ErrMissingHasher", err)
	}
	if _, err := e.HashVariant(consensus.Variant(42), []byte{1}); !errors.Is(err, ErrMissingHasher) {
		t.Errorf("error = %v, want ErrMissingHasher", err)
	}
}

func TestConcurrentIndependentBuffers(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	template := sealed(t)
	want, err := e.HashV2b2(bytes.Clone(template))
	if err != nil {
		t.Fatalf("HashV2b2: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got, err := e.HashV2b2(bytes.Clone(template))
				if err != nil || got != want {
					errs <- "concurrent digest mismatch"
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Fatal(msg)
	}
}
