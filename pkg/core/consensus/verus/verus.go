//go:build cgo && verushash

package verus

/*
#cgo CFLAGS: -I${SRCDIR}/../../../../third_party/verushash/include
#cgo LDFLAGS: -L${SRCDIR}/../../../../third_party/verushash/build -lverushash -lsodium -lstdc++ -lm
#include "verushash.h"

// verushash.h is the C shim in third_party/verushash/shim/verushash.cc:
// verushash_init calls CVerusHash::init and CVerusHashV2::init,
// verushash_v1 calls CVerusHash::Hash, and verushash_v2 runs
// CVerusHashV2(solution_version) Reset/Write then Finalize or Finalize2b.
*/
import "C"

import (
	"errors"
	"sync"
	"unsafe"
)

// SolutionVersion selects the VerusHash 2 engine generation.
type SolutionVersion C.int

const (
	SolutionV2   SolutionVersion = 1
	SolutionV2_1 SolutionVersion = 3
	SolutionV2_2 SolutionVersion = 4
)

var (
	initOnce sync.Once
	initErr  error
)

// Init prepares the library's read-only key tables. It is safe to call
// from multiple goroutines; only the first call does work.
func Init() error {
	initOnce.Do(func() {
		if C.verushash_init() != 0 {
			initErr = errors.New("verushash: library initialization failed")
		}
	})
	return initErr
}

func inputPtr(input []byte) (*C.uchar, C.size_t) {
	if len(input) == 0 {
		return nil, 0
	}
	return (*C.uchar)(unsafe.Pointer(&input[0])), C.size_t(len(input))
}

// SumV1 computes VerusHash 1.0 of input.
func SumV1(input []byte) [32]byte {
	var output [32]byte
	in, n := inputPtr(input)
	C.verushash_v1((*C.uchar)(unsafe.Pointer(&output[0])), in, n)
	return output
}

// SumV2 computes VerusHash 2 of input with the given engine generation,
// using the 2b finalization when finalize2b is set.
func SumV2(input []byte, version SolutionVersion, finalize2b bool) [32]byte {
	var output [32]byte
	var f C.int
	if finalize2b {
		f = 1
	}
	in, n := inputPtr(input)
	C.verushash_v2((*C.uchar)(unsafe.Pointer(&output[0])), in, n, C.int(version), f)
	return output
}
