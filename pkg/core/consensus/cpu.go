package consensus

import (
	"errors"

	"github.com/klauspost/cpuid/v2"
)

// ErrCPUUnsupported is returned by the native factory on CPUs without the
// AES and carry-less multiply instructions the VerusHash cores require.
var ErrCPUUnsupported = errors.New("cpu lacks AES-NI or PCLMULQDQ")

// CPUSupported reports whether the native VerusHash engines can run here.
func CPUSupported() bool {
	return cpuid.CPU.Supports(cpuid.AESNI, cpuid.CLMUL)
}

// CPUBrand names the processor, for status output.
func CPUBrand() string {
	return cpuid.CPU.BrandName
}
