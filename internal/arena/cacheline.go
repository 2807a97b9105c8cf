package arena

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// CacheLineSize is the cache-line size used to round Buffer growth
// requests (see internal/buffer). golang.org/x/sys/cpu sizes its
// CacheLinePad type to the platform's cache line; Pixie Juice reads that
// size once at init time the same way teacher's internal/dsp package
// probes CPU capability once via cpuid at init (internal/dsp/cpuid_amd64.go).
var CacheLineSize = detectCacheLineSize()

func detectCacheLineSize() int {
	if size := int(unsafe.Sizeof(cpu.CacheLinePad{})); size > 0 {
		return size
	}
	return 64
}
