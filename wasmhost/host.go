//go:build wasip1

// Package wasmhost (this file) wires the ABI records in abi.go to
// actual WASM linear-memory exports using Go 1.24's //go:wasmexport
// directive. Go's wasip1 port keeps the Go heap inside the module's
// linear memory, so a Go byte slice's backing-array address doubles
// as the pointer a host embedder passes across the ABI boundary — as
// long as something on the Go side keeps that slice reachable, which
// is exactly what hostpool.Allocator's live-allocation map is for.
package wasmhost

import (
	"sync"
	"unsafe"

	"github.com/pixiejuice/engine/internal/dispatch"
	"github.com/pixiejuice/engine/internal/hostpool"
)

// engineArenaCapacity sizes the single process-wide Engine's Arena;
// large enough for the mid-resolution images and meshes this host
// expects, matching the scratch needs of a single optimize() call.
const engineArenaCapacity = 64 << 20

var (
	alloc  = hostpool.NewAllocator()
	engine = dispatch.NewEngine(engineArenaCapacity)

	ptrMu      sync.Mutex
	ptrHandles = make(map[uint32]uint64)
)

func ptrOf(b []byte) uint32 {
	if len(b) == 0 {
		return 0
	}
	return uint32(uintptr(unsafe.Pointer(&b[0])))
}

func ptrToSlice(ptr, length uint32) []byte {
	if ptr == 0 || length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), length)
}

func trackPtr(ptr uint32, handle uint64) {
	ptrMu.Lock()
	ptrHandles[ptr] = handle
	ptrMu.Unlock()
}

func releasePtr(ptr uint32) (uint64, bool) {
	ptrMu.Lock()
	handle, ok := ptrHandles[ptr]
	if ok {
		delete(ptrHandles, ptr)
	}
	ptrMu.Unlock()
	return handle, ok
}

func mallocTracked(size int) []byte {
	handle := alloc.Malloc(size)
	b := alloc.Bytes(handle)
	trackPtr(ptrOf(b), handle)
	return b
}

//go:wasmexport wasm_malloc
func wasmMalloc(size uint32) uint32 {
	b := mallocTracked(int(size))
	return ptrOf(b)
}

//go:wasmexport wasm_free
func wasmFree(ptr uint32) {
	handle, ok := releasePtr(ptr)
	if !ok {
		return
	}
	alloc.Free(handle)
}

//go:wasmexport wasm_get_memory_usage
func wasmGetMemoryUsage() uint64 {
	return hostpool.MemoryUsage()
}

//go:wasmexport optimize
func wasmOptimize(kind uint32, inPtr, inLen, optsPtr, optsLen uint32) uint32 {
	input := ptrToSlice(inPtr, inLen)
	k := dispatch.Kind(byte(kind))

	opts, err := DecodeOptions(k, ptrToSlice(optsPtr, optsLen))
	if err != nil {
		opts = dispatch.Options{}
	}

	result := engine.Optimize(k, input, opts)

	var outPtr uint32
	if len(result.Output) > 0 {
		out := mallocTracked(len(result.Output))
		copy(out, result.Output)
		outPtr = ptrOf(out)
	}

	record := EncodeResult(result, outPtr)
	recBuf := mallocTracked(len(record))
	copy(recBuf, record)
	return ptrOf(recBuf)
}
