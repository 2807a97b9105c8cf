// Package wasmhost implements the WASM ABI surface spec.md §6 defines:
// wasm_malloc/wasm_free/wasm_get_memory_usage backed by
// internal/hostpool, and optimize backed by internal/dispatch. The
// wire records below are plain encoding/binary layouts, the same style
// teacher's internal/container/riff.go and parser.go use for their own
// RIFF chunk framing, so they are split out of the build-tagged export
// file and can be exercised by ordinary tests on any platform.
package wasmhost

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/pixiejuice/engine/internal/dispatch"
)

// ErrShortBuffer is returned by the decode functions when the supplied
// byte slice is too small to hold its fixed-size fields.
var ErrShortBuffer = errors.New("wasmhost: short buffer")

// Options-record presence bits, one per optional field in spec.md §6's
// options table.
const (
	optQuality = 1 << iota
	optCompression
	optLossless
	optPreserveMetadata
	optFastMode
	optReduceColors
	optTargetReduction
	optMaxDimensions
	optMeshTolerance
	optMeshReduce
	optMeshSimplify
	optMeshDeduplicate
)

// wireOptionsSize is the fixed-layout byte count of an encoded options
// record: a u32 presence bitmask followed by every field at a constant
// offset regardless of whether its presence bit is set.
const wireOptionsSize = 4 + 1 + 1 + 2 + 4 + 4 + 4 + 4 + 4

// EncodeOptions serializes opts into spec.md §6's options record wire
// format, for host-side callers building a request buffer.
func EncodeOptions(opts dispatch.Options, flags uint32) []byte {
	buf := make([]byte, wireOptionsSize)
	binary.LittleEndian.PutUint32(buf[0:4], flags)
	buf[4] = byte(opts.Image.JPEGQuality)
	buf[5] = 0 // compression level: reserved, Compress() self-selects a method
	// buf[6:8] padding
	putF32(buf[8:12], float32(valueOrZero(opts.TargetReduction)))
	binary.LittleEndian.PutUint32(buf[12:16], 0) // max_width, unused by this engine's kernels
	binary.LittleEndian.PutUint32(buf[16:20], 0) // max_height, ditto
	putF32(buf[20:24], opts.Mesh.WeldTolerance)
	putF32(buf[24:28], opts.Mesh.TargetRatio)
	return buf
}

func valueOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func getF32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// DecodeOptions parses the options record wire format, applying only
// the fields whose presence bit is set, into a dispatch.Options.
func DecodeOptions(kind dispatch.Kind, data []byte) (dispatch.Options, error) {
	var opts dispatch.Options
	if len(data) < wireOptionsSize {
		return opts, ErrShortBuffer
	}
	flags := binary.LittleEndian.Uint32(data[0:4])
	quality := int(data[4])
	targetReduction := getF32(data[8:12])
	meshTolerance := getF32(data[20:24])
	meshReduce := getF32(data[24:28])

	if flags&optQuality != 0 {
		opts.Image.JPEGQuality = quality
	}
	if flags&optReduceColors != 0 {
		opts.Image.MaxColors = 256
		opts.Image.Dither = true
	}
	if flags&optTargetReduction != 0 {
		tr := float64(targetReduction)
		opts.TargetReduction = &tr
		opts.QualityMin, opts.QualityMax = 5, 95
	}
	if flags&optFastMode != 0 {
		opts.TargetReduction = nil
		opts.Image.JPEGQuality = 50
	}
	if flags&optMeshDeduplicate != 0 {
		if meshTolerance <= 0 {
			meshTolerance = 1e-4
		}
		opts.Mesh.WeldTolerance = meshTolerance
	}
	if flags&optMeshSimplify != 0 {
		opts.Mesh.TargetRatio = 0.5
	}
	if flags&optMeshReduce != 0 {
		opts.Mesh.TargetRatio = meshReduce
	}
	return opts, nil
}

// ResultRecordSize is the fixed byte count of spec.md §6's result
// record: status, out_ptr, out_len, original_size, optimized_size,
// duration_ms (all u32) followed by a 256-byte field holding a
// NUL-terminated message of at most 255 bytes.
const resultMessageSize = 256
const ResultRecordSize = 4*6 + resultMessageSize

// EncodeResult serializes a dispatch.Result plus the host pointer/
// length of its already-copied-into-linear-memory output bytes into
// the result record wire format.
func EncodeResult(r *dispatch.Result, outPtr uint32) []byte {
	buf := make([]byte, ResultRecordSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r.ErrorKind))
	binary.LittleEndian.PutUint32(buf[4:8], outPtr)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(r.OutputSize))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(r.InputSize))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(r.OutputSize))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(r.Duration.Milliseconds()))
	msg := buf[24 : 24+resultMessageSize]
	n := copy(msg[:len(msg)-1], r.ErrorMsg)
	msg[n] = 0
	return buf
}

// DecodeResult is the host-side inverse of EncodeResult, for tests and
// host-side callers reading a result record back.
func DecodeResult(buf []byte) (status, outPtr, outLen, origSize, optSize, durationMs uint32, msg string, err error) {
	if len(buf) < ResultRecordSize {
		err = ErrShortBuffer
		return
	}
	status = binary.LittleEndian.Uint32(buf[0:4])
	outPtr = binary.LittleEndian.Uint32(buf[4:8])
	outLen = binary.LittleEndian.Uint32(buf[8:12])
	origSize = binary.LittleEndian.Uint32(buf[12:16])
	optSize = binary.LittleEndian.Uint32(buf[16:20])
	durationMs = binary.LittleEndian.Uint32(buf[20:24])
	raw := buf[24 : 24+resultMessageSize]
	end := 0
	for end < len(raw) && raw[end] != 0 {
		end++
	}
	msg = string(raw[:end])
	return
}
