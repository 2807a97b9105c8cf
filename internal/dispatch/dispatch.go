// Package dispatch implements the optimize() state machine: container
// decode, kernel chain execution, re-encode with a never-grow policy,
// and Arena teardown. It is the single entry point every host surface
// (WASM export, CLI, facade) calls into.
package dispatch

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pixiejuice/engine/internal/arena"
	"github.com/pixiejuice/engine/internal/compress"
	"github.com/pixiejuice/engine/internal/diag"
)

// Kind tags input containers, per spec.md §6.
type Kind byte

const (
	KindPNG  Kind = 0x01
	KindJPEG Kind = 0x02
	KindWebP Kind = 0x03
	KindGIF  Kind = 0x04
	KindOBJ  Kind = 0x10
	KindPLY  Kind = 0x11
	KindSTL  Kind = 0x12
	KindGLTF Kind = 0x13
	// KindVideo is reserved per SPEC_FULL.md's video capability-flag
	// seam: always UnsupportedFormat in this version regardless of
	// Options.EnableVideo.
	KindVideo Kind = 0x20
)

// ErrorKind classifies every failure dispatch can report, matching
// spec.md §7's fixed set.
type ErrorKind int

const (
	KindOK ErrorKind = iota
	KindInvalidArgument
	KindUnsupportedFormat
	KindMalformed
	KindOutOfMemory
	KindKernelFailed
	KindCancelled
)

var (
	ErrInvalidArgument   = errors.New("dispatch: invalid argument")
	ErrUnsupportedFormat = errors.New("dispatch: unsupported format")
	ErrMalformed         = errors.New("dispatch: malformed container")
	ErrOutOfMemory       = errors.New("dispatch: out of memory")
	ErrKernelFailed      = errors.New("dispatch: kernel failed")
	ErrCancelled         = errors.New("dispatch: cancelled")
)

func kindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrUnsupportedFormat):
		return KindUnsupportedFormat
	case errors.Is(err, ErrMalformed):
		return KindMalformed
	case errors.Is(err, ErrOutOfMemory):
		return KindOutOfMemory
	case errors.Is(err, ErrCancelled):
		return KindCancelled
	default:
		return KindKernelFailed
	}
}

// State names the dispatch state machine's nodes, per spec.md §4.7.
type State string

const (
	StateInit     State = "INIT"
	StateDecoded  State = "DECODED"
	StateKernel   State = "KERNEL"
	StateEncoded  State = "ENCODED"
	StateRejected State = "REJECTED"
	StateReleased State = "RELEASED"
)

// ImageOptions configures the ImageKernels operator chain.
type ImageOptions struct {
	MaxColors       int // palette size for quantization; 0 disables quantization
	UseMedianCut    bool
	Dither          bool
	BlurSigma       float64 // 0 disables blur
	UnsharpAmount   float32 // 0 disables unsharp
	UnsharpRadius   int
	UnsharpThresh   int32
	JPEGQuality     int // re-encode quality when input was JPEG, 1-100
}

// MeshOptions configures the MeshKernels operator chain.
type MeshOptions struct {
	TargetRatio    float32 // QEM decimation target; 0 disables decimation
	WeldTolerance  float32 // 0 disables welding
	VertexCacheOpt bool
	CacheSize      int
}

// Options is the full per-call configuration record, spec.md §6's
// "options record" plus this expansion's image/mesh sub-records.
type Options struct {
	Image MeshOrImageImage
	Mesh  MeshOrImageMesh

	// TargetReduction, when non-nil, enables quality negotiation over
	// [QualityMin, QualityMax]: a secant-step search (a fixed first
	// step, then interpolation between the last two passes) that stops
	// within ±5% of the target or after 4 passes and keeps the closest
	// attempt. It does not bisect the quality range.
	TargetReduction *float64
	QualityMin      int
	QualityMax      int

	AllowGrow   bool // opts out of the never-grow policy
	EnableVideo bool // capability seam; has no effect in this version
	Compress    bool // run Compress over the final encoded buffer

	ShouldCancel func() bool
}

// MeshOrImageImage and MeshOrImageMesh exist only so Options can embed
// named sub-records without an import cycle between dispatch and the
// kernel packages' option shapes; they are plain aliases.
type MeshOrImageImage = ImageOptions
type MeshOrImageMesh = MeshOptions

// Result is the host-visible outcome of one optimize() call, spec.md
// §6's "result record".
type Result struct {
	Output     []byte
	InputSize  int
	OutputSize int
	Duration   time.Duration
	State      State
	ErrorKind  ErrorKind
	ErrorMsg   string
	Method     compress.Method
}

// Engine owns one Arena and executes optimize() calls against it. An
// Engine MUST NOT be re-entered during a call, per spec.md §5; running
// is an atomic reentrancy guard rather than a mutex since the engine
// is declared single-threaded, not lock-protected.
type Engine struct {
	id      uint64
	a       *arena.Arena
	running int32
}

var engineIDs int64

// NewEngine allocates a new Engine with a private Arena of the given
// capacity.
func NewEngine(arenaCapacity int) *Engine {
	return &Engine{id: uint64(atomic.AddInt64(&engineIDs, 1)), a: arena.New(arenaCapacity)}
}

// Arena exposes the engine's Arena for host introspection (e.g.
// wasm_get_memory_usage).
func (e *Engine) Arena() *arena.Arena { return e.a }

func (e *Engine) transition(from, to State) {
	diag.StageTransition(e.id, string(from), string(to))
}

// Optimize runs one full INIT→DECODED→KERNEL→(ENCODED|REJECTED)→RELEASED
// pass over input, tagged by kind, per spec.md §4.7.
func (e *Engine) Optimize(kind Kind, input []byte, opts Options) *Result {
	start := timeNow()
	result := &Result{InputSize: len(input), State: StateInit}

	if !atomic.CompareAndSwapInt32(&e.running, 0, 1) {
		return e.fail(result, ErrInvalidArgument, "engine re-entered")
	}
	defer atomic.StoreInt32(&e.running, 0)
	defer func() { e.a.Reset() }()

	if e.a.Used() != 0 {
		e.a.Reset()
	}
	e.transition(StateInit, StateDecoded)

	if kind == KindVideo {
		return e.fail(result, ErrUnsupportedFormat, "video pipeline disabled")
	}

	switch {
	case isImageKind(kind):
		return e.runImagePipeline(kind, input, opts, result, start)
	case isMeshKind(kind):
		return e.runMeshPipeline(kind, input, opts, result, start)
	default:
		return e.fail(result, ErrUnsupportedFormat, fmt.Sprintf("unknown kind tag 0x%02x", kind))
	}
}

func isImageKind(k Kind) bool {
	switch k {
	case KindPNG, KindJPEG, KindWebP, KindGIF:
		return true
	}
	return false
}

func isMeshKind(k Kind) bool {
	switch k {
	case KindOBJ, KindPLY, KindSTL, KindGLTF:
		return true
	}
	return false
}

func (e *Engine) fail(result *Result, err error, msg string) *Result {
	result.State = StateRejected
	result.ErrorKind = kindOf(err)
	result.ErrorMsg = msg
	e.transition(StateKernel, StateRejected)
	return result
}

// timeNow is a thin indirection so tests exercising Duration don't
// depend on wall-clock jitter; production builds always use the real
// clock.
func timeNow() time.Time { return time.Now() }

// finishResult applies the optional post-encode compression pass and
// the never-grow policy, then stamps Duration/State and returns
// result. input is the original call's bytes, re-emitted verbatim
// when the policy rejects a kernel's output.
func (e *Engine) finishResult(result *Result, output []byte, input []byte, opts Options, start time.Time) *Result {
	method := compress.MethodNone
	if opts.Compress {
		output, method = compress.Compress(output)
	}

	if !opts.AllowGrow && result.InputSize > 0 && len(output) >= result.InputSize {
		diag.OutputGrew(e.id, result.InputSize, len(output))
		output = input
		method = compress.MethodNone
	}

	result.Output = output
	result.OutputSize = len(output)
	result.Method = method
	result.Duration = time.Since(start)
	result.State = StateReleased
	e.transition(StateEncoded, StateReleased)
	return result
}
