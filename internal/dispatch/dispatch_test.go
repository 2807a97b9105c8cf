package dispatch

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixiejuice/engine/internal/meshio"
	"github.com/pixiejuice/engine/internal/meshkernels"
)

func randomPNG(t *testing.T, w, h int, seed int64) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{
				R: byte(rng.Intn(256)), G: byte(rng.Intn(256)), B: byte(rng.Intn(256)), A: 255,
			})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// TestOptimizeQuantizesAndStaysUnderBudget is scenario 1 from spec.md
// §8, scaled down to 64x64: an RGBA image quantized to 16 colors with
// dithering completes successfully and never grows past the input.
func TestOptimizeQuantizesAndStaysUnderBudget(t *testing.T) {
	input := randomPNG(t, 64, 64, 42)
	e := NewEngine(16 << 20)
	result := e.Optimize(KindPNG, input, Options{Image: ImageOptions{MaxColors: 16, Dither: true}})
	require.Equal(t, KindOK, result.ErrorKind)
	require.Equal(t, StateReleased, result.State)
	assert.LessOrEqual(t, result.OutputSize, result.InputSize)
}

// TestOptimizeNeverGrows is property 7 from spec.md §8: dispatch never
// emits an output larger than its input unless AllowGrow is set.
func TestOptimizeNeverGrows(t *testing.T) {
	input := randomPNG(t, 8, 8, 7)
	e := NewEngine(16 << 20)
	result := e.Optimize(KindPNG, input, Options{})
	require.Equal(t, KindOK, result.ErrorKind)
	assert.LessOrEqual(t, result.OutputSize, result.InputSize)
}

// TestOptimizeResetsArenaBetweenCalls is property 8 from spec.md §8:
// the Arena is back to zero usage after every call, successful or not.
func TestOptimizeResetsArenaBetweenCalls(t *testing.T) {
	e := NewEngine(1 << 20)
	input := randomPNG(t, 8, 8, 3)
	_ = e.Optimize(KindPNG, input, Options{})
	assert.Zero(t, e.Arena().Used())

	_ = e.Optimize(KindPNG, []byte("not a png"), Options{})
	assert.Zero(t, e.Arena().Used())
}

func TestOptimizeRejectsUnknownKind(t *testing.T) {
	e := NewEngine(1 << 20)
	result := e.Optimize(Kind(0xFF), []byte("x"), Options{})
	assert.Equal(t, KindUnsupportedFormat, result.ErrorKind)
	assert.Equal(t, StateRejected, result.State)
}

func TestOptimizeVideoKindAlwaysUnsupported(t *testing.T) {
	e := NewEngine(1 << 20)
	result := e.Optimize(KindVideo, []byte("x"), Options{EnableVideo: true})
	assert.Equal(t, KindUnsupportedFormat, result.ErrorKind)
}

func TestOptimizeWebPIsUnsupportedStub(t *testing.T) {
	e := NewEngine(1 << 20)
	result := e.Optimize(KindWebP, []byte("RIFF...WEBP"), Options{})
	assert.Equal(t, KindUnsupportedFormat, result.ErrorKind)
}

func TestOptimizeRejectsMalformedContainer(t *testing.T) {
	e := NewEngine(1 << 20)
	result := e.Optimize(KindPNG, []byte("definitely not a png"), Options{})
	assert.Equal(t, KindMalformed, result.ErrorKind)
}

// TestOptimizeRejectsReentry exercises the reentrancy guard from
// spec.md §5: a second call into the same Engine while one is already
// marked running is rejected rather than corrupting the Arena.
func TestOptimizeRejectsReentry(t *testing.T) {
	e := NewEngine(1 << 20)
	e.running = 1
	result := e.Optimize(KindPNG, randomPNG(t, 4, 4, 1), Options{})
	assert.Equal(t, KindInvalidArgument, result.ErrorKind)
}

func cubeMesh() *meshkernels.Mesh {
	return &meshkernels.Mesh{
		Vertices: []float32{
			0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0,
			0, 0, 1, 1, 0, 1, 1, 1, 1, 0, 1, 1,
		},
		Indices: []uint32{
			0, 1, 2, 0, 2, 3,
			4, 6, 5, 4, 7, 6,
			0, 4, 5, 0, 5, 1,
			3, 2, 6, 3, 6, 7,
			1, 5, 6, 1, 6, 2,
			0, 3, 7, 0, 7, 4,
		},
	}
}

func TestOptimizeWeldsMeshEndToEnd(t *testing.T) {
	m := cubeMesh()
	data, err := meshio.EncodeOBJ(m)
	require.NoError(t, err)

	e := NewEngine(1 << 20)
	result := e.Optimize(KindOBJ, data, Options{Mesh: MeshOptions{WeldTolerance: 1e-4}})
	require.Equal(t, KindOK, result.ErrorKind)
	decoded, err := meshio.DecodeOBJ(result.Output)
	require.NoError(t, err)
	assert.True(t, decoded.Valid())
}

// TestOptimizeMeshCancellation is scenario 6 from spec.md §8: a
// ShouldCancel callback that fires immediately stops decimation and is
// surfaced as KindCancelled rather than a partial result.
func TestOptimizeMeshCancellation(t *testing.T) {
	m := cubeMesh()
	data, err := meshio.EncodeOBJ(m)
	require.NoError(t, err)

	e := NewEngine(1 << 20)
	result := e.Optimize(KindOBJ, data, Options{
		Mesh: MeshOptions{TargetRatio: 0.5},
		ShouldCancel: func() bool { return true },
	})
	assert.Equal(t, KindCancelled, result.ErrorKind)
}

func TestOptimizeGIFRoundTripsThroughQuantization(t *testing.T) {
	input := randomPNG(t, 16, 16, 99)
	e := NewEngine(4 << 20)
	result := e.Optimize(KindPNG, input, Options{Image: ImageOptions{MaxColors: 32}})
	require.Equal(t, KindOK, result.ErrorKind)
	assert.NotEmpty(t, result.Output)
}
