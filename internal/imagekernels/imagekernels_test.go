package imagekernels

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomGrid(t *testing.T, w, h int, seed int64) *PixelGrid {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	pixels := make([]byte, w*h*4)
	rng.Read(pixels)
	for i := 3; i < len(pixels); i += 4 {
		pixels[i] = 255
	}
	return &PixelGrid{Width: w, Height: h, Channels: 4, Pixels: pixels}
}

// TestQuantizeOctreeCoversEveryPixel is property 1 from spec.md §8:
// every pixel maps to a valid palette index and the palette never
// exceeds max_colors.
func TestQuantizeOctreeCoversEveryPixel(t *testing.T) {
	grid := randomGrid(t, 64, 64, 1)
	qi, err := QuantizeOctree(grid, 16)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(qi.Palette), 16)
	for _, idx := range qi.Indices {
		assert.Less(t, int(idx), len(qi.Palette))
	}
}

func TestQuantizeOctreeSmallPaletteExact(t *testing.T) {
	grid := &PixelGrid{Width: 2, Height: 2, Channels: 4, Pixels: []byte{
		255, 0, 0, 255,
		255, 0, 0, 255,
		0, 255, 0, 255,
		0, 255, 0, 255,
	}}
	qi, err := QuantizeOctree(grid, 4)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(qi.Palette), 4)
	assert.Equal(t, qi.Indices[0], qi.Indices[1])
	assert.Equal(t, qi.Indices[2], qi.Indices[3])
}

func TestQuantizeMedianCutCoversEveryPixel(t *testing.T) {
	grid := randomGrid(t, 64, 64, 2)
	qi, err := QuantizeMedianCut(grid, 16)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(qi.Palette), 16)
	for _, idx := range qi.Indices {
		assert.Less(t, int(idx), len(qi.Palette))
	}
}

func TestQuantizeRejectsInvalidMaxColors(t *testing.T) {
	grid := randomGrid(t, 4, 4, 3)
	_, err := QuantizeOctree(grid, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = QuantizeMedianCut(grid, 300)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFloydSteinbergDitherCoversEveryPixel(t *testing.T) {
	grid := randomGrid(t, 32, 32, 4)
	palette := Palette{
		{255, 0, 0, 255}, {0, 255, 0, 255}, {0, 0, 255, 255}, {0, 0, 0, 255}, {255, 255, 255, 255},
	}
	qi, err := FloydSteinbergDither(grid, palette)
	require.NoError(t, err)
	for _, idx := range qi.Indices {
		assert.Less(t, int(idx), len(palette))
	}
}

func TestFloydSteinbergRejectsNonRGBA(t *testing.T) {
	grid := &PixelGrid{Width: 2, Height: 2, Channels: 3, Pixels: make([]byte, 12)}
	_, err := FloydSteinbergDither(grid, Palette{{}, {}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGaussianBlurPreservesFlatColor(t *testing.T) {
	w, h := 16, 16
	pixels := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		pixels[i*4], pixels[i*4+1], pixels[i*4+2], pixels[i*4+3] = 100, 150, 200, 255
	}
	grid := &PixelGrid{Width: w, Height: h, Channels: 4, Pixels: pixels}
	out, err := GaussianBlur(grid, 2.0)
	require.NoError(t, err)
	for i := 0; i < w*h; i++ {
		assert.InDelta(t, 100, int(out.Pixels[i*4]), 1)
		assert.InDelta(t, 150, int(out.Pixels[i*4+1]), 1)
		assert.InDelta(t, 200, int(out.Pixels[i*4+2]), 1)
	}
}

func TestGaussianBlurRejectsInvalidGrid(t *testing.T) {
	_, err := GaussianBlur(&PixelGrid{Width: 2, Height: 2, Channels: 4, Pixels: make([]byte, 3)}, 1.0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUnsharpMaskSuppressesBelowThreshold(t *testing.T) {
	w, h := 8, 8
	pixels := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		pixels[i*4], pixels[i*4+1], pixels[i*4+2], pixels[i*4+3] = 128, 128, 128, 255
	}
	grid := &PixelGrid{Width: w, Height: h, Channels: 4, Pixels: pixels}
	out, err := UnsharpMask(grid, 2.0, 3, 50)
	require.NoError(t, err)
	assert.Equal(t, grid.Pixels, out.Pixels)
}

func TestPNGEncodeDecodeRoundTrip(t *testing.T) {
	grid := randomGrid(t, 8, 8, 5)
	encoded, err := EncodePNG(grid)
	require.NoError(t, err)
	decoded, err := DecodePNG(encoded)
	require.NoError(t, err)
	assert.Equal(t, grid.Width, decoded.Width)
	assert.Equal(t, grid.Height, decoded.Height)
	assert.Equal(t, grid.Pixels, decoded.Pixels)
}

func TestGIFEncodeProducesValidContainer(t *testing.T) {
	grid := randomGrid(t, 8, 8, 6)
	encoded, err := EncodeGIF(grid)
	require.NoError(t, err)
	decoded, err := DecodeGIF(encoded)
	require.NoError(t, err)
	assert.Equal(t, grid.Width, decoded.Width)
	assert.Equal(t, grid.Height, decoded.Height)
}
