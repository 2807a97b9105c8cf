// Package imagekernels implements pixel-level operators: palette
// quantization (octree and median-cut), Floyd-Steinberg dithering,
// separable Gaussian blur, and unsharp masking, over the PixelGrid /
// Palette / QuantizedImage data model.
package imagekernels

import "errors"

// ErrInvalidArgument mirrors mathkernels.ErrInvalidArgument for this
// package's own precondition violations (dimension mismatches, bad
// channel counts). It is a distinct value from the other kernel
// packages' sentinels, so errors.Is against it matches only this
// package's errors.
var ErrInvalidArgument = errors.New("imagekernels: invalid argument")

// Color32 is a four 8-bit-channel color; premultiplied alpha is never
// assumed.
type Color32 struct {
	R, G, B, A uint8
}

// PixelGrid is row-major pixel data with no row padding: stride always
// equals Width*Channels.
type PixelGrid struct {
	Width, Height int
	Channels      int // 1, 3, or 4
	Pixels        []byte
}

// Valid reports whether the grid's invariant (len(Pixels) ==
// Width*Height*Channels) holds.
func (g *PixelGrid) Valid() bool {
	if g.Channels != 1 && g.Channels != 3 && g.Channels != 4 {
		return false
	}
	return len(g.Pixels) == g.Width*g.Height*g.Channels
}

// At returns the color at (x, y), expanding fewer-channel grids to
// Color32 (missing channels duplicate R for gray, alpha defaults to
// 255 when the grid carries no alpha channel).
func (g *PixelGrid) At(x, y int) Color32 {
	i := (y*g.Width + x) * g.Channels
	switch g.Channels {
	case 1:
		v := g.Pixels[i]
		return Color32{v, v, v, 255}
	case 3:
		return Color32{g.Pixels[i], g.Pixels[i+1], g.Pixels[i+2], 255}
	default:
		return Color32{g.Pixels[i], g.Pixels[i+1], g.Pixels[i+2], g.Pixels[i+3]}
	}
}

// SetRGBA writes c's first g.Channels components at (x, y).
func (g *PixelGrid) SetRGBA(x, y int, c Color32) {
	i := (y*g.Width + x) * g.Channels
	switch g.Channels {
	case 1:
		g.Pixels[i] = c.R
	case 3:
		g.Pixels[i], g.Pixels[i+1], g.Pixels[i+2] = c.R, c.G, c.B
	default:
		g.Pixels[i], g.Pixels[i+1], g.Pixels[i+2], g.Pixels[i+3] = c.R, c.G, c.B, c.A
	}
}

// Palette is an ordered sequence of colors, 2..256 entries. Indices
// into it are taken modulo len(Palette) by convention, so duplicate
// entries from pathological quantizer input never produce an
// out-of-range index.
type Palette []Color32

// QuantizedImage is a palette plus one index per pixel.
type QuantizedImage struct {
	Palette Palette
	Indices []uint8
	Width   int
	Height  int
}
