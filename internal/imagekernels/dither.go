package imagekernels

// fsWeights are the Floyd-Steinberg error-diffusion fractions, applied
// relative to the scan direction: right, down-left, down, down-right.
var fsWeights = [4]int32{7, 3, 5, 1}

const fsDenom = 16

// nearestPaletteIndex returns the index of the palette entry closest
// to c by squared RGB distance (alpha is not part of the match, per
// spec.md §4.5's "alpha passed through unchanged").
func nearestPaletteIndex(c [3]int32, palette Palette) uint8 {
	best := 0
	bestDist := int64(-1)
	for i, p := range palette {
		dr := c[0] - int32(p.R)
		dg := c[1] - int32(p.G)
		db := c[2] - int32(p.B)
		dist := int64(dr)*int64(dr) + int64(dg)*int64(dg) + int64(db)*int64(db)
		if bestDist < 0 || dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	return uint8(best)
}

func clampByte(v int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// FloydSteinbergDither quantizes grid (which must carry an alpha
// channel) against palette using serpentine-scan error diffusion.
// Error is accumulated in signed 16-bit per channel and the diffused
// pixel is clamped to [0,255] only after the update, per spec.md §4.5.
func FloydSteinbergDither(grid *PixelGrid, palette Palette) (*QuantizedImage, error) {
	if grid == nil || !grid.Valid() || grid.Channels != 4 || len(palette) < 2 {
		return nil, ErrInvalidArgument
	}

	w, h := grid.Width, grid.Height
	errR := make([]int16, w*h)
	errG := make([]int16, w*h)
	errB := make([]int16, w*h)
	indices := make([]uint8, w*h)

	for y := 0; y < h; y++ {
		leftToRight := y%2 == 0
		xs := make([]int, w)
		if leftToRight {
			for i := range xs {
				xs[i] = i
			}
		} else {
			for i := range xs {
				xs[i] = w - 1 - i
			}
		}
		dir := int32(1)
		if !leftToRight {
			dir = -1
		}

		for _, x := range xs {
			idx := y*w + x
			c := grid.At(x, y)
			old := [3]int32{
				int32(clampByte(int32(c.R) + int32(errR[idx]))),
				int32(clampByte(int32(c.G) + int32(errG[idx]))),
				int32(clampByte(int32(c.B) + int32(errB[idx]))),
			}

			pIdx := nearestPaletteIndex(old, palette)
			indices[idx] = pIdx
			p := palette[pIdx]

			errRVal := old[0] - int32(p.R)
			errGVal := old[1] - int32(p.G)
			errBVal := old[2] - int32(p.B)

			diffuse := func(nx, ny int, weight int32) {
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					return
				}
				ni := ny*w + nx
				errR[ni] = int16(clampErr(int32(errR[ni]) + errRVal*weight/fsDenom))
				errG[ni] = int16(clampErr(int32(errG[ni]) + errGVal*weight/fsDenom))
				errB[ni] = int16(clampErr(int32(errB[ni]) + errBVal*weight/fsDenom))
			}

			diffuse(x+dir, y, fsWeights[0])
			diffuse(x-dir, y+1, fsWeights[1])
			diffuse(x, y+1, fsWeights[2])
			diffuse(x+dir, y+1, fsWeights[3])
		}
	}

	_ = errR
	_ = errG
	_ = errB
	return &QuantizedImage{Palette: palette, Indices: indices, Width: w, Height: h}, nil
}

func clampErr(v int32) int32 {
	if v < -32768 {
		return -32768
	}
	if v > 32767 {
		return 32767
	}
	return v
}
