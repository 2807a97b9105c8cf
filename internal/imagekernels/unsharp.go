package imagekernels

// UnsharpMask sharpens grid as out = src + amount*(src - blur(src,
// radius)), suppressing any per-channel delta whose absolute value is
// below threshold to zero, per spec.md §4.5. radius maps to the
// Gaussian blur's sigma via sigma = radius/3 (the inverse of
// GaussianBlur's own radius = ceil(3*sigma) rule).
func UnsharpMask(grid *PixelGrid, amount float32, radius int, threshold int32) (*PixelGrid, error) {
	if grid == nil || !grid.Valid() || radius < 0 {
		return nil, ErrInvalidArgument
	}
	sigma := float64(radius) / 3.0
	blurred, err := GaussianBlur(grid, sigma)
	if err != nil {
		return nil, err
	}

	out := &PixelGrid{Width: grid.Width, Height: grid.Height, Channels: grid.Channels, Pixels: make([]byte, len(grid.Pixels))}
	for i := range grid.Pixels {
		src := int32(grid.Pixels[i])
		bl := int32(blurred.Pixels[i])
		delta := src - bl
		if abs32(delta) < threshold {
			out.Pixels[i] = grid.Pixels[i]
			continue
		}
		v := src + int32(amount*float32(delta))
		out.Pixels[i] = clampByte(v)
	}
	return out, nil
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
