package imagekernels

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
)

// ErrUnsupportedContainer names a container that can't be represented as
// a PixelGrid. No function in this package returns it: imageToGrid
// converts every decoded image into a 4-channel PixelGrid.
var ErrUnsupportedContainer = errors.New("imagekernels: unsupported container")

// imageToGrid converts any decoded image.Image into a 4-channel
// PixelGrid (teacher's own container layer always normalizes into one
// in-memory RGBA shape before running kernels; the standard library's
// image.NRGBA plays that role here).
func imageToGrid(img image.Image) *PixelGrid {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	return &PixelGrid{Width: w, Height: h, Channels: 4, Pixels: nrgba.Pix[:w*h*4]}
}

func gridToImage(g *PixelGrid) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	switch g.Channels {
	case 4:
		copy(img.Pix, g.Pixels)
	case 3:
		for i := 0; i < g.Width*g.Height; i++ {
			img.Pix[i*4] = g.Pixels[i*3]
			img.Pix[i*4+1] = g.Pixels[i*3+1]
			img.Pix[i*4+2] = g.Pixels[i*3+2]
			img.Pix[i*4+3] = 255
		}
	default: // 1
		for i := 0; i < g.Width*g.Height; i++ {
			v := g.Pixels[i]
			img.Pix[i*4] = v
			img.Pix[i*4+1] = v
			img.Pix[i*4+2] = v
			img.Pix[i*4+3] = 255
		}
	}
	return img
}

// DecodePNG decodes a PNG container into a PixelGrid.
func DecodePNG(data []byte) (*PixelGrid, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return imageToGrid(img), nil
}

// EncodePNG encodes a PixelGrid as PNG.
func EncodePNG(grid *PixelGrid) ([]byte, error) {
	if grid == nil || !grid.Valid() {
		return nil, ErrInvalidArgument
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, gridToImage(grid)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeJPEG decodes a JPEG container into a PixelGrid.
func DecodeJPEG(data []byte) (*PixelGrid, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return imageToGrid(img), nil
}

// EncodeJPEG encodes a PixelGrid as JPEG at the given quality (1-100).
func EncodeJPEG(grid *PixelGrid, quality int) ([]byte, error) {
	if grid == nil || !grid.Valid() {
		return nil, ErrInvalidArgument
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gridToImage(grid), &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeGIF decodes the first frame of a GIF container into a PixelGrid.
func DecodeGIF(data []byte) (*PixelGrid, error) {
	img, err := gif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return imageToGrid(img), nil
}

// EncodeGIF encodes a PixelGrid as a single-frame GIF, quantizing
// through the grid's own octree quantizer since GIF requires an
// indexed palette of at most 256 colors.
func EncodeGIF(grid *PixelGrid) ([]byte, error) {
	if grid == nil || !grid.Valid() {
		return nil, ErrInvalidArgument
	}
	qi, err := QuantizeOctree(grid, 256)
	if err != nil {
		return nil, err
	}
	pal := make(color.Palette, len(qi.Palette))
	for i, c := range qi.Palette {
		pal[i] = color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
	}
	paletted := image.NewPaletted(image.Rect(0, 0, grid.Width, grid.Height), pal)
	copy(paletted.Pix, qi.Indices)

	var buf bytes.Buffer
	if err := gif.Encode(&buf, paletted, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
