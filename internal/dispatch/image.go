package dispatch

import (
	"time"

	"github.com/pixiejuice/engine/internal/imagekernels"
)

func decodeImage(kind Kind, input []byte) (*imagekernels.PixelGrid, error) {
	var grid *imagekernels.PixelGrid
	var err error
	switch kind {
	case KindPNG:
		grid, err = imagekernels.DecodePNG(input)
	case KindJPEG:
		grid, err = imagekernels.DecodeJPEG(input)
	case KindGIF:
		grid, err = imagekernels.DecodeGIF(input)
	case KindWebP:
		// The 0x03 tag routes through the same PixelGrid decode seam a
		// real WebP codec would plug into; none is wired in this
		// version.
		return nil, ErrUnsupportedFormat
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, ErrMalformed
	}
	return grid, nil
}

func (e *Engine) runImagePipeline(kind Kind, input []byte, opts Options, result *Result, start time.Time) *Result {
	grid, err := decodeImage(kind, input)
	if err != nil {
		return e.fail(result, err, err.Error())
	}
	if !grid.Valid() {
		return e.fail(result, ErrMalformed, "decoded pixel grid failed its invariant check")
	}
	e.transition(StateDecoded, StateKernel)

	io := opts.Image

	if io.BlurSigma > 0 {
		if e.cancelRequested(opts) {
			return e.fail(result, ErrCancelled, "cancelled before blur")
		}
		blurred, err := imagekernels.GaussianBlur(grid, io.BlurSigma)
		if err != nil {
			return e.fail(result, ErrKernelFailed, err.Error())
		}
		grid = blurred
	}

	if io.UnsharpAmount != 0 {
		if e.cancelRequested(opts) {
			return e.fail(result, ErrCancelled, "cancelled before unsharp")
		}
		sharp, err := imagekernels.UnsharpMask(grid, io.UnsharpAmount, io.UnsharpRadius, io.UnsharpThresh)
		if err != nil {
			return e.fail(result, ErrKernelFailed, err.Error())
		}
		grid = sharp
	}

	var quantized *imagekernels.QuantizedImage
	if io.MaxColors > 0 {
		if e.cancelRequested(opts) {
			return e.fail(result, ErrCancelled, "cancelled before quantization")
		}
		var qerr error
		if io.UseMedianCut {
			quantized, qerr = imagekernels.QuantizeMedianCut(grid, io.MaxColors)
		} else {
			quantized, qerr = imagekernels.QuantizeOctree(grid, io.MaxColors)
		}
		if qerr != nil {
			return e.fail(result, ErrKernelFailed, qerr.Error())
		}
		if io.Dither {
			quantized, qerr = imagekernels.FloydSteinbergDither(grid, quantized.Palette)
			if qerr != nil {
				return e.fail(result, ErrKernelFailed, qerr.Error())
			}
		}
		grid = quantizedToGrid(quantized)
	}

	output, err := e.encodeImage(kind, grid, quantized, opts, result)
	if err != nil {
		return e.fail(result, err, err.Error())
	}
	e.transition(StateKernel, StateEncoded)

	return e.finishResult(result, output, input, opts, start)
}

// quantizedToGrid expands a QuantizedImage back into an RGBA grid so
// downstream code only ever deals with one pixel representation; the
// container encoders re-quantize at encode time when the target format
// is palette-based.
func quantizedToGrid(q *imagekernels.QuantizedImage) *imagekernels.PixelGrid {
	g := &imagekernels.PixelGrid{Width: q.Width, Height: q.Height, Channels: 4, Pixels: make([]byte, q.Width*q.Height*4)}
	for y := 0; y < q.Height; y++ {
		for x := 0; x < q.Width; x++ {
			idx := q.Indices[y*q.Width+x]
			c := q.Palette[int(idx)%len(q.Palette)]
			g.SetRGBA(x, y, c)
		}
	}
	return g
}

func (e *Engine) encodeImage(kind Kind, grid *imagekernels.PixelGrid, quantized *imagekernels.QuantizedImage, opts Options, result *Result) ([]byte, error) {
	switch kind {
	case KindGIF:
		return imagekernels.EncodeGIF(grid)
	case KindJPEG:
		if opts.TargetReduction != nil {
			return e.negotiateJPEGQuality(grid, result.InputSize, *opts.TargetReduction, opts)
		}
		q := opts.Image.JPEGQuality
		if q <= 0 {
			q = 75
		}
		return imagekernels.EncodeJPEG(grid, q)
	default:
		if quantized != nil {
			return imagekernels.EncodeGIF(grid)
		}
		return imagekernels.EncodePNG(grid)
	}
}

func (e *Engine) cancelRequested(opts Options) bool {
	return opts.ShouldCancel != nil && opts.ShouldCancel()
}
