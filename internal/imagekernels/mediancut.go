package imagekernels

import (
	"sort"

	"github.com/pixiejuice/engine/internal/mathkernels"
)

// colorWeight is one distinct color and how many pixels carry it.
type colorWeight struct {
	c      Color32
	weight int
}

// mcBox is a set of distinct colors (by slice indices into a shared
// backing array) plus the bounding box and total weight over them.
type mcBox struct {
	colors []colorWeight
	aabb   mathkernels.AABB
	weight int
}

func newBox(colors []colorWeight) mcBox {
	b := mcBox{colors: colors, aabb: mathkernels.EmptyAABB()}
	for _, cw := range colors {
		b.aabb.Extend([3]float32{float32(cw.c.R), float32(cw.c.G), float32(cw.c.B)})
		b.weight += cw.weight
	}
	return b
}

func (b mcBox) meanColor() Color32 {
	if b.weight == 0 {
		return Color32{}
	}
	var r, g, bl int64
	for _, cw := range b.colors {
		r += int64(cw.c.R) * int64(cw.weight)
		g += int64(cw.c.G) * int64(cw.weight)
		bl += int64(cw.c.B) * int64(cw.weight)
	}
	w := int64(b.weight)
	return Color32{R: uint8(r / w), G: uint8(g / w), B: uint8(bl / w), A: 255}
}

// split partitions b along its longest axis at the weighted median,
// per spec.md §4.5.
func (b mcBox) split() (mcBox, mcBox) {
	axis := b.aabb.LongestAxis()
	colors := append([]colorWeight(nil), b.colors...)
	sort.Slice(colors, func(i, j int) bool {
		vi := axisValue(colors[i].c, axis)
		vj := axisValue(colors[j].c, axis)
		if vi != vj {
			return vi < vj
		}
		return colorLess(colors[i].c, colors[j].c)
	})

	half := b.weight / 2
	cum := 0
	splitAt := len(colors) - 1
	for i, cw := range colors {
		cum += cw.weight
		if cum >= half {
			splitAt = i
			break
		}
	}
	if splitAt >= len(colors)-1 {
		splitAt = len(colors) - 2
	}
	if splitAt < 0 {
		splitAt = 0
	}

	left := newBox(colors[:splitAt+1])
	right := newBox(colors[splitAt+1:])
	return left, right
}

func axisValue(c Color32, axis int) float32 {
	switch axis {
	case 0:
		return float32(c.R)
	case 1:
		return float32(c.G)
	default:
		return float32(c.B)
	}
}

func colorLess(a, b Color32) bool {
	if a.R != b.R {
		return a.R < b.R
	}
	if a.G != b.G {
		return a.G < b.G
	}
	return a.B < b.B
}

func (b mcBox) distinctCount() int { return len(b.colors) }

// QuantizeMedianCut builds a palette of at most maxColors entries by
// recursively splitting the weighted RGB bounding box on its longest
// axis at the weighted median.
func QuantizeMedianCut(grid *PixelGrid, maxColors int) (*QuantizedImage, error) {
	if grid == nil || !grid.Valid() || maxColors < 2 || maxColors > 256 {
		return nil, ErrInvalidArgument
	}

	hist := make(map[Color32]int)
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			c := grid.At(x, y)
			hist[c]++
		}
	}
	colors := make([]colorWeight, 0, len(hist))
	for c, w := range hist {
		colors = append(colors, colorWeight{c: c, weight: w})
	}
	sort.Slice(colors, func(i, j int) bool { return colorLess(colors[i].c, colors[j].c) })

	boxes := []mcBox{newBox(colors)}
	for len(boxes) < maxColors {
		splitIdx := -1
		bestWeight := -1
		for i, b := range boxes {
			if b.distinctCount() < 2 {
				continue
			}
			if b.weight > bestWeight {
				bestWeight = b.weight
				splitIdx = i
			}
		}
		if splitIdx < 0 {
			break
		}
		left, right := boxes[splitIdx].split()
		boxes = append(boxes[:splitIdx], append([]mcBox{left, right}, boxes[splitIdx+1:]...)...)
	}

	palette := make(Palette, len(boxes))
	colorToIndex := make(map[Color32]uint8, len(hist))
	for i, b := range boxes {
		palette[i] = b.meanColor()
		for _, cw := range b.colors {
			colorToIndex[cw.c] = uint8(i)
		}
	}

	indices := make([]uint8, grid.Width*grid.Height)
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			indices[y*grid.Width+x] = colorToIndex[grid.At(x, y)]
		}
	}

	return &QuantizedImage{Palette: palette, Indices: indices, Width: grid.Width, Height: grid.Height}, nil
}
