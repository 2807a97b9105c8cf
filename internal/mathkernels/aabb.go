package mathkernels

// AABB is an axis-aligned bounding box over 3-component samples
// (RGB color cubes for median-cut, vertex positions for mesh bounds).
type AABB struct {
	Min, Max [3]float32
}

// EmptyAABB returns a box with inverted bounds so the first Extend call
// always widens it.
func EmptyAABB() AABB {
	return AABB{
		Min: [3]float32{maxFloat32, maxFloat32, maxFloat32},
		Max: [3]float32{-maxFloat32, -maxFloat32, -maxFloat32},
	}
}

const maxFloat32 = 3.4028235e38

// Extend widens the box to include p.
func (b *AABB) Extend(p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// LongestAxis returns the index (0,1,2) of the box's widest dimension.
func (b AABB) LongestAxis() int {
	ext := [3]float32{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
	axis := 0
	for i := 1; i < 3; i++ {
		if ext[i] > ext[axis] {
			axis = i
		}
	}
	return axis
}
