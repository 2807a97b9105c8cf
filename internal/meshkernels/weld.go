package meshkernels

import "math"

type cellKey struct{ x, y, z int32 }

func cellOf(p [3]float32, tolerance float32) cellKey {
	return cellKey{
		x: int32(math.Floor(float64(p[0] / tolerance))),
		y: int32(math.Floor(float64(p[1] / tolerance))),
		z: int32(math.Floor(float64(p[2] / tolerance))),
	}
}

func dist3(a, b [3]float32) float32 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
}

// WeldResult is the remapped, deduplicated mesh produced by Weld.
type WeldResult struct {
	Vertices []float32
	Normals  []float32
	UVs      []float32
	Colors   []uint8
	Indices  []uint32
}

// Weld merges vertices within tolerance of each other using a uniform
// spatial grid hash (cell size = tolerance), per spec.md §4.6. Two
// vertices merge iff they hash to the same cell and their Euclidean
// distance is below tolerance; merged attributes are averaged and
// normals renormalized, and triangles that become degenerate after
// remapping are dropped.
func Weld(m *Mesh, tolerance float32) (*WeldResult, error) {
	if m == nil || !m.Valid() || tolerance <= 0 {
		return nil, ErrInvalidArgument
	}

	vc := m.VertexCount()
	hasNormals := len(m.Normals) == vc*3
	hasUVs := len(m.UVs) == vc*2
	hasColors := len(m.Colors) == vc*4

	// buckets maps a cell to the list of representative groups already
	// placed in it, each group an index into `groups`.
	buckets := make(map[cellKey][]int)
	remap := make([]int, vc)
	type group struct {
		sumPos          [3]float32
		sumNorm         [3]float32
		sumUV           [2]float32
		sumColor        [4]float32
		count           int
		repPos          [3]float32 // first member's position, used for tolerance checks
	}
	var groups []group

	for i := 0; i < vc; i++ {
		p := m.vertexAt(uint32(i))
		cell := cellOf(p, tolerance)

		merged := -1
		for _, gi := range buckets[cell] {
			if dist3(groups[gi].repPos, p) < tolerance {
				merged = gi
				break
			}
		}
		if merged < 0 {
			g := group{repPos: p}
			groups = append(groups, g)
			merged = len(groups) - 1
			buckets[cell] = append(buckets[cell], merged)
		}

		groups[merged].sumPos[0] += p[0]
		groups[merged].sumPos[1] += p[1]
		groups[merged].sumPos[2] += p[2]
		groups[merged].count++
		if hasNormals {
			groups[merged].sumNorm[0] += m.Normals[i*3]
			groups[merged].sumNorm[1] += m.Normals[i*3+1]
			groups[merged].sumNorm[2] += m.Normals[i*3+2]
		}
		if hasUVs {
			groups[merged].sumUV[0] += m.UVs[i*2]
			groups[merged].sumUV[1] += m.UVs[i*2+1]
		}
		if hasColors {
			groups[merged].sumColor[0] += float32(m.Colors[i*4])
			groups[merged].sumColor[1] += float32(m.Colors[i*4+1])
			groups[merged].sumColor[2] += float32(m.Colors[i*4+2])
			groups[merged].sumColor[3] += float32(m.Colors[i*4+3])
		}
		remap[i] = merged
	}

	out := &WeldResult{}
	if hasNormals {
		out.Normals = make([]float32, 0, len(groups)*3)
	}
	if hasUVs {
		out.UVs = make([]float32, 0, len(groups)*2)
	}
	if hasColors {
		out.Colors = make([]uint8, 0, len(groups)*4)
	}
	for _, g := range groups {
		n := float32(g.count)
		out.Vertices = append(out.Vertices, g.sumPos[0]/n, g.sumPos[1]/n, g.sumPos[2]/n)
		if hasNormals {
			u := normalize3([3]float32{g.sumNorm[0] / n, g.sumNorm[1] / n, g.sumNorm[2] / n})
			out.Normals = append(out.Normals, u[0], u[1], u[2])
		}
		if hasUVs {
			out.UVs = append(out.UVs, g.sumUV[0]/n, g.sumUV[1]/n)
		}
		if hasColors {
			out.Colors = append(out.Colors, uint8(g.sumColor[0]/n), uint8(g.sumColor[1]/n), uint8(g.sumColor[2]/n), uint8(g.sumColor[3]/n))
		}
	}

	for i := 0; i+2 < len(m.Indices); i += 3 {
		a := remap[m.Indices[i]]
		b := remap[m.Indices[i+1]]
		c := remap[m.Indices[i+2]]
		if a == b || b == c || a == c {
			continue
		}
		out.Indices = append(out.Indices, uint32(a), uint32(b), uint32(c))
	}

	return out, nil
}
