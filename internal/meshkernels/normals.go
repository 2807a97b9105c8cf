package meshkernels

import "github.com/pixiejuice/engine/internal/mathkernels"

func sub3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func cross3(a, b [3]float32) [3]float32 {
	out := make([]float32, 3)
	_ = mathkernels.Vec3Cross(a[:], b[:], out)
	return [3]float32{out[0], out[1], out[2]}
}

func normalize3(v [3]float32) [3]float32 {
	s := v[:]
	buf := make([]float32, 3)
	copy(buf, s)
	_ = mathkernels.Vec3Normalize(buf)
	return [3]float32{buf[0], buf[1], buf[2]}
}

// faceNormal returns the unnormalized, then unit, normal of triangle
// (p0,p1,p2) using a right-handed winding.
func faceNormal(p0, p1, p2 [3]float32) [3]float32 {
	e1 := sub3(p1, p0)
	e2 := sub3(p2, p0)
	return normalize3(cross3(e1, e2))
}

// ComputeNormals returns an area-weighted per-vertex normal array for
// m, required to evaluate QEM's "reject contractions that flip a face
// normal" invariant and useful as a general mesh-processing output.
func ComputeNormals(m *Mesh) ([]float32, error) {
	if m == nil || !m.Valid() {
		return nil, ErrInvalidArgument
	}
	vc := m.VertexCount()
	acc := make([][3]float32, vc)

	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		pa, pb, pc := m.vertexAt(a), m.vertexAt(b), m.vertexAt(c)
		e1 := sub3(pb, pa)
		e2 := sub3(pc, pa)
		n := cross3(e1, e2) // magnitude ∝ triangle area, giving area weighting
		for _, idx := range [3]uint32{a, b, c} {
			acc[idx][0] += n[0]
			acc[idx][1] += n[1]
			acc[idx][2] += n[2]
		}
	}

	out := make([]float32, vc*3)
	for i, n := range acc {
		u := normalize3(n)
		out[i*3], out[i*3+1], out[i*3+2] = u[0], u[1], u[2]
	}
	return out, nil
}
