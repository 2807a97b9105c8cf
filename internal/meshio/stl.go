package meshio

import (
	"encoding/binary"
	"math"

	"github.com/pixiejuice/engine/internal/meshkernels"
)

const stlHeaderSize = 80
const stlTriRecordSize = 50 // 12 bytes normal + 36 bytes vertices + 2 bytes attribute

// DecodeSTL parses a binary STL document. Binary STL stores one
// independent (non-indexed) triangle per record; the resulting Mesh
// has no shared vertices until run through meshkernels.Weld.
func DecodeSTL(data []byte) (*meshkernels.Mesh, error) {
	if len(data) < stlHeaderSize+4 {
		return nil, ErrMalformed
	}
	triCount := binary.LittleEndian.Uint32(data[stlHeaderSize : stlHeaderSize+4])
	want := stlHeaderSize + 4 + int(triCount)*stlTriRecordSize
	if len(data) < want {
		return nil, ErrMalformed
	}

	vertices := make([]float32, 0, triCount*9)
	indices := make([]uint32, 0, triCount*3)
	off := stlHeaderSize + 4
	for t := uint32(0); t < triCount; t++ {
		rec := data[off : off+stlTriRecordSize]
		off += stlTriRecordSize
		// rec[0:12] is the facet normal, not needed: meshkernels
		// recomputes normals from winding when required.
		for v := 0; v < 3; v++ {
			base := 12 + v*12
			x := readF32(rec[base:])
			y := readF32(rec[base+4:])
			z := readF32(rec[base+8:])
			vertices = append(vertices, x, y, z)
		}
		base := uint32(t) * 3
		indices = append(indices, base, base+1, base+2)
	}

	m := &meshkernels.Mesh{Vertices: vertices, Indices: indices}
	if !m.Valid() {
		return nil, ErrMalformed
	}
	return m, nil
}

func readF32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func writeF32(buf []byte, v float32) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
}

// EncodeSTL serializes m as binary STL, recomputing each triangle's
// facet normal from its winding order.
func EncodeSTL(m *meshkernels.Mesh) ([]byte, error) {
	if m == nil || !m.Valid() {
		return nil, ErrMalformed
	}
	triCount := m.TriangleCount()
	out := make([]byte, stlHeaderSize+4+triCount*stlTriRecordSize)
	binary.LittleEndian.PutUint32(out[stlHeaderSize:], uint32(triCount))

	off := stlHeaderSize + 4
	for t := 0; t < triCount; t++ {
		a, b, c := m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]
		pa := [3]float32{m.Vertices[a*3], m.Vertices[a*3+1], m.Vertices[a*3+2]}
		pb := [3]float32{m.Vertices[b*3], m.Vertices[b*3+1], m.Vertices[b*3+2]}
		pc := [3]float32{m.Vertices[c*3], m.Vertices[c*3+1], m.Vertices[c*3+2]}
		n := triNormal(pa, pb, pc)

		rec := out[off : off+stlTriRecordSize]
		writeF32(rec[0:], n[0])
		writeF32(rec[4:], n[1])
		writeF32(rec[8:], n[2])
		for i, p := range [][3]float32{pa, pb, pc} {
			base := 12 + i*12
			writeF32(rec[base:], p[0])
			writeF32(rec[base+4:], p[1])
			writeF32(rec[base+8:], p[2])
		}
		off += stlTriRecordSize
	}
	return out, nil
}

func triNormal(a, b, c [3]float32) [3]float32 {
	e1 := [3]float32{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	e2 := [3]float32{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
	n := [3]float32{
		e1[1]*e2[2] - e1[2]*e2[1],
		e1[2]*e2[0] - e1[0]*e2[2],
		e1[0]*e2[1] - e1[1]*e2[0],
	}
	length := float32(math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])))
	if length == 0 {
		return [3]float32{}
	}
	return [3]float32{n[0] / length, n[1] / length, n[2] / length}
}
