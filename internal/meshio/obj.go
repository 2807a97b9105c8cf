// Package meshio implements thin container codecs (OBJ, binary STL,
// ASCII PLY, and a minimal glTF JSON subset) around meshkernels.Mesh,
// the mesh-domain analog of imagekernels/codec.go's PNG/JPEG/GIF
// wrappers over the standard image package.
package meshio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pixiejuice/engine/internal/meshkernels"
)

// ErrMalformed is returned by every decoder in this package for
// structurally invalid input, mapping to dispatch's Malformed error
// kind.
var ErrMalformed = errors.New("meshio: malformed mesh container")

// DecodeOBJ parses a Wavefront OBJ document into a Mesh. Face records
// may use v/vt/vn indices or bare v indices; polygonal faces with more
// than 3 vertices are fan-
// triangulated from the first vertex, matching common exporter
// behavior.
func DecodeOBJ(data []byte) (*meshkernels.Mesh, error) {
	var positions [][3]float32
	var normals [][3]float32
	var uvs [][2]float32
	var faceVerts []int
	var faceNorms []int
	var faceUVs []int
	hasNormals, hasUVs := false, false

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			p, err := parseFloat3(fields[1:])
			if err != nil {
				return nil, ErrMalformed
			}
			positions = append(positions, p)
		case "vn":
			n, err := parseFloat3(fields[1:])
			if err != nil {
				return nil, ErrMalformed
			}
			normals = append(normals, n)
			hasNormals = true
		case "vt":
			if len(fields) < 3 {
				return nil, ErrMalformed
			}
			u, err1 := strconv.ParseFloat(fields[1], 32)
			v, err2 := strconv.ParseFloat(fields[2], 32)
			if err1 != nil || err2 != nil {
				return nil, ErrMalformed
			}
			uvs = append(uvs, [2]float32{float32(u), float32(v)})
			hasUVs = true
		case "f":
			verts := fields[1:]
			if len(verts) < 3 {
				return nil, ErrMalformed
			}
			idx := make([]int, len(verts))
			nrm := make([]int, len(verts))
			uv := make([]int, len(verts))
			for i, v := range verts {
				vi, ni, ui, err := parseFaceVertex(v, len(positions), len(normals), len(uvs))
				if err != nil {
					return nil, ErrMalformed
				}
				idx[i], nrm[i], uv[i] = vi, ni, ui
			}
			for i := 1; i+1 < len(idx); i++ {
				faceVerts = append(faceVerts, idx[0], idx[i], idx[i+1])
				faceNorms = append(faceNorms, nrm[0], nrm[i], nrm[i+1])
				faceUVs = append(faceUVs, uv[0], uv[i], uv[i+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, ErrMalformed
	}
	if len(positions) == 0 || len(faceVerts) == 0 {
		return nil, ErrMalformed
	}

	// OBJ indices may mix distinct (position, normal, uv) tuples per
	// vertex; expand into one Mesh vertex per unique tuple actually
	// referenced, since Mesh's parallel attribute streams assume a
	// single shared index space per spec.md §3.
	type key struct{ v, n, u int }
	remap := make(map[key]uint32)
	var outVerts []float32
	var outNormals []float32
	var outUVs []float32
	var outIndices []uint32

	for i := range faceVerts {
		k := key{faceVerts[i], faceNorms[i], faceUVs[i]}
		id, ok := remap[k]
		if !ok {
			id = uint32(len(outVerts) / 3)
			remap[k] = id
			p := positions[k.v]
			outVerts = append(outVerts, p[0], p[1], p[2])
			if hasNormals {
				n := [3]float32{}
				if k.n >= 0 {
					n = normals[k.n]
				}
				outNormals = append(outNormals, n[0], n[1], n[2])
			}
			if hasUVs {
				u := [2]float32{}
				if k.u >= 0 {
					u = uvs[k.u]
				}
				outUVs = append(outUVs, u[0], u[1])
			}
		}
		outIndices = append(outIndices, id)
	}

	m := &meshkernels.Mesh{Vertices: outVerts, Indices: outIndices}
	if hasNormals {
		m.Normals = outNormals
	}
	if hasUVs {
		m.UVs = outUVs
	}
	if !m.Valid() {
		return nil, ErrMalformed
	}
	return m, nil
}

func parseFloat3(fields []string) ([3]float32, error) {
	if len(fields) < 3 {
		return [3]float32{}, ErrMalformed
	}
	var out [3]float32
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return [3]float32{}, err
		}
		out[i] = float32(v)
	}
	return out, nil
}

// parseFaceVertex parses an OBJ "v", "v/vt", "v//vn", or "v/vt/vn"
// token, resolving negative (relative) indices and returning -1 for
// absent normal/uv components.
func parseFaceVertex(tok string, nv, nn, nu int) (v, n, u int, err error) {
	parts := strings.Split(tok, "/")
	v, err = parseOBJIndex(parts[0], nv)
	if err != nil {
		return 0, 0, 0, err
	}
	n, u = -1, -1
	if len(parts) >= 2 && parts[1] != "" {
		u, err = parseOBJIndex(parts[1], nu)
		if err != nil {
			return 0, 0, 0, err
		}
	}
	if len(parts) >= 3 && parts[2] != "" {
		n, err = parseOBJIndex(parts[2], nn)
		if err != nil {
			return 0, 0, 0, err
		}
	}
	return v, n, u, nil
}

func parseOBJIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		i = count + i
	} else {
		i--
	}
	if i < 0 || i >= count {
		return 0, ErrMalformed
	}
	return i, nil
}

// EncodeOBJ serializes m as a Wavefront OBJ document.
func EncodeOBJ(m *meshkernels.Mesh) ([]byte, error) {
	if m == nil || !m.Valid() {
		return nil, ErrMalformed
	}
	var b strings.Builder
	vc := m.VertexCount()
	for i := 0; i < vc; i++ {
		fmt.Fprintf(&b, "v %g %g %g\n", m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2])
	}
	hasNormals := len(m.Normals) == vc*3
	if hasNormals {
		for i := 0; i < vc; i++ {
			fmt.Fprintf(&b, "vn %g %g %g\n", m.Normals[i*3], m.Normals[i*3+1], m.Normals[i*3+2])
		}
	}
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, bi, c := m.Indices[i]+1, m.Indices[i+1]+1, m.Indices[i+2]+1
		if hasNormals {
			fmt.Fprintf(&b, "f %d//%d %d//%d %d//%d\n", a, a, bi, bi, c, c)
		} else {
			fmt.Fprintf(&b, "f %d %d %d\n", a, bi, c)
		}
	}
	return []byte(b.String()), nil
}
