package meshio

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pixiejuice/engine/internal/meshkernels"
)

// DecodePLY parses an ASCII PLY document with a vertex element
// carrying x/y/z (and optionally nx/ny/nz) properties and a face
// element carrying a "vertex_indices" (or "vertex_index") list
// property. Binary PLY variants are out of scope for this subset.
func DecodePLY(data []byte) (*meshkernels.Mesh, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "ply" {
		return nil, ErrMalformed
	}
	if !scanner.Scan() || !strings.HasPrefix(strings.TrimSpace(scanner.Text()), "format ascii") {
		return nil, ErrMalformed
	}

	var vertexCount, faceCount int
	var vertexProps []string
	section := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "comment":
			continue
		case "element":
			if len(fields) < 3 {
				return nil, ErrMalformed
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, ErrMalformed
			}
			switch fields[1] {
			case "vertex":
				vertexCount = n
				section = "vertex"
			case "face":
				faceCount = n
				section = "face"
			default:
				section = ""
			}
		case "property":
			if section == "vertex" {
				vertexProps = append(vertexProps, fields[len(fields)-1])
			}
		case "end_header":
			goto header_done
		}
	}
header_done:
	if err := scanner.Err(); err != nil {
		return nil, ErrMalformed
	}

	propIndex := make(map[string]int, len(vertexProps))
	for i, p := range vertexProps {
		propIndex[p] = i
	}
	xi, xok := propIndex["x"]
	yi, yok := propIndex["y"]
	zi, zok := propIndex["z"]
	if !xok || !yok || !zok {
		return nil, ErrMalformed
	}
	nxi, hasNormals := propIndex["nx"]
	nyi, hasNY := propIndex["ny"]
	nzi, hasNZ := propIndex["nz"]
	hasNormals = hasNormals && hasNY && hasNZ

	vertices := make([]float32, 0, vertexCount*3)
	var normals []float32
	if hasNormals {
		normals = make([]float32, 0, vertexCount*3)
	}
	for i := 0; i < vertexCount; i++ {
		if !scanner.Scan() {
			return nil, ErrMalformed
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < len(vertexProps) {
			return nil, ErrMalformed
		}
		x, e1 := strconv.ParseFloat(fields[xi], 32)
		y, e2 := strconv.ParseFloat(fields[yi], 32)
		z, e3 := strconv.ParseFloat(fields[zi], 32)
		if e1 != nil || e2 != nil || e3 != nil {
			return nil, ErrMalformed
		}
		vertices = append(vertices, float32(x), float32(y), float32(z))
		if hasNormals {
			nx, _ := strconv.ParseFloat(fields[nxi], 32)
			ny, _ := strconv.ParseFloat(fields[nyi], 32)
			nz, _ := strconv.ParseFloat(fields[nzi], 32)
			normals = append(normals, float32(nx), float32(ny), float32(nz))
		}
	}

	var indices []uint32
	for i := 0; i < faceCount; i++ {
		if !scanner.Scan() {
			return nil, ErrMalformed
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 1 {
			return nil, ErrMalformed
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil || len(fields) < n+1 {
			return nil, ErrMalformed
		}
		idx := make([]uint32, n)
		for k := 0; k < n; k++ {
			v, err := strconv.Atoi(fields[1+k])
			if err != nil {
				return nil, ErrMalformed
			}
			idx[k] = uint32(v)
		}
		for k := 1; k+1 < len(idx); k++ {
			indices = append(indices, idx[0], idx[k], idx[k+1])
		}
	}

	m := &meshkernels.Mesh{Vertices: vertices, Indices: indices, Normals: normals}
	if !m.Valid() {
		return nil, ErrMalformed
	}
	return m, nil
}

// EncodePLY serializes m as an ASCII PLY document.
func EncodePLY(m *meshkernels.Mesh) ([]byte, error) {
	if m == nil || !m.Valid() {
		return nil, ErrMalformed
	}
	vc := m.VertexCount()
	hasNormals := len(m.Normals) == vc*3

	var b strings.Builder
	b.WriteString("ply\nformat ascii 1.0\n")
	fmt.Fprintf(&b, "element vertex %d\n", vc)
	b.WriteString("property float x\nproperty float y\nproperty float z\n")
	if hasNormals {
		b.WriteString("property float nx\nproperty float ny\nproperty float nz\n")
	}
	fmt.Fprintf(&b, "element face %d\n", m.TriangleCount())
	b.WriteString("property list uchar int vertex_indices\nend_header\n")

	for i := 0; i < vc; i++ {
		if hasNormals {
			fmt.Fprintf(&b, "%g %g %g %g %g %g\n",
				m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2],
				m.Normals[i*3], m.Normals[i*3+1], m.Normals[i*3+2])
		} else {
			fmt.Fprintf(&b, "%g %g %g\n", m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2])
		}
	}
	for i := 0; i+2 < len(m.Indices); i += 3 {
		fmt.Fprintf(&b, "3 %d %d %d\n", m.Indices[i], m.Indices[i+1], m.Indices[i+2])
	}
	return []byte(b.String()), nil
}
