package meshio

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math"
	"strings"

	"github.com/pixiejuice/engine/internal/meshkernels"
)

// gltfDoc mirrors only the subset of the glTF 2.0 JSON schema this
// engine needs: a single mesh, a single primitive, POSITION/NORMAL
// accessors, and data-URI-embedded buffers. Binary .glb containers and
// external buffer files are out of scope for this subset.
type gltfDoc struct {
	Buffers     []gltfBuffer     `json:"buffers"`
	BufferViews []gltfBufferView `json:"bufferViews"`
	Accessors   []gltfAccessor   `json:"accessors"`
	Meshes      []gltfMesh       `json:"meshes"`
}

type gltfBuffer struct {
	URI        string `json:"uri"`
	ByteLength int    `json:"byteLength"`
}

type gltfBufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
}

type gltfAccessor struct {
	BufferView    int    `json:"bufferView"`
	ByteOffset    int    `json:"byteOffset"`
	ComponentType int    `json:"componentType"`
	Count         int    `json:"count"`
	Type          string `json:"type"`
}

type gltfMesh struct {
	Primitives []gltfPrimitive `json:"primitives"`
}

type gltfPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    *int           `json:"indices"`
}

const (
	gltfComponentUnsignedShort = 5123
	gltfComponentUnsignedInt   = 5125
	gltfComponentFloat         = 5126
)

// DecodeGLTF parses the embedded-buffer subset of glTF 2.0 described
// above into a Mesh.
func DecodeGLTF(data []byte) (*meshkernels.Mesh, error) {
	var doc gltfDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, ErrMalformed
	}
	if len(doc.Meshes) == 0 || len(doc.Meshes[0].Primitives) == 0 {
		return nil, ErrMalformed
	}
	prim := doc.Meshes[0].Primitives[0]

	buffers := make([][]byte, len(doc.Buffers))
	for i, buf := range doc.Buffers {
		raw, err := decodeDataURI(buf.URI)
		if err != nil {
			return nil, ErrMalformed
		}
		buffers[i] = raw
	}

	readAccessor := func(accIdx int, wantType string) ([]float32, error) {
		if accIdx < 0 || accIdx >= len(doc.Accessors) {
			return nil, ErrMalformed
		}
		acc := doc.Accessors[accIdx]
		if acc.Type != wantType {
			return nil, ErrMalformed
		}
		if acc.BufferView < 0 || acc.BufferView >= len(doc.BufferViews) {
			return nil, ErrMalformed
		}
		bv := doc.BufferViews[acc.BufferView]
		if bv.Buffer < 0 || bv.Buffer >= len(buffers) {
			return nil, ErrMalformed
		}
		base := buffers[bv.Buffer][bv.ByteOffset+acc.ByteOffset:]
		comps := 1
		switch wantType {
		case "VEC3":
			comps = 3
		case "VEC2":
			comps = 2
		}
		out := make([]float32, acc.Count*comps)
		if acc.ComponentType != gltfComponentFloat {
			return nil, ErrMalformed
		}
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(base[i*4:]))
		}
		return out, nil
	}

	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, ErrMalformed
	}
	positions, err := readAccessor(posIdx, "VEC3")
	if err != nil {
		return nil, err
	}

	m := &meshkernels.Mesh{Vertices: positions}

	if nIdx, ok := prim.Attributes["NORMAL"]; ok {
		normals, err := readAccessor(nIdx, "VEC3")
		if err != nil {
			return nil, err
		}
		m.Normals = normals
	}

	if prim.Indices != nil {
		acc := doc.Accessors[*prim.Indices]
		bv := doc.BufferViews[acc.BufferView]
		base := buffers[bv.Buffer][bv.ByteOffset+acc.ByteOffset:]
		indices := make([]uint32, acc.Count)
		switch acc.ComponentType {
		case gltfComponentUnsignedShort:
			for i := range indices {
				indices[i] = uint32(binary.LittleEndian.Uint16(base[i*2:]))
			}
		case gltfComponentUnsignedInt:
			for i := range indices {
				indices[i] = binary.LittleEndian.Uint32(base[i*4:])
			}
		default:
			return nil, ErrMalformed
		}
		m.Indices = indices
	} else {
		m.Indices = make([]uint32, len(positions)/3)
		for i := range m.Indices {
			m.Indices[i] = uint32(i)
		}
	}

	if !m.Valid() {
		return nil, ErrMalformed
	}
	return m, nil
}

func decodeDataURI(uri string) ([]byte, error) {
	const marker = ";base64,"
	i := strings.Index(uri, marker)
	if !strings.HasPrefix(uri, "data:") || i < 0 {
		return nil, ErrMalformed
	}
	return base64.StdEncoding.DecodeString(uri[i+len(marker):])
}

// EncodeGLTF serializes m as a minimal single-primitive glTF document
// with its vertex/index buffers embedded as a base64 data URI.
func EncodeGLTF(m *meshkernels.Mesh) ([]byte, error) {
	if m == nil || !m.Valid() {
		return nil, ErrMalformed
	}
	vc := m.VertexCount()
	ic := len(m.Indices)

	posBytes := make([]byte, vc*12)
	for i, v := range m.Vertices {
		binary.LittleEndian.PutUint32(posBytes[i*4:], math.Float32bits(v))
	}
	idxBytes := make([]byte, ic*4)
	for i, v := range m.Indices {
		binary.LittleEndian.PutUint32(idxBytes[i*4:], v)
	}
	blob := append(append([]byte{}, posBytes...), idxBytes...)
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(blob)

	doc := gltfDoc{
		Buffers: []gltfBuffer{{URI: uri, ByteLength: len(blob)}},
		BufferViews: []gltfBufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: len(posBytes)},
			{Buffer: 0, ByteOffset: len(posBytes), ByteLength: len(idxBytes)},
		},
		Accessors: []gltfAccessor{
			{BufferView: 0, ComponentType: gltfComponentFloat, Count: vc, Type: "VEC3"},
			{BufferView: 1, ComponentType: gltfComponentUnsignedInt, Count: ic, Type: "SCALAR"},
		},
		Meshes: []gltfMesh{{Primitives: []gltfPrimitive{{
			Attributes: map[string]int{"POSITION": 0},
			Indices:    intPtr(1),
		}}}},
	}
	return json.Marshal(doc)
}

func intPtr(v int) *int { return &v }
