package meshio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixiejuice/engine/internal/meshkernels"
)

func triangleMesh() *meshkernels.Mesh {
	return &meshkernels.Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Indices:  []uint32{0, 1, 2},
	}
}

func TestOBJRoundTrip(t *testing.T) {
	m := triangleMesh()
	encoded, err := EncodeOBJ(m)
	require.NoError(t, err)
	decoded, err := DecodeOBJ(encoded)
	require.NoError(t, err)
	assert.Equal(t, m.Vertices, decoded.Vertices)
	assert.Equal(t, m.Indices, decoded.Indices)
}

func TestOBJRejectsMalformed(t *testing.T) {
	_, err := DecodeOBJ([]byte("not an obj file\n"))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestSTLRoundTrip(t *testing.T) {
	m := triangleMesh()
	encoded, err := EncodeSTL(m)
	require.NoError(t, err)
	decoded, err := DecodeSTL(encoded)
	require.NoError(t, err)
	assert.InDeltaSlice(t, m.Vertices, decoded.Vertices, 1e-5)
	assert.Equal(t, m.Indices, decoded.Indices)
}

func TestSTLRejectsTruncated(t *testing.T) {
	_, err := DecodeSTL(make([]byte, 10))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestPLYRoundTrip(t *testing.T) {
	m := triangleMesh()
	encoded, err := EncodePLY(m)
	require.NoError(t, err)
	decoded, err := DecodePLY(encoded)
	require.NoError(t, err)
	assert.InDeltaSlice(t, m.Vertices, decoded.Vertices, 1e-5)
	assert.Equal(t, m.Indices, decoded.Indices)
}

func TestGLTFRoundTrip(t *testing.T) {
	m := triangleMesh()
	encoded, err := EncodeGLTF(m)
	require.NoError(t, err)
	decoded, err := DecodeGLTF(encoded)
	require.NoError(t, err)
	assert.InDeltaSlice(t, m.Vertices, decoded.Vertices, 1e-5)
	assert.Equal(t, m.Indices, decoded.Indices)
}

func TestGLTFRejectsInvalidJSON(t *testing.T) {
	_, err := DecodeGLTF([]byte("not json"))
	assert.ErrorIs(t, err, ErrMalformed)
}
