package meshkernels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cubeMesh returns an 8-vertex, 12-triangle unit cube.
func cubeMesh() *Mesh {
	verts := []float32{
		0, 0, 0, // 0
		1, 0, 0, // 1
		1, 1, 0, // 2
		0, 1, 0, // 3
		0, 0, 1, // 4
		1, 0, 1, // 5
		1, 1, 1, // 6
		0, 1, 1, // 7
	}
	indices := []uint32{
		0, 1, 2, 0, 2, 3, // front (-z)
		5, 4, 7, 5, 7, 6, // back (+z)
		4, 0, 3, 4, 3, 7, // left (-x)
		1, 5, 6, 1, 6, 2, // right (+x)
		3, 2, 6, 3, 6, 7, // top (+y)
		4, 5, 1, 4, 1, 0, // bottom (-y)
	}
	return &Mesh{Vertices: verts, Indices: indices}
}

func TestMeshValid(t *testing.T) {
	m := cubeMesh()
	assert.True(t, m.Valid())
	assert.Equal(t, 8, m.VertexCount())
	assert.Equal(t, 12, m.TriangleCount())
}

func TestComputeNormalsUnitLength(t *testing.T) {
	m := cubeMesh()
	normals, err := ComputeNormals(m)
	require.NoError(t, err)
	for i := 0; i < len(normals); i += 3 {
		n := normals[i]*normals[i] + normals[i+1]*normals[i+1] + normals[i+2]*normals[i+2]
		assert.InDelta(t, 1.0, float64(n), 1e-4)
	}
}

// TestDecimateQEMInvariants is property 2 from spec.md §8: decimated
// output never contains an index >= vertex_count or a degenerate
// triangle, and the triangle count moves toward the target ratio.
func TestDecimateQEMInvariants(t *testing.T) {
	m := cubeMesh()
	result, err := DecimateQEM(m, 0.5, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.LessOrEqual(t, result.IndexCount/3, m.TriangleCount())

	for i := 0; i+2 < len(result.Indices); i += 3 {
		a, b, c := result.Indices[i], result.Indices[i+1], result.Indices[i+2]
		assert.Less(t, int(a), result.VertexCount)
		assert.Less(t, int(b), result.VertexCount)
		assert.Less(t, int(c), result.VertexCount)
		assert.NotEqual(t, a, b)
		assert.NotEqual(t, b, c)
		assert.NotEqual(t, a, c)
	}
}

func TestDecimateQEMRejectsInvalidRatio(t *testing.T) {
	m := cubeMesh()
	_, err := DecimateQEM(m, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = DecimateQEM(m, 1.5, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

// TestDecimateQEMCancellation is end-to-end scenario 6 from spec.md
// §8: cancelling on the first poll aborts with no partial output.
func TestDecimateQEMCancellation(t *testing.T) {
	m := cubeMesh()
	_, err := DecimateQEM(m, 0.5, func() bool { return true })
	assert.ErrorIs(t, err, ErrCancelled)
}

// TestWeldMergesCoincidentVertices checks that two vertices 1e-4 apart
// merge under a 0.01 weld tolerance while a distant third stays apart.
func TestWeldMergesCoincidentVertices(t *testing.T) {
	m := &Mesh{
		Vertices: []float32{
			0, 0, 0,
			0, 0, 0.0001,
			1, 0, 0,
		},
		Indices: []uint32{0, 1, 2},
	}
	result, err := Weld(m, 0.01)
	require.NoError(t, err)
	assert.Equal(t, 2, len(result.Vertices)/3)
}

func TestWeldDropsDegenerateTriangles(t *testing.T) {
	m := &Mesh{
		Vertices: []float32{
			0, 0, 0,
			0, 0, 0.0001,
			0, 0, 0.0002,
		},
		Indices: []uint32{0, 1, 2},
	}
	result, err := Weld(m, 0.01)
	require.NoError(t, err)
	assert.Equal(t, 1, len(result.Vertices)/3)
	assert.Empty(t, result.Indices)
}

func TestWeldRejectsInvalidTolerance(t *testing.T) {
	m := cubeMesh()
	_, err := Weld(m, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestOptimizeVertexCachePreservesTriangleSet(t *testing.T) {
	m := cubeMesh()
	reordered, err := OptimizeVertexCache(m, 0)
	require.NoError(t, err)
	assert.Equal(t, len(m.Indices), len(reordered))

	orig := make(map[[3]uint32]int)
	for i := 0; i+2 < len(m.Indices); i += 3 {
		orig[[3]uint32{m.Indices[i], m.Indices[i+1], m.Indices[i+2]}]++
	}
	got := make(map[[3]uint32]int)
	for i := 0; i+2 < len(reordered); i += 3 {
		got[[3]uint32{reordered[i], reordered[i+1], reordered[i+2]}]++
	}
	assert.Equal(t, orig, got)
}
