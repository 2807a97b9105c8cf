package mathkernels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVec3Add(t *testing.T) {
	a := []float32{1, 2, 3, 4, 5, 6}
	b := []float32{1, 1, 1, 1, 1, 1}
	out := make([]float32, 6)
	require.NoError(t, Vec3Add(a, b, out))
	assert.Equal(t, []float32{2, 3, 4, 5, 6, 7}, out)
}

func TestVec3AddInvalidArgument(t *testing.T) {
	out := make([]float32, 3)
	assert.ErrorIs(t, Vec3Add(nil, nil, out), ErrInvalidArgument)
	assert.ErrorIs(t, Vec3Add([]float32{1, 2, 3}, []float32{1, 2}, out), ErrInvalidArgument)
}

func TestVec3Dot(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0, 1, 0}
	out := make([]float32, 1)
	require.NoError(t, Vec3Dot(a, b, out))
	assert.Equal(t, float32(0), out[0])
}

func TestVec3CrossRightHanded(t *testing.T) {
	x := []float32{1, 0, 0}
	y := []float32{0, 1, 0}
	out := make([]float32, 3)
	require.NoError(t, Vec3Cross(x, y, out))
	assert.Equal(t, []float32{0, 0, 1}, out)
}

func TestVec3NormalizeZeroPassesThrough(t *testing.T) {
	v := []float32{0, 0, 0}
	require.NoError(t, Vec3Normalize(v))
	assert.Equal(t, []float32{0, 0, 0}, v)
}

func TestVec3NormalizeUnitLength(t *testing.T) {
	v := []float32{3, 4, 0}
	require.NoError(t, Vec3Normalize(v))
	assert.InDelta(t, 1.0, float64(v[0]*v[0]+v[1]*v[1]+v[2]*v[2]), 1e-5)
}

func TestMat4MultiplyIdentity(t *testing.T) {
	id := Identity4()
	m := Mat4{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	var out Mat4
	Mat4Multiply(&id, &m, &out)
	assert.Equal(t, m, out)
}

// TestMat4MultiplyBatchIdentity is end-to-end scenario 5 from spec.md §8:
// a 4x4 identity matrix batch-multiplied with itself many times equals
// identity within 1e-6.
func TestMat4MultiplyBatchIdentity(t *testing.T) {
	const n = 1024
	id := Identity4()
	a := make([]Mat4, n)
	b := make([]Mat4, n)
	out := make([]Mat4, n)
	for i := range a {
		a[i] = id
		b[i] = id
	}
	require.NoError(t, Mat4MultiplyBatch(a, b, out))
	for i := range out {
		for k := range out[i] {
			assert.InDelta(t, float64(id[k]), float64(out[i][k]), 1e-6)
		}
	}
}

func TestMat4InverseSingularLeavesInputUntouched(t *testing.T) {
	m := Mat4{} // all zero, det == 0
	orig := m
	ok := Mat4Inverse(&m)
	assert.False(t, ok)
	assert.Equal(t, orig, m)
}

func TestMat4InverseRoundTrip(t *testing.T) {
	m := Identity4()
	m[12], m[13], m[14] = 1, 2, 3 // translation
	inv := m
	ok := Mat4Inverse(&inv)
	require.True(t, ok)

	var product Mat4
	Mat4Multiply(&m, &inv, &product)
	id := Identity4()
	for i := range product {
		assert.InDelta(t, float64(id[i]), float64(product[i]), 1e-4)
	}
}

func TestTransformPointsAppliesTranslation(t *testing.T) {
	m := Identity4()
	m[12], m[13], m[14] = 1, 2, 3
	pts := []float32{0, 0, 0}
	out := make([]float32, 3)
	require.NoError(t, TransformPoints(&m, pts, out))
	assert.Equal(t, []float32{1, 2, 3}, out)
}

func TestTransformVectorsIgnoresTranslation(t *testing.T) {
	m := Identity4()
	m[12], m[13], m[14] = 1, 2, 3
	vecs := []float32{5, 6, 7}
	out := make([]float32, 3)
	require.NoError(t, TransformVectors(&m, vecs, out))
	assert.Equal(t, []float32{5, 6, 7}, out)
}

func TestTransformPointsBatchCartesianProduct(t *testing.T) {
	id := Identity4()
	shift := Identity4()
	shift[12] = 10
	ms := []Mat4{id, shift}
	pts := []float32{1, 1, 1, 2, 2, 2}
	out := make([]float32, len(ms)*len(pts))
	require.NoError(t, TransformPointsBatch(ms, pts, out))
	assert.Equal(t, []float32{1, 1, 1, 2, 2, 2}, out[:6])
	assert.Equal(t, []float32{11, 1, 1, 12, 2, 2}, out[6:])
}

// TestQuatSlerpNormalization is property 6 from spec.md §8.
func TestQuatSlerpNormalization(t *testing.T) {
	a := quatNormalized(Quat{0, 0, 0, 1})
	b := quatNormalized(Quat{0, 0.7071, 0.7071, 0})
	for tStep := 0; tStep <= 10; tStep++ {
		tt := float32(tStep) / 10
		out := QuatSlerp(a, b, tt)
		n := quatDot(&out, &out)
		assert.InDelta(t, 1.0, float64(n), 1e-5)
	}
}

func TestQuatSlerpEndpoints(t *testing.T) {
	a := quatNormalized(Quat{1, 0, 0, 0})
	b := quatNormalized(Quat{0, 1, 0, 0})
	assert.Equal(t, a, QuatSlerp(a, b, 0))
	assert.Equal(t, b, QuatSlerp(a, b, 1))
}

func TestQuatToMatrixAndBackRoundTrip(t *testing.T) {
	q := quatNormalized(Quat{0.1, 0.2, 0.3, 0.9})
	m := QuatToMatrix(q)
	q2 := MatrixToQuat(m)
	// Quaternions double-cover rotations; allow either sign.
	same := true
	for i := range q {
		if absf(q[i]-q2[i]) > 1e-4 {
			same = false
			break
		}
	}
	if !same {
		for i := range q2 {
			q2[i] = -q2[i]
		}
	}
	for i := range q {
		assert.InDelta(t, float64(q[i]), float64(q2[i]), 1e-4)
	}
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestHasWideKernelsDoesNotPanic(t *testing.T) {
	_ = HasWideKernels()
	out := make([]float32, 3)
	require.NoError(t, Dispatch.Vec3Add([]float32{1, 2, 3}, []float32{1, 1, 1}, out))
	assert.Equal(t, []float32{2, 3, 4}, out)
}
