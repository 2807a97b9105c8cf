// Package mathkernels implements batched vec3/vec4/mat4/quat math used
// by the mesh pipeline (QEM quadrics, transforms) and by image
// color-space conversion. APIs operate on flat []float32 slices rather
// than slices-of-structs, following the BLAS-style calling convention
// common to the retrieved corpus's numeric kernels (strided flat buffers,
// not allocated-per-element structs).
//
// Every batched function takes equal-length slice arguments (or a
// source plus a scalar); mismatched lengths or empty input are reported
// as InvalidArgument per spec.md §4.3.
package mathkernels

import (
	"errors"
	"math"
)

// ErrInvalidArgument is returned when batched inputs are empty or have
// mismatched lengths.
var ErrInvalidArgument = errors.New("mathkernels: invalid argument")

func checkVec3(a, b []float32) (int, error) {
	if len(a) == 0 || len(a)%3 != 0 || len(a) != len(b) {
		return 0, ErrInvalidArgument
	}
	return len(a) / 3, nil
}

// Vec3Add computes out[i] = a[i] + b[i] componentwise over packed
// (x,y,z) triples.
func Vec3Add(a, b, out []float32) error {
	n, err := checkVec3(a, b)
	if err != nil {
		return err
	}
	for i := 0; i < n*3; i++ {
		out[i] = a[i] + b[i]
	}
	return nil
}

// Vec3Sub computes out[i] = a[i] - b[i] componentwise.
func Vec3Sub(a, b, out []float32) error {
	n, err := checkVec3(a, b)
	if err != nil {
		return err
	}
	for i := 0; i < n*3; i++ {
		out[i] = a[i] - b[i]
	}
	return nil
}

// Vec3MulScalar computes out[i] = a[i] * s componentwise by a scalar.
func Vec3MulScalar(a []float32, s float32, out []float32) error {
	if len(a) == 0 || len(a)%3 != 0 {
		return ErrInvalidArgument
	}
	for i := range a {
		out[i] = a[i] * s
	}
	return nil
}

// Vec3Dot computes the batched dot product Σ xᵢyᵢ for each (a,b) triple
// pair, writing one scalar per triple into out.
func Vec3Dot(a, b, out []float32) error {
	n, err := checkVec3(a, b)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		o := i * 3
		out[i] = a[o]*b[o] + a[o+1]*b[o+1] + a[o+2]*b[o+2]
	}
	return nil
}

// Vec3Cross computes the right-handed cross product for each triple
// pair.
func Vec3Cross(a, b, out []float32) error {
	n, err := checkVec3(a, b)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		o := i * 3
		ax, ay, az := a[o], a[o+1], a[o+2]
		bx, by, bz := b[o], b[o+1], b[o+2]
		out[o] = ay*bz - az*by
		out[o+1] = az*bx - ax*bz
		out[o+2] = ax*by - ay*bx
	}
	return nil
}

// Vec3Normalize normalizes each triple in place. A zero vector is left
// unchanged (no division by zero, no NaN), per spec.md §4.3.
func Vec3Normalize(v []float32) error {
	if len(v) == 0 || len(v)%3 != 0 {
		return ErrInvalidArgument
	}
	n := len(v) / 3
	for i := 0; i < n; i++ {
		o := i * 3
		x, y, z := v[o], v[o+1], v[o+2]
		lenSq := x*x + y*y + z*z
		if lenSq == 0 {
			continue
		}
		inv := float32(1 / math.Sqrt(float64(lenSq)))
		v[o] = x * inv
		v[o+1] = y * inv
		v[o+2] = z * inv
	}
	return nil
}
