package mathkernels

// Mat4 is a column-major 4x4 matrix stored as 16 float32s:
//
//	[ m0  m4  m8  m12 ]
//	[ m1  m5  m9  m13 ]
//	[ m2  m6  m10 m14 ]
//	[ m3  m7  m11 m15 ]
//
// Column-major layout is load-bearing for batched matmul per spec.md
// §4.3: kernels broadcast a row of A and multiply by columns of B.
type Mat4 [16]float32

// Identity4 returns the 4x4 identity matrix.
func Identity4() Mat4 {
	return Mat4{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
}

// Mat4Multiply computes result = A·B (column-major).
func Mat4Multiply(a, b, result *Mat4) {
	var r Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			r[col*4+row] = sum
		}
	}
	*result = r
}

// Mat4MultiplyBatch computes result[i] = a[i]·b[i] for parallel arrays
// of matrices.
func Mat4MultiplyBatch(a, b, result []Mat4) error {
	if len(a) != len(b) || len(a) != len(result) || len(a) == 0 {
		return ErrInvalidArgument
	}
	for i := range a {
		Mat4Multiply(&a[i], &b[i], &result[i])
	}
	return nil
}

// Mat4Transpose transposes m in place.
func Mat4Transpose(m *Mat4) {
	for col := 0; col < 4; col++ {
		for row := col + 1; row < 4; row++ {
			m[col*4+row], m[row*4+col] = m[row*4+col], m[col*4+row]
		}
	}
}

// Mat4Det returns the determinant of m.
func Mat4Det(m *Mat4) float32 {
	a, b, c, d := m[0], m[4], m[8], m[12]
	e, f, g, h := m[1], m[5], m[9], m[13]
	i, j, k, l := m[2], m[6], m[10], m[14]
	n, o, p, q := m[3], m[7], m[11], m[15]

	kq_lp := k*q - l*p
	jq_lo := j*q - l*o
	jp_ko := j*p - k*o
	iq_ln := i*q - l*n
	ip_kn := i*p - k*n
	io_jn := i*o - j*n

	return a*(f*kq_lp-g*jq_lo+h*jp_ko) -
		b*(e*kq_lp-g*iq_ln+h*ip_kn) +
		c*(e*jq_lo-f*iq_ln+h*io_jn) -
		d*(e*jp_ko-f*ip_kn+g*io_jn)
}

// Mat4Inverse computes the inverse of m in place via the adjugate
// matrix. If |det| < 1e-12 it returns false and leaves m untouched, per
// spec.md §4.3.
func Mat4Inverse(m *Mat4) bool {
	det := Mat4Det(m)
	if det < 0 {
		det = -det
	}
	if det < 1e-12 {
		return false
	}

	a, b, c, d := m[0], m[4], m[8], m[12]
	e, f, g, h := m[1], m[5], m[9], m[13]
	i, j, k, l := m[2], m[6], m[10], m[14]
	n, o, p, q := m[3], m[7], m[11], m[15]

	var inv Mat4
	invDet := 1 / Mat4Det(m)

	cof := func(r00, r01, r02, r10, r11, r12, r20, r21, r22 float32) float32 {
		return r00*(r11*r22-r12*r21) - r01*(r10*r22-r12*r20) + r02*(r10*r21-r11*r20)
	}

	inv[0] = cof(f, g, h, j, k, l, o, p, q) * invDet
	inv[4] = -cof(b, c, d, j, k, l, o, p, q) * invDet
	inv[8] = cof(b, c, d, f, g, h, o, p, q) * invDet
	inv[12] = -cof(b, c, d, f, g, h, j, k, l) * invDet

	inv[1] = -cof(e, g, h, i, k, l, n, p, q) * invDet
	inv[5] = cof(a, c, d, i, k, l, n, p, q) * invDet
	inv[9] = -cof(a, c, d, e, g, h, n, p, q) * invDet
	inv[13] = cof(a, c, d, e, g, h, i, k, l) * invDet

	inv[2] = cof(e, f, h, i, j, l, n, o, q) * invDet
	inv[6] = -cof(a, b, d, i, j, l, n, o, q) * invDet
	inv[10] = cof(a, b, d, e, f, h, n, o, q) * invDet
	inv[14] = -cof(a, b, d, e, f, h, i, j, l) * invDet

	inv[3] = -cof(e, f, g, i, j, k, n, o, p) * invDet
	inv[7] = cof(a, b, c, i, j, k, n, o, p) * invDet
	inv[11] = -cof(a, b, c, e, f, g, n, o, p) * invDet
	inv[15] = cof(a, b, c, e, f, g, i, j, k) * invDet

	*m = inv
	return true
}

// TransformPoints applies M to each packed (x,y,z) point in pts,
// treating w=1 (translation applies).
func TransformPoints(m *Mat4, pts, out []float32) error {
	n, err := checkVec3(pts, pts)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		o := i * 3
		x, y, z := pts[o], pts[o+1], pts[o+2]
		out[o] = m[0]*x + m[4]*y + m[8]*z + m[12]
		out[o+1] = m[1]*x + m[5]*y + m[9]*z + m[13]
		out[o+2] = m[2]*x + m[6]*y + m[10]*z + m[14]
	}
	return nil
}

// TransformVectors applies M to each packed (x,y,z) vector in vecs,
// treating w=0 (translation is ignored).
func TransformVectors(m *Mat4, vecs, out []float32) error {
	n, err := checkVec3(vecs, vecs)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		o := i * 3
		x, y, z := vecs[o], vecs[o+1], vecs[o+2]
		out[o] = m[0]*x + m[4]*y + m[8]*z
		out[o+1] = m[1]*x + m[5]*y + m[9]*z
		out[o+2] = m[2]*x + m[6]*y + m[10]*z
	}
	return nil
}

// TransformPointsBatch applies each matrix in ms to every point in pts,
// forming the cartesian product. The result is laid out with the outer
// index by matrix: result[i*len(pts)/3 + j] is ms[i] applied to point j.
func TransformPointsBatch(ms []Mat4, pts []float32, out []float32) error {
	numPts, err := checkVec3(pts, pts)
	if err != nil {
		return err
	}
	if len(ms) == 0 {
		return ErrInvalidArgument
	}
	for i := range ms {
		dst := out[i*numPts*3 : (i+1)*numPts*3]
		if err := TransformPoints(&ms[i], pts, dst); err != nil {
			return err
		}
	}
	return nil
}
