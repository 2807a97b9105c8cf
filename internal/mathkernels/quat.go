package mathkernels

import "math"

// Quat is a packed (x, y, z, w) quaternion, w last — the common
// convention matched by spec.md's quat_to_matrix/matrix_to_quat pair.
type Quat [4]float32

// QuatMultiply computes the Hamilton product a*b.
func QuatMultiply(a, b *Quat) Quat {
	ax, ay, az, aw := a[0], a[1], a[2], a[3]
	bx, by, bz, bw := b[0], b[1], b[2], b[3]
	return Quat{
		aw*bx + ax*bw + ay*bz - az*by,
		aw*by - ax*bz + ay*bw + az*bx,
		aw*bz + ax*by - ay*bx + az*bw,
		aw*bw - ax*bx - ay*by - az*bz,
	}
}

func quatDot(a, b *Quat) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
}

func quatNormalized(q Quat) Quat {
	n := float32(math.Sqrt(float64(quatDot(&q, &q))))
	if n == 0 {
		return q
	}
	for i := range q {
		q[i] /= n
	}
	return q
}

// nearColinearDot is the slerp-to-lerp fallback threshold from spec.md
// §4.3.
const nearColinearDot = 0.9995

// QuatSlerp performs shortest-arc spherical linear interpolation between
// normalized quaternions a and b, with t clamped to [0,1]. When
// dot(a,b) < 0 one operand is negated to take the shorter arc; when the
// operands are nearly colinear (dot > 0.9995) it falls back to
// normalized lerp to avoid the numerically unstable slerp formula near
// sin(theta) == 0.
func QuatSlerp(a, b Quat, t float32) Quat {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	dot := quatDot(&a, &b)
	if dot < 0 {
		dot = -dot
		for i := range b {
			b[i] = -b[i]
		}
	}

	if dot > nearColinearDot {
		var out Quat
		for i := range out {
			out[i] = a[i] + t*(b[i]-a[i])
		}
		return quatNormalized(out)
	}

	theta0 := math.Acos(float64(dot))
	sinTheta0 := math.Sin(theta0)
	theta := theta0 * float64(t)
	sinTheta := math.Sin(theta)

	s0 := float32(math.Sin(theta0-theta) / sinTheta0)
	s1 := float32(sinTheta / sinTheta0)

	var out Quat
	for i := range out {
		out[i] = s0*a[i] + s1*b[i]
	}
	return out
}

// QuatToMatrix converts a unit quaternion to a right-handed rotation
// matrix.
func QuatToMatrix(q Quat) Mat4 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	x2, y2, z2 := x+x, y+y, z+z
	xx, yy, zz := x*x2, y*y2, z*z2
	xy, xz, yz := x*y2, x*z2, y*z2
	wx, wy, wz := w*x2, w*y2, w*z2

	m := Identity4()
	m[0] = 1 - (yy + zz)
	m[1] = xy + wz
	m[2] = xz - wy

	m[4] = xy - wz
	m[5] = 1 - (xx + zz)
	m[6] = yz + wx

	m[8] = xz + wy
	m[9] = yz - wx
	m[10] = 1 - (xx + yy)
	return m
}

// MatrixToQuat converts a right-handed rotation matrix to a unit
// quaternion using the standard trace-based branch selection.
func MatrixToQuat(m Mat4) Quat {
	m00, m11, m22 := m[0], m[5], m[10]
	trace := m00 + m11 + m22

	var q Quat
	switch {
	case trace > 0:
		s := float32(0.5 / math.Sqrt(float64(trace+1)))
		q[3] = 0.25 / s
		q[0] = (m[6] - m[9]) * s
		q[1] = (m[8] - m[2]) * s
		q[2] = (m[1] - m[4]) * s
	case m00 > m11 && m00 > m22:
		s := float32(2 * math.Sqrt(float64(1+m00-m11-m22)))
		q[3] = (m[6] - m[9]) / s
		q[0] = 0.25 * s
		q[1] = (m[4] + m[1]) / s
		q[2] = (m[8] + m[2]) / s
	case m11 > m22:
		s := float32(2 * math.Sqrt(float64(1+m11-m00-m22)))
		q[3] = (m[8] - m[2]) / s
		q[0] = (m[4] + m[1]) / s
		q[1] = 0.25 * s
		q[2] = (m[6] + m[9]) / s
	default:
		s := float32(2 * math.Sqrt(float64(1+m22-m00-m11)))
		q[3] = (m[1] - m[4]) / s
		q[0] = (m[8] + m[2]) / s
		q[1] = (m[6] + m[9]) / s
		q[2] = 0.25 * s
	}
	return quatNormalized(q)
}
