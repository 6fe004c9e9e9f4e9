package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// QuatDot returns the 4D dot product of two quaternions.
func QuatDot(q1, q2 quat.Number) float64 {
	return q1.Real*q2.Real + q1.Imag*q2.Imag + q1.Jmag*q2.Jmag + q1.Kmag*q2.Kmag
}

// QuatNormalize returns q scaled to unit length. The zero quaternion maps to the identity.
func QuatNormalize(q quat.Number) quat.Number {
	norm := quat.Abs(q)
	if norm == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/norm, q)
}

// QuatAngleBetween returns the rotation angle between two unit quaternions, folded into
// [0, pi/2] so that q and -q are treated as the same rotation.
func QuatAngleBetween(q1, q2 quat.Number) float64 {
	return math.Acos(math.Min(1.0, math.Abs(QuatDot(q1, q2))))
}

// QuaternionAlmostEqual is an equality test for all the float components of a quaternion. Quaternions have double coverage, q == -q, and
// this function will *not* account for this.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	return Float64AlmostEqual(a.Imag, b.Imag, tol) &&
		Float64AlmostEqual(a.Jmag, b.Jmag, tol) &&
		Float64AlmostEqual(a.Kmag, b.Kmag, tol) &&
		Float64AlmostEqual(a.Real, b.Real, tol)
}

// Float64AlmostEqual compares two float64s and returns if the difference between them is less than epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}
