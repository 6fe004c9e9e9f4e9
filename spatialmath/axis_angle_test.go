package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestAxisAngleToQuat(t *testing.T) {
	data := []R4AA{
		{1, 1, 1, 1},
		{1, 1, 0, 0},
		{1, 0, 1, 0},
		{1, 0, 0, 1},
	}

	// Quaternion [x, y, z, w]
	// from https://www.andre-gaschler.com/rotationconverter/
	qc := [][]float64{
		{0.2767965, 0.2767965, 0.2767965, 0.8775826},
		{0.4794255, 0, 0, 0.8775826},
		{0, 0.4794255, 0, 0.8775826},
		{0, 0, 0.4794255, 0.8775826},
	}

	for idx, d := range data {
		q := d.ToQuat()
		test.That(t, q.Real, test.ShouldAlmostEqual, qc[idx][3], .00001)
		test.That(t, q.Imag, test.ShouldAlmostEqual, qc[idx][0], .00001)
		test.That(t, q.Jmag, test.ShouldAlmostEqual, qc[idx][1], .00001)
		test.That(t, q.Kmag, test.ShouldAlmostEqual, qc[idx][2], .00001)
		test.That(t, quat.Abs(q), test.ShouldAlmostEqual, 1.0)
	}
}

func TestR3ToR4(t *testing.T) {
	r4 := R3ToR4(r3.Vector{X: 0, Y: 0, Z: math.Pi / 2})
	test.That(t, r4.Theta, test.ShouldAlmostEqual, math.Pi/2)
	test.That(t, r4.RZ, test.ShouldAlmostEqual, 1)
	test.That(t, r4.ToR3().Z, test.ShouldAlmostEqual, math.Pi/2)

	zero := R3ToR4(r3.Vector{})
	test.That(t, zero, test.ShouldResemble, NewR4AA())
	test.That(t, QuatFromAxisAngle(r3.Vector{}), test.ShouldResemble, quat.Number{Real: 1})
}

func TestNormalizeZeroAxis(t *testing.T) {
	r4 := &R4AA{Theta: 1}
	test.That(t, r4.Normalize(), test.ShouldBeFalse)
	test.That(t, r4.ToQuat(), test.ShouldResemble, quat.Number{Real: 1})
}

func TestQuatAngleBetween(t *testing.T) {
	q := QuatFromAxisAngle(r3.Vector{X: 0.3, Y: -1, Z: 2})
	test.That(t, QuatAngleBetween(q, q), test.ShouldAlmostEqual, 0)
	test.That(t, QuatAngleBetween(q, quat.Scale(-1, q)), test.ShouldAlmostEqual, 0)

	// a quarter turn about z is half that angle in quaternion space
	qz := QuatFromAxisAngle(r3.Vector{Z: math.Pi / 2})
	test.That(t, QuatAngleBetween(quat.Number{Real: 1}, qz), test.ShouldAlmostEqual, math.Pi/4)
}

func TestParseRotationAxis(t *testing.T) {
	r4, err := ParseRotationAxis("0 1 0 -90")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r4.Theta, test.ShouldAlmostEqual, -math.Pi/2)
	test.That(t, r4.RY, test.ShouldAlmostEqual, 1)

	_, err = ParseRotationAxis("0 1 0")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = ParseRotationAxis("0 1 z 90")
	test.That(t, err, test.ShouldNotBeNil)

	v, err := ParseVector(" 0 -0.2  0 ")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldResemble, r3.Vector{X: 0, Y: -0.2, Z: 0})
}
