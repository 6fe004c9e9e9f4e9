// Package testutils holds fixtures and randomized geometry helpers shared by simulation tests.
package testutils

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/num/quat"

	"github.com/osbertngok/openrave/sim"
	"github.com/osbertngok/openrave/spatialmath"
)

// TransDist is the summed L1 distance between the elements of paired transforms.
func TransDist(a, b []spatialmath.Transform) (float64, error) {
	if len(a) != len(b) {
		return 0, errors.Errorf("transform count mismatch: %d != %d", len(a), len(b))
	}
	var dist float64
	for i := range a {
		dist += floats.Distance(a[i].Elements(), b[i].Elements(), 1)
	}
	return dist, nil
}

// AxisAngleDist compares two axis-angle rotations through their quaternions. The result is in
// [0, pi/2] and ignores quaternion sign.
func AxisAngleDist(a, b r3.Vector) float64 {
	return spatialmath.QuatAngleBetween(spatialmath.QuatFromAxisAngle(a), spatialmath.QuatFromAxisAngle(b))
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func randVector(rng *rand.Rand, lo, hi float64) r3.Vector {
	return r3.Vector{X: uniform(rng, lo, hi), Y: uniform(rng, lo, hi), Z: uniform(rng, lo, hi)}
}

// RandTrans returns a transform rotated by an axis-angle drawn from [-3, 3)^3 and translated by a
// point drawn from [-0.5, 0.5)^3.
func RandTrans(rng *rand.Rand) spatialmath.Transform {
	rotation := spatialmath.MatrixFromAxisAngle(randVector(rng, -3, 3))
	return rotation.WithTranslation(randVector(rng, -0.5, 0.5))
}

// RandQuat returns n unit quaternions. Components are drawn from [-0.5, 0.5) and draws that
// cannot be normalized are thrown away.
func RandQuat(rng *rand.Rand, n int) []quat.Number {
	out := make([]quat.Number, 0, n)
	for len(out) < n {
		q := quat.Number{
			Real: uniform(rng, -0.5, 0.5),
			Imag: uniform(rng, -0.5, 0.5),
			Jmag: uniform(rng, -0.5, 0.5),
			Kmag: uniform(rng, -0.5, 0.5),
		}
		norm := quat.Abs(q)
		if norm == 0 || math.IsNaN(norm) {
			continue
		}
		out = append(out, quat.Scale(1/norm, q))
	}
	return out
}

// RandPose returns n poses with random unit orientations and positions in [-0.5, 0.5)^3.
func RandPose(rng *rand.Rand, n int) []spatialmath.Pose {
	orientations := RandQuat(rng, n)
	out := make([]spatialmath.Pose, 0, n)
	for _, q := range orientations {
		out = append(out, spatialmath.NewPose(randVector(rng, -0.5, 0.5), q))
	}
	return out
}

// RandLimits draws one value per axis uniformly between lower and upper.
func RandLimits(rng *rand.Rand, lower, upper []float64) ([]float64, error) {
	if len(lower) != len(upper) {
		return nil, errors.Errorf("limit length mismatch: %d != %d", len(lower), len(upper))
	}
	out := make([]float64, len(lower))
	for i := range lower {
		if lower[i] > upper[i] {
			return nil, errors.Errorf("axis %d: lower limit %v above upper limit %v", i, lower[i], upper[i])
		}
		out[i] = uniform(rng, lower[i], upper[i])
	}
	return out, nil
}

// BodyMaxJointDist is the length of the arm that ends at local, a point in the frame of link: the
// distance from that point to the nearest joint anchor plus the distances between consecutive
// anchors back to the root of body.
func BodyMaxJointDist(body sim.KinBody, link sim.Link, local r3.Vector) (float64, error) {
	chain := body.Chain(link)
	if len(chain) == 0 {
		return 0, errors.Errorf("link %q has no joints to the root of %q", link.Name(), body.Name())
	}
	current := link.Transform().TransformPoint(local)
	var length float64
	for _, j := range chain {
		anchor := j.Anchor()
		length += current.Distance(anchor)
		current = anchor
	}
	return length, nil
}
