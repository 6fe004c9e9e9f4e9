package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a rotation followed by a translation, stored as a unit quaternion and a point.
type Pose struct {
	Orientation quat.Number
	Point       r3.Vector
}

// NewZeroPose returns a pose at the origin with no rotation.
func NewZeroPose() Pose {
	return Pose{Orientation: quat.Number{Real: 1}}
}

// NewPose creates a pose; the orientation is normalized.
func NewPose(point r3.Vector, orientation quat.Number) Pose {
	return Pose{Orientation: QuatNormalize(orientation), Point: point}
}

// PoseFromTransform extracts the pose of a homogeneous transform.
func PoseFromTransform(t Transform) Pose {
	return Pose{Orientation: t.Rotation(), Point: t.Translation()}
}

// Transform returns the pose as a homogeneous transform.
func (p Pose) Transform() Transform {
	return NewTransform(p.Orientation, p.Point)
}

// Array returns the pose as [qw, qx, qy, qz, x, y, z].
func (p Pose) Array() [7]float64 {
	return [7]float64{
		p.Orientation.Real, p.Orientation.Imag, p.Orientation.Jmag, p.Orientation.Kmag,
		p.Point.X, p.Point.Y, p.Point.Z,
	}
}
