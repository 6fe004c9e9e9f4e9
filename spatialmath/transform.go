package spatialmath

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Transform is a 4x4 homogeneous rigid transform.
type Transform struct {
	mat mgl64.Mat4
}

// NewIdentityTransform returns the transform that changes nothing.
func NewIdentityTransform() Transform {
	return Transform{mgl64.Ident4()}
}

// NewTransform builds a transform from a rotation and a translation.
func NewTransform(rotation quat.Number, translation r3.Vector) Transform {
	q := QuatNormalize(rotation)
	m := mgl64.Quat{W: q.Real, V: mgl64.Vec3{q.Imag, q.Jmag, q.Kmag}}.Mat4()
	m.Set(0, 3, translation.X)
	m.Set(1, 3, translation.Y)
	m.Set(2, 3, translation.Z)
	return Transform{m}
}

// NewTransformFromRows builds a transform from row-major elements. Exactly 16 values are required.
func NewTransformFromRows(rows []float64) (Transform, error) {
	if len(rows) != 16 {
		return Transform{}, fmt.Errorf("transform needs 16 elements, got %d", len(rows))
	}
	var m mgl64.Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			m.Set(row, col, rows[row*4+col])
		}
	}
	return Transform{m}, nil
}

// MatrixFromAxisAngle returns the pure rotation described by an R3 axis-angle vector.
func MatrixFromAxisAngle(aa r3.Vector) Transform {
	r4 := R3ToR4(aa)
	if r4.Theta == 0 {
		return NewIdentityTransform()
	}
	return Transform{mgl64.HomogRotate3D(r4.Theta, mgl64.Vec3{r4.RX, r4.RY, r4.RZ})}
}

// MatrixFromTranslation returns the pure translation by v.
func MatrixFromTranslation(v r3.Vector) Transform {
	return Transform{mgl64.Translate3D(v.X, v.Y, v.Z)}
}

// At returns the element at row, col.
func (t Transform) At(row, col int) float64 {
	return t.mat.At(row, col)
}

// Elements returns the 16 elements in row-major order.
func (t Transform) Elements() []float64 {
	out := make([]float64, 0, 16)
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			out = append(out, t.mat.At(row, col))
		}
	}
	return out
}

// Translation returns the translation column.
func (t Transform) Translation() r3.Vector {
	return r3.Vector{X: t.mat.At(0, 3), Y: t.mat.At(1, 3), Z: t.mat.At(2, 3)}
}

// WithTranslation returns a copy of t whose translation column is v.
func (t Transform) WithTranslation(v r3.Vector) Transform {
	m := t.mat
	m.Set(0, 3, v.X)
	m.Set(1, 3, v.Y)
	m.Set(2, 3, v.Z)
	return Transform{m}
}

// Rotation returns the rotation part as a unit quaternion.
func (t Transform) Rotation() quat.Number {
	q := mgl64.Mat4ToQuat(t.mat).Normalize()
	return quat.Number{Real: q.W, Imag: q.V[0], Jmag: q.V[1], Kmag: q.V[2]}
}

// Compose returns t * other, i.e. other expressed in the frame of t.
func (t Transform) Compose(other Transform) Transform {
	return Transform{t.mat.Mul4(other.mat)}
}

// TransformPoint maps a point through the transform.
func (t Transform) TransformPoint(p r3.Vector) r3.Vector {
	v := t.mat.Mul4x1(mgl64.Vec4{p.X, p.Y, p.Z, 1})
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// TransformPoints maps every point through the transform.
func (t Transform) TransformPoints(points []r3.Vector) []r3.Vector {
	out := make([]r3.Vector, 0, len(points))
	for _, p := range points {
		out = append(out, t.TransformPoint(p))
	}
	return out
}

// ApproxEqual reports whether every element differs by at most epsilon.
func (t Transform) ApproxEqual(other Transform, epsilon float64) bool {
	return t.mat.ApproxEqualThreshold(other.mat, epsilon)
}

func (t Transform) String() string {
	return t.mat.String()
}
