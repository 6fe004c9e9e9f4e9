package spatialmath

import (
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// SpaceDelimitedFloats splits up space-delimited fields in scene files, such as translation or
// rotationaxis elements. Unparseable fields become NaN.
func SpaceDelimitedFloats(s string) []float64 {
	var converted []float64
	for _, field := range strings.Fields(s) {
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			value = math.NaN()
		}
		converted = append(converted, value)
	}
	return converted
}

// ParseVector parses "x y z".
func ParseVector(s string) (r3.Vector, error) {
	values := SpaceDelimitedFloats(s)
	if len(values) != 3 {
		return r3.Vector{}, errors.Errorf("expected 3 values in %q, got %d", s, len(values))
	}
	for _, v := range values {
		if math.IsNaN(v) {
			return r3.Vector{}, errors.Errorf("cannot parse vector %q", s)
		}
	}
	return r3.Vector{X: values[0], Y: values[1], Z: values[2]}, nil
}

// ParseRotationAxis parses "ax ay az degrees" into an axis-angle.
func ParseRotationAxis(s string) (*R4AA, error) {
	values := SpaceDelimitedFloats(s)
	if len(values) != 4 {
		return nil, errors.Errorf("expected 4 values in rotation axis %q, got %d", s, len(values))
	}
	for _, v := range values {
		if math.IsNaN(v) {
			return nil, errors.Errorf("cannot parse rotation axis %q", s)
		}
	}
	return AxisAngleFromDegrees(r3.Vector{X: values[0], Y: values[1], Z: values[2]}, values[3]), nil
}
