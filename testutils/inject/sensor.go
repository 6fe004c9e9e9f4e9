// Package inject provides fakes of the simulation interfaces whose behavior is set per test
// through function fields. A nil function falls back to the embedded implementation.
package inject

import (
	"context"

	"github.com/osbertngok/openrave/sim"
)

// Sensor is an injected sensor.
type Sensor struct {
	sim.Sensor
	NameFunc       func() string
	SupportsFunc   func(typ sim.SensorType) bool
	ConfigureFunc  func(ctx context.Context, cmd sim.ConfigureCommand) error
	SensorDataFunc func(ctx context.Context, typ sim.SensorType) (*sim.SensorData, error)
}

// Name calls the injected Name or the real version.
func (s *Sensor) Name() string {
	if s.NameFunc == nil {
		return s.Sensor.Name()
	}
	return s.NameFunc()
}

// Supports calls the injected Supports or the real version.
func (s *Sensor) Supports(typ sim.SensorType) bool {
	if s.SupportsFunc == nil {
		return s.Sensor.Supports(typ)
	}
	return s.SupportsFunc(typ)
}

// Configure calls the injected Configure or the real version.
func (s *Sensor) Configure(ctx context.Context, cmd sim.ConfigureCommand) error {
	if s.ConfigureFunc == nil {
		return s.Sensor.Configure(ctx, cmd)
	}
	return s.ConfigureFunc(ctx, cmd)
}

// SensorData calls the injected SensorData or the real version.
func (s *Sensor) SensorData(ctx context.Context, typ sim.SensorType) (*sim.SensorData, error) {
	if s.SensorDataFunc == nil {
		return s.Sensor.SensorData(ctx, typ)
	}
	return s.SensorDataFunc(ctx, typ)
}

// NewCamera returns a sensor named name that supports camera data and accepts every configure
// command. SensorDataFunc is left for the test to set.
func NewCamera(name string) *Sensor {
	return &Sensor{
		NameFunc:      func() string { return name },
		SupportsFunc:  func(typ sim.SensorType) bool { return typ == sim.SensorTypeCamera },
		ConfigureFunc: func(ctx context.Context, cmd sim.ConfigureCommand) error { return nil },
	}
}

// AttachedSensor is an injected sensor attachment.
type AttachedSensor struct {
	sim.AttachedSensor
	NameFunc   func() string
	SensorFunc func() sim.Sensor
}

// Name calls the injected Name or the real version.
func (as *AttachedSensor) Name() string {
	if as.NameFunc == nil {
		return as.AttachedSensor.Name()
	}
	return as.NameFunc()
}

// Sensor calls the injected Sensor or the real version.
func (as *AttachedSensor) Sensor() sim.Sensor {
	if as.SensorFunc == nil {
		return as.AttachedSensor.Sensor()
	}
	return as.SensorFunc()
}

// Attach returns an attachment named name holding sensor. A nil sensor stays nil.
func Attach(name string, sensor sim.Sensor) *AttachedSensor {
	return &AttachedSensor{
		NameFunc:   func() string { return name },
		SensorFunc: func() sim.Sensor { return sensor },
	}
}
