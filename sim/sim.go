// Package sim defines the synchronous query interface to a robotics simulation: environments,
// robots, links, joints, attached sensors and controllers.
package sim

import (
	"context"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/osbertngok/openrave/config"
	"github.com/osbertngok/openrave/spatialmath"
)

// SensorType identifies a kind of data a sensor can produce.
type SensorType string

// Sensor types.
const (
	SensorTypeCamera SensorType = "camera"
	SensorTypeLaser  SensorType = "laser"
)

// ConfigureCommand changes the state of a sensor.
type ConfigureCommand int

// Sensor configure commands.
const (
	PowerOn ConfigureCommand = iota
	PowerOff
	RenderDataOn
	RenderDataOff
)

func (c ConfigureCommand) String() string {
	switch c {
	case PowerOn:
		return "PowerOn"
	case PowerOff:
		return "PowerOff"
	case RenderDataOn:
		return "RenderDataOn"
	case RenderDataOff:
		return "RenderDataOff"
	default:
		return "Unknown"
	}
}

// ErrUnsupportedSensorType is returned when a sensor is asked for data it cannot produce.
var ErrUnsupportedSensorType = errors.New("sensor type not supported")

// ImageData is a packed RGB image, 3 bytes per pixel, row-major from the top row.
type ImageData struct {
	Width  int
	Height int
	Pix    []byte
}

// SensorData is one frame of sensor output. Stamp increases whenever the sensor publishes new data.
type SensorData struct {
	Stamp int64
	Image *ImageData
}

// Sensor is a simulated sensor.
type Sensor interface {
	Name() string
	Supports(SensorType) bool
	Configure(ctx context.Context, cmd ConfigureCommand) error
	// SensorData returns the latest frame, or nil if none has been produced yet.
	SensorData(ctx context.Context, typ SensorType) (*SensorData, error)
}

// AttachedSensor binds a sensor to a robot link.
type AttachedSensor interface {
	Name() string
	// Sensor may return nil when the attachment has no sensor.
	Sensor() Sensor
}

// Link is a rigid body of a kinbody.
type Link interface {
	Name() string
	Index() int
	Transform() spatialmath.Transform
	// Parent returns the link this one hangs from, or nil for a root link.
	Parent() Link
}

// Joint connects a link to its parent.
type Joint interface {
	Name() string
	// Anchor is the joint position in world coordinates.
	Anchor() r3.Vector
	// Child returns the link the joint moves.
	Child() Link
}

// Controller drives the joints of a robot.
type Controller interface {
	XMLID() string
	SendCommand(ctx context.Context, cmd string) (string, error)
	SetPath(ctx context.Context, trajectory []float64) error
	IsDone() bool
}

// KinBody is a collection of links connected by joints.
type KinBody interface {
	Name() string
	Links() []Link
	Joints() []Joint
	// Chain returns the joints connecting link to the root, ordered from link outward.
	Chain(link Link) []Joint
}

// Robot is a kinbody with sensors and a controller.
type Robot interface {
	KinBody
	AttachedSensors() []AttachedSensor
	// Controller may return nil when none is configured.
	Controller() Controller
}

// Environment is one simulated world.
type Environment interface {
	Load(ctx context.Context, filename string) error
	LoadData(ctx context.Context, data string) error
	ReadRobotURI(ctx context.Context, uri string) (Robot, error)
	ReadRobotData(ctx context.Context, data string) (Robot, error)
	AddRobot(ctx context.Context, robot Robot) error
	Robots() []Robot
	StopSimulation()
	StepSimulation(ctx context.Context, seconds float64) error
	Close(ctx context.Context) error
}

// Runtime creates environments. It owns process-wide simulator state.
type Runtime interface {
	NewEnvironment(ctx context.Context) (Environment, error)
	HomeDirectory() string
	Environment() config.Environment
	Destroy(ctx context.Context) error
}

// IsIdealController reports whether the controller id names the ideal controller, which may be
// written in any case.
func IsIdealController(xmlID string) bool {
	return strings.EqualFold(xmlID, "IdealController")
}

// RobotNamed returns the first robot with the given name.
func RobotNamed(robots []Robot, name string) (Robot, bool) {
	for _, r := range robots {
		if r.Name() == name {
			return r, true
		}
	}
	return nil, false
}
