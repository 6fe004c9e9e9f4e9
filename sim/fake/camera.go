package fake

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"

	"github.com/osbertngok/openrave/logging"
	"github.com/osbertngok/openrave/sim"
	"github.com/osbertngok/openrave/sim/scenefile"
	"github.com/osbertngok/openrave/utils"
)

// DefaultFrameRate is used by cameras that do not set a framerate.
const DefaultFrameRate = 5.0

// Sensor model names understood by newSensor. Matching is case-insensitive.
const (
	ModelBaseCamera  = "BaseCamera"
	ModelBaseLaser2D = "BaseLaser2D"
)

func newSensor(desc scenefile.Sensor, attachedName string, clk clock.Clock, logger logging.Logger) (sim.Sensor, error) {
	name := desc.Name
	if name == "" {
		name = attachedName
	}
	switch {
	case strings.EqualFold(desc.Type, ModelBaseCamera):
		return NewCamera(name, desc, clk, logger)
	case strings.EqualFold(desc.Type, ModelBaseLaser2D):
		return &Laser{name: name}, nil
	default:
		return nil, errors.Errorf("sensor %q: unknown sensor type %q", name, desc.Type)
	}
}

// Camera produces synthetic frames while powered on. Each frame is a hue gradient that shifts
// with the stamp, tinted by the configured color.
type Camera struct {
	name   string
	width  int
	height int
	period time.Duration
	tint   colorful.Color
	clk    clock.Clock
	logger logging.Logger

	mu      sync.Mutex
	workers *utils.StoppableWorkers
	stamp   int64
	latest  *sim.SensorData
}

var _ sim.Sensor = (*Camera)(nil)

// NewCamera builds a camera from its scene description.
func NewCamera(name string, desc scenefile.Sensor, clk clock.Clock, logger logging.Logger) (*Camera, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	rgb, err := desc.RGB()
	if err != nil {
		return nil, errors.Wrapf(err, "sensor %q color", name)
	}
	frameRate := desc.FrameRate
	if frameRate == 0 {
		frameRate = DefaultFrameRate
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Camera{
		name:   name,
		width:  desc.Width,
		height: desc.Height,
		period: time.Duration(float64(time.Second) / frameRate),
		tint: colorful.Color{
			R: utils.Clamp(rgb.X, 0, 1),
			G: utils.Clamp(rgb.Y, 0, 1),
			B: utils.Clamp(rgb.Z, 0, 1),
		},
		clk:    clk,
		logger: logger.Sublogger(name),
	}, nil
}

// Name returns the sensor name.
func (c *Camera) Name() string { return c.name }

// Supports reports true only for camera data.
func (c *Camera) Supports(typ sim.SensorType) bool { return typ == sim.SensorTypeCamera }

// Period returns the time between frames.
func (c *Camera) Period() time.Duration { return c.period }

// Configure powers the camera on or off. Rendering commands are accepted and ignored.
func (c *Camera) Configure(ctx context.Context, cmd sim.ConfigureCommand) error {
	switch cmd {
	case sim.PowerOn:
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.workers != nil {
			return nil
		}
		c.logger.Debug("powering on")
		c.workers = utils.NewStoppableWorkers(c.run)
		return nil
	case sim.PowerOff:
		c.mu.Lock()
		workers := c.workers
		c.workers = nil
		c.mu.Unlock()
		if workers != nil {
			c.logger.Debug("powering off")
			workers.Stop()
		}
		c.mu.Lock()
		c.latest = nil
		c.mu.Unlock()
		return nil
	case sim.RenderDataOn, sim.RenderDataOff:
		return nil
	default:
		return errors.Errorf("sensor %q: unknown configure command %v", c.name, cmd)
	}
}

// SensorData returns the latest frame, or nil before the first frame after power on. Frames are
// never modified after they are published.
func (c *Camera) SensorData(ctx context.Context, typ sim.SensorType) (*sim.SensorData, error) {
	if !c.Supports(typ) {
		return nil, errors.Wrapf(sim.ErrUnsupportedSensorType, "sensor %q type %q", c.name, typ)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest == nil {
		return nil, nil
	}
	frame := *c.latest
	return &frame, nil
}

func (c *Camera) run(ctx context.Context) {
	ticker := c.clk.Ticker(c.period)
	defer ticker.Stop()

	c.publish()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.publish()
		}
	}
}

func (c *Camera) publish() {
	c.mu.Lock()
	c.stamp++
	stamp := c.stamp
	c.mu.Unlock()

	frame := &sim.SensorData{Stamp: stamp, Image: RenderGradient(c.width, c.height, stamp, c.tint)}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.workers == nil {
		return
	}
	c.latest = frame
}

// RenderGradient draws a width x height frame whose hue runs left to right and whose value runs
// top to bottom. The hue is offset by 15 degrees per stamp and the result is blended halfway
// towards tint.
func RenderGradient(width, height int, stamp int64, tint colorful.Color) *sim.ImageData {
	columns := make([]colorful.Color, width)
	for x := range columns {
		hue := math.Mod(float64(x)*360/float64(width)+float64(stamp)*15, 360)
		columns[x] = colorful.Hsv(hue, 0.8, 1).BlendRgb(tint, 0.5)
	}

	pix := make([]byte, 0, width*height*3)
	for y := 0; y < height; y++ {
		value := 1 - 0.75*float64(y)/float64(height)
		for _, col := range columns {
			r, g, b := colorful.Color{R: col.R * value, G: col.G * value, B: col.B * value}.Clamped().RGB255()
			pix = append(pix, r, g, b)
		}
	}
	return &sim.ImageData{Width: width, Height: height, Pix: pix}
}

// Laser is a placeholder range sensor. It never produces data.
type Laser struct {
	name string
}

// Name returns the sensor name.
func (l *Laser) Name() string { return l.name }

// Supports reports true only for laser data.
func (l *Laser) Supports(typ sim.SensorType) bool { return typ == sim.SensorTypeLaser }

// Configure accepts every command.
func (l *Laser) Configure(ctx context.Context, cmd sim.ConfigureCommand) error { return nil }

// SensorData never has a frame.
func (l *Laser) SensorData(ctx context.Context, typ sim.SensorType) (*sim.SensorData, error) {
	if !l.Supports(typ) {
		return nil, errors.Wrapf(sim.ErrUnsupportedSensorType, "sensor %q type %q", l.name, typ)
	}
	return nil, nil
}
