package fake

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/osbertngok/openrave/logging"
	"github.com/osbertngok/openrave/sim"
)

// WaypointDuration is the simulated time an ideal controller spends on each waypoint.
const WaypointDuration = 50 * time.Millisecond

// ErrUnknownCommand is returned for commands a controller does not understand.
var ErrUnknownCommand = errors.New("unknown controller command")

// IdealController moves the robot exactly along the path it is given. Bad input is silently
// ignored unless exceptions are turned on with "SetThrowExceptions 1".
type IdealController struct {
	xmlID  string
	dof    int
	logger logging.Logger

	mu              sync.Mutex
	throwExceptions bool
	waypoints       [][]float64
	elapsed         time.Duration
	values          []float64
}

var _ sim.Controller = (*IdealController)(nil)

// NewIdealController returns a controller for a robot with dof joints, reporting xmlID as its id.
func NewIdealController(xmlID string, dof int, logger logging.Logger) *IdealController {
	return &IdealController{
		xmlID:  xmlID,
		dof:    dof,
		logger: logger.Sublogger("controller"),
		values: make([]float64, dof),
	}
}

// XMLID returns the controller type as written in the scene.
func (c *IdealController) XMLID() string { return c.xmlID }

// ThrowExceptions reports whether bad input is returned as an error.
func (c *IdealController) ThrowExceptions() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.throwExceptions
}

// SendCommand handles "SetThrowExceptions <0|1>". Command names are case-insensitive.
func (c *IdealController) SendCommand(ctx context.Context, cmd string) (string, error) {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return "", errors.Wrap(ErrUnknownCommand, "empty command")
	}
	switch strings.ToLower(fields[0]) {
	case "setthrowexceptions":
		if len(fields) != 2 {
			return "", errors.Errorf("SetThrowExceptions takes one argument, got %q", cmd)
		}
		enabled, err := strconv.ParseBool(fields[1])
		if err != nil {
			return "", errors.Wrapf(err, "SetThrowExceptions %q", fields[1])
		}
		c.mu.Lock()
		c.throwExceptions = enabled
		c.mu.Unlock()
		return "", nil
	default:
		return "", errors.Wrapf(ErrUnknownCommand, "%q", fields[0])
	}
}

// SetPath starts following a trajectory of flattened joint values, dof values per waypoint.
func (c *IdealController) SetPath(ctx context.Context, trajectory []float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dof == 0 || len(trajectory) == 0 || len(trajectory)%c.dof != 0 {
		err := errors.Errorf("trajectory of %d values does not fit %d joints", len(trajectory), c.dof)
		if c.throwExceptions {
			return err
		}
		c.logger.Warnw("ignoring trajectory", "error", err)
		c.waypoints = nil
		c.elapsed = 0
		return nil
	}

	c.waypoints = c.waypoints[:0]
	for i := 0; i < len(trajectory); i += c.dof {
		c.waypoints = append(c.waypoints, append([]float64(nil), trajectory[i:i+c.dof]...))
	}
	c.elapsed = 0
	return nil
}

// IsDone reports whether the current trajectory has been fully executed.
func (c *IdealController) IsDone() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed >= c.duration()
}

// Values returns the joint values at the last reached waypoint.
func (c *IdealController) Values() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]float64(nil), c.values...)
}

func (c *IdealController) duration() time.Duration {
	return time.Duration(len(c.waypoints)) * WaypointDuration
}

func (c *IdealController) step(dt time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.waypoints) == 0 {
		return
	}
	c.elapsed = min(c.elapsed+dt, c.duration())
	reached := int(c.elapsed / WaypointDuration)
	if reached > 0 {
		copy(c.values, c.waypoints[reached-1])
	}
}
