package fake

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/osbertngok/openrave/logging"
	"github.com/osbertngok/openrave/sim"
	"github.com/osbertngok/openrave/sim/scenefile"
)

// ErrClosed is returned by a closed environment.
var ErrClosed = errors.New("environment closed")

// Environment is an in-memory world. All methods are safe for concurrent use.
type Environment struct {
	loader scenefile.Loader
	clk    clock.Clock
	logger logging.Logger

	mu         sync.Mutex
	robots     []*Robot
	bodies     []*KinBody
	simulating bool
	simTime    time.Duration
	closed     bool
}

var _ sim.Environment = (*Environment)(nil)

func newEnvironment(dataDirs []string, clk clock.Clock, logger logging.Logger) *Environment {
	return &Environment{
		loader:     scenefile.Loader{DataDirs: dataDirs},
		clk:        clk,
		logger:     logger,
		simulating: true,
	}
}

// Load adds the robots and kinbodies of a scene file.
func (env *Environment) Load(ctx context.Context, filename string) error {
	if err := env.checkOpen(); err != nil {
		return err
	}
	scene, err := env.loader.LoadEnvironment(filename)
	if err != nil {
		return err
	}
	return env.add(scene)
}

// LoadData adds the robots and kinbodies of inline scene XML. File references resolve against
// the working directory and the data directories.
func (env *Environment) LoadData(ctx context.Context, data string) error {
	if err := env.checkOpen(); err != nil {
		return err
	}
	scene, err := scenefile.Parse([]byte(data))
	if err != nil {
		return err
	}
	if err := env.loader.Resolve(scene, "."); err != nil {
		return err
	}
	return env.add(scene)
}

func (env *Environment) add(scene *scenefile.Environment) error {
	robots := make([]*Robot, 0, len(scene.Robots))
	for i := range scene.Robots {
		robot, err := newRobot(&scene.Robots[i], env.clk, env.logger)
		if err != nil {
			return err
		}
		robots = append(robots, robot)
	}
	bodies := make([]*KinBody, 0, len(scene.KinBodies))
	for i := range scene.KinBodies {
		body, err := newKinBody(&scene.KinBodies[i], nil)
		if err != nil {
			return err
		}
		bodies = append(bodies, body)
	}

	env.mu.Lock()
	defer env.mu.Unlock()
	if env.closed {
		return ErrClosed
	}
	env.robots = append(env.robots, robots...)
	env.bodies = append(env.bodies, bodies...)
	env.logger.Debugw("scene added", "robots", len(robots), "kinbodies", len(bodies))
	return nil
}

// ReadRobotURI builds a robot from a file without adding it.
func (env *Environment) ReadRobotURI(ctx context.Context, uri string) (sim.Robot, error) {
	if err := env.checkOpen(); err != nil {
		return nil, err
	}
	desc, err := env.loader.LoadRobot(uri)
	if err != nil {
		return nil, err
	}
	return newRobot(desc, env.clk, env.logger)
}

// ReadRobotData builds a robot from inline XML without adding it.
func (env *Environment) ReadRobotData(ctx context.Context, data string) (sim.Robot, error) {
	if err := env.checkOpen(); err != nil {
		return nil, err
	}
	desc, err := scenefile.ParseRobot([]byte(data))
	if err != nil {
		return nil, err
	}
	wrapper := &scenefile.Environment{Robots: []scenefile.Robot{*desc}}
	if err := env.loader.Resolve(wrapper, filepath.Clean(".")); err != nil {
		return nil, err
	}
	return newRobot(&wrapper.Robots[0], env.clk, env.logger)
}

// AddRobot adds a robot built by ReadRobotURI or ReadRobotData.
func (env *Environment) AddRobot(ctx context.Context, robot sim.Robot) error {
	r, ok := robot.(*Robot)
	if !ok {
		return errors.Errorf("cannot add robot of type %T", robot)
	}
	env.mu.Lock()
	defer env.mu.Unlock()
	if env.closed {
		return ErrClosed
	}
	if lo.Contains(env.robots, r) {
		return errors.Errorf("robot %q already added", r.Name())
	}
	env.robots = append(env.robots, r)
	return nil
}

// Robots returns the robots in the order they were added.
func (env *Environment) Robots() []sim.Robot {
	env.mu.Lock()
	defer env.mu.Unlock()
	return lo.Map(env.robots, func(r *Robot, _ int) sim.Robot { return r })
}

// KinBodies returns the non-robot bodies in the order they were added.
func (env *Environment) KinBodies() []sim.KinBody {
	env.mu.Lock()
	defer env.mu.Unlock()
	return lo.Map(env.bodies, func(b *KinBody, _ int) sim.KinBody { return b })
}

// StopSimulation stops the internal simulation thread. StepSimulation still works.
func (env *Environment) StopSimulation() {
	env.mu.Lock()
	env.simulating = false
	env.mu.Unlock()
}

// Simulating reports whether the environment simulates on its own.
func (env *Environment) Simulating() bool {
	env.mu.Lock()
	defer env.mu.Unlock()
	return env.simulating
}

// SimTime returns the total simulated time.
func (env *Environment) SimTime() time.Duration {
	env.mu.Lock()
	defer env.mu.Unlock()
	return env.simTime
}

// StepSimulation advances every controller by the given number of seconds.
func (env *Environment) StepSimulation(ctx context.Context, seconds float64) error {
	if seconds <= 0 {
		return errors.Errorf("step must be positive, got %v", seconds)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	dt := time.Duration(seconds * float64(time.Second))

	env.mu.Lock()
	defer env.mu.Unlock()
	if env.closed {
		return ErrClosed
	}
	env.simTime += dt
	for _, r := range env.robots {
		if c := r.controller; c != nil {
			c.step(dt)
		}
	}
	return nil
}

// Close powers off every sensor. Later calls do nothing.
func (env *Environment) Close(ctx context.Context) error {
	env.mu.Lock()
	if env.closed {
		env.mu.Unlock()
		return nil
	}
	env.closed = true
	robots := env.robots
	env.mu.Unlock()

	var err error
	for _, r := range robots {
		err = multierr.Combine(err, r.close(ctx))
	}
	return err
}

func (env *Environment) checkOpen() error {
	env.mu.Lock()
	defer env.mu.Unlock()
	if env.closed {
		return ErrClosed
	}
	return nil
}
