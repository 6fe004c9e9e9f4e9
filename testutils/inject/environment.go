package inject

import (
	"context"

	"github.com/osbertngok/openrave/config"
	"github.com/osbertngok/openrave/sim"
)

// Environment is an injected environment.
type Environment struct {
	sim.Environment
	LoadFunc           func(ctx context.Context, filename string) error
	LoadDataFunc       func(ctx context.Context, data string) error
	ReadRobotURIFunc   func(ctx context.Context, uri string) (sim.Robot, error)
	ReadRobotDataFunc  func(ctx context.Context, data string) (sim.Robot, error)
	AddRobotFunc       func(ctx context.Context, robot sim.Robot) error
	RobotsFunc         func() []sim.Robot
	StopSimulationFunc func()
	StepSimulationFunc func(ctx context.Context, seconds float64) error
	CloseFunc          func(ctx context.Context) error
}

// NewEnvironment returns an environment whose Load succeeds and which holds robots.
func NewEnvironment(robots ...sim.Robot) *Environment {
	return &Environment{
		LoadFunc:   func(ctx context.Context, filename string) error { return nil },
		RobotsFunc: func() []sim.Robot { return robots },
		CloseFunc:  func(ctx context.Context) error { return nil },
	}
}

// Load calls the injected Load or the real version.
func (e *Environment) Load(ctx context.Context, filename string) error {
	if e.LoadFunc == nil {
		return e.Environment.Load(ctx, filename)
	}
	return e.LoadFunc(ctx, filename)
}

// LoadData calls the injected LoadData or the real version.
func (e *Environment) LoadData(ctx context.Context, data string) error {
	if e.LoadDataFunc == nil {
		return e.Environment.LoadData(ctx, data)
	}
	return e.LoadDataFunc(ctx, data)
}

// ReadRobotURI calls the injected ReadRobotURI or the real version.
func (e *Environment) ReadRobotURI(ctx context.Context, uri string) (sim.Robot, error) {
	if e.ReadRobotURIFunc == nil {
		return e.Environment.ReadRobotURI(ctx, uri)
	}
	return e.ReadRobotURIFunc(ctx, uri)
}

// ReadRobotData calls the injected ReadRobotData or the real version.
func (e *Environment) ReadRobotData(ctx context.Context, data string) (sim.Robot, error) {
	if e.ReadRobotDataFunc == nil {
		return e.Environment.ReadRobotData(ctx, data)
	}
	return e.ReadRobotDataFunc(ctx, data)
}

// AddRobot calls the injected AddRobot or the real version.
func (e *Environment) AddRobot(ctx context.Context, robot sim.Robot) error {
	if e.AddRobotFunc == nil {
		return e.Environment.AddRobot(ctx, robot)
	}
	return e.AddRobotFunc(ctx, robot)
}

// Robots calls the injected Robots or the real version.
func (e *Environment) Robots() []sim.Robot {
	if e.RobotsFunc == nil {
		return e.Environment.Robots()
	}
	return e.RobotsFunc()
}

// StopSimulation calls the injected StopSimulation or the real version.
func (e *Environment) StopSimulation() {
	if e.StopSimulationFunc == nil {
		e.Environment.StopSimulation()
		return
	}
	e.StopSimulationFunc()
}

// StepSimulation calls the injected StepSimulation or the real version.
func (e *Environment) StepSimulation(ctx context.Context, seconds float64) error {
	if e.StepSimulationFunc == nil {
		return e.Environment.StepSimulation(ctx, seconds)
	}
	return e.StepSimulationFunc(ctx, seconds)
}

// Close calls the injected Close or the real version.
func (e *Environment) Close(ctx context.Context) error {
	if e.CloseFunc == nil {
		return e.Environment.Close(ctx)
	}
	return e.CloseFunc(ctx)
}

// Runtime is an injected runtime.
type Runtime struct {
	sim.Runtime
	NewEnvironmentFunc func(ctx context.Context) (sim.Environment, error)
	HomeDirectoryFunc  func() string
	EnvironmentFunc    func() config.Environment
	DestroyFunc        func(ctx context.Context) error
}

// NewEnvironment calls the injected NewEnvironment or the real version.
func (r *Runtime) NewEnvironment(ctx context.Context) (sim.Environment, error) {
	if r.NewEnvironmentFunc == nil {
		return r.Runtime.NewEnvironment(ctx)
	}
	return r.NewEnvironmentFunc(ctx)
}

// HomeDirectory calls the injected HomeDirectory or the real version.
func (r *Runtime) HomeDirectory() string {
	if r.HomeDirectoryFunc == nil {
		return r.Runtime.HomeDirectory()
	}
	return r.HomeDirectoryFunc()
}

// Environment calls the injected Environment or the real version.
func (r *Runtime) Environment() config.Environment {
	if r.EnvironmentFunc == nil {
		return r.Runtime.Environment()
	}
	return r.EnvironmentFunc()
}

// Destroy calls the injected Destroy or the real version.
func (r *Runtime) Destroy(ctx context.Context) error {
	if r.DestroyFunc == nil {
		return r.Runtime.Destroy(ctx)
	}
	return r.DestroyFunc(ctx)
}
