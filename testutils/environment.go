package testutils

import (
	"context"
	"testing"

	"go.viam.com/test"

	"github.com/osbertngok/openrave/config"
	"github.com/osbertngok/openrave/logging"
	"github.com/osbertngok/openrave/sim"
	"github.com/osbertngok/openrave/sim/fake"
	"github.com/osbertngok/openrave/utils"
)

const (
	// Epsilon is the tolerance used when comparing transforms.
	Epsilon = 1e-7
	// JacobianStep is the finite-difference step for numeric jacobians.
	JacobianStep = 0.01
	// TrajectoryStep is the simulation step RunTrajectory takes, in seconds.
	TrajectoryStep = 0.01

	maxTrajectorySteps = 1_000_000
	throwExceptionsCmd = "SetThrowExceptions 1"
)

var (
	// EnvFiles are scene files every environment test should be able to load, relative to the
	// data directory.
	EnvFiles = []string{"testwamcamera.env.xml"}
	// RobotFiles are robot files every robot test should be able to load, relative to the data
	// directory.
	RobotFiles = []string{"robots/barrettwam.robot.xml"}
)

// DataDir is the directory holding the bundled scenes.
func DataDir() string {
	return utils.ResolveFile("data")
}

// SetupRuntime starts a fake runtime whose home and database directories are scoped to the test.
// Empty directories in cfg are filled with a temporary directory and missing data directories
// default to DataDir. The runtime is destroyed when the test ends.
func SetupRuntime(tb testing.TB, cfg config.Environment) sim.Runtime {
	tb.Helper()
	if cfg.HomeDir == "" {
		cfg.HomeDir = tb.TempDir()
	}
	if cfg.DatabaseDir == "" {
		cfg.DatabaseDir = cfg.HomeDir
	}
	if len(cfg.DataDirs) == 0 {
		cfg.DataDirs = []string{DataDir()}
	}
	rt, err := fake.NewRuntime(cfg, nil, logging.NewTestLogger(tb))
	test.That(tb, err, test.ShouldBeNil)
	tb.Cleanup(func() {
		test.That(tb, rt.Destroy(context.Background()), test.ShouldBeNil)
	})
	test.That(tb, rt.HomeDirectory(), test.ShouldEqual, cfg.HomeDir)
	return rt
}

// EnvironmentSetup is a per-test environment with simulation stopped. Every robot it loads has
// an ideal controller that fails loudly on bad input.
type EnvironmentSetup struct {
	tb  testing.TB
	Env sim.Environment
}

// NewEnvironmentSetup creates an environment on rt and closes it when the test ends.
func NewEnvironmentSetup(tb testing.TB, rt sim.Runtime) *EnvironmentSetup {
	tb.Helper()
	env, err := rt.NewEnvironment(context.Background())
	test.That(tb, err, test.ShouldBeNil)
	env.StopSimulation()
	tb.Cleanup(func() {
		test.That(tb, env.Close(context.Background()), test.ShouldBeNil)
	})
	return &EnvironmentSetup{tb: tb, Env: env}
}

// LoadEnv loads a scene file.
func (es *EnvironmentSetup) LoadEnv(filename string) {
	es.tb.Helper()
	test.That(es.tb, es.Env.Load(context.Background(), filename), test.ShouldBeNil)
	es.normalizeAll()
}

// LoadDataEnv loads inline scene XML.
func (es *EnvironmentSetup) LoadDataEnv(data string) {
	es.tb.Helper()
	test.That(es.tb, es.Env.LoadData(context.Background(), data), test.ShouldBeNil)
	es.normalizeAll()
}

// LoadRobot reads a robot file and adds it to the environment.
func (es *EnvironmentSetup) LoadRobot(uri string) sim.Robot {
	es.tb.Helper()
	robot, err := es.Env.ReadRobotURI(context.Background(), uri)
	test.That(es.tb, err, test.ShouldBeNil)
	return es.addRobot(robot)
}

// LoadRobotData reads inline robot XML and adds it to the environment.
func (es *EnvironmentSetup) LoadRobotData(data string) sim.Robot {
	es.tb.Helper()
	robot, err := es.Env.ReadRobotData(context.Background(), data)
	test.That(es.tb, err, test.ShouldBeNil)
	return es.addRobot(robot)
}

func (es *EnvironmentSetup) addRobot(robot sim.Robot) sim.Robot {
	es.tb.Helper()
	test.That(es.tb, es.Env.AddRobot(context.Background(), robot), test.ShouldBeNil)
	es.normalize(robot)
	return robot
}

// RunTrajectory hands traj to the controller of robot and steps the simulation until the
// controller is done.
func (es *EnvironmentSetup) RunTrajectory(robot sim.Robot, traj []float64) {
	es.tb.Helper()
	ctx := context.Background()
	controller := robot.Controller()
	test.That(es.tb, controller, test.ShouldNotBeNil)
	test.That(es.tb, controller.SetPath(ctx, traj), test.ShouldBeNil)
	for steps := 0; !controller.IsDone(); steps++ {
		if steps >= maxTrajectorySteps {
			es.tb.Fatalf("robot %q controller still running after %d steps", robot.Name(), steps)
		}
		test.That(es.tb, es.Env.StepSimulation(ctx, TrajectoryStep), test.ShouldBeNil)
	}
}

func (es *EnvironmentSetup) normalizeAll() {
	es.tb.Helper()
	for _, robot := range es.Env.Robots() {
		es.normalize(robot)
	}
}

func (es *EnvironmentSetup) normalize(robot sim.Robot) {
	es.tb.Helper()
	controller := robot.Controller()
	if controller == nil || !sim.IsIdealController(controller.XMLID()) {
		return
	}
	_, err := controller.SendCommand(context.Background(), throwExceptionsCmd)
	test.That(es.tb, err, test.ShouldBeNil)
}
