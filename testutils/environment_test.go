package testutils

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/osbertngok/openrave/config"
	"github.com/osbertngok/openrave/sim"
	"github.com/osbertngok/openrave/sim/fake"
)

const inlineArm = `<Robot name="twolink">
  <KinBody>
    <Body name="base"/>
    <Body name="upper">
      <offsetfrom>base</offsetfrom>
      <Translation>0 0 1</Translation>
    </Body>
    <Joint name="j0" type="hinge">
      <Body>base</Body>
      <Body>upper</Body>
      <offsetfrom>upper</offsetfrom>
      <limitsdeg>-90 90</limitsdeg>
    </Joint>
  </KinBody>
  <Controller type="idealcontroller"/>
</Robot>`

func idealController(t *testing.T, robot sim.Robot) *fake.IdealController {
	t.Helper()
	c, ok := robot.Controller().(*fake.IdealController)
	test.That(t, ok, test.ShouldBeTrue)
	return c
}

func TestSetupRuntime(t *testing.T) {
	home := t.TempDir()
	rt := SetupRuntime(t, config.Environment{HomeDir: home})
	test.That(t, rt.HomeDirectory(), test.ShouldEqual, home)
	test.That(t, rt.Environment().DatabaseDir, test.ShouldEqual, home)
	test.That(t, rt.Environment().DataDirs, test.ShouldResemble, []string{DataDir()})
}

func TestLoadEnvNormalizesControllers(t *testing.T) {
	es := NewEnvironmentSetup(t, SetupRuntime(t, config.Environment{}))
	for _, fn := range EnvFiles {
		es.LoadEnv(filepath.Join(DataDir(), fn))
	}
	robots := es.Env.Robots()
	test.That(t, robots, test.ShouldHaveLength, 1)
	test.That(t, idealController(t, robots[0]).ThrowExceptions(), test.ShouldBeTrue)

	// bad trajectories are now errors instead of warnings
	err := robots[0].Controller().SetPath(context.Background(), []float64{1, 2, 3})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLoadRobots(t *testing.T) {
	es := NewEnvironmentSetup(t, SetupRuntime(t, config.Environment{}))
	for _, fn := range RobotFiles {
		robot := es.LoadRobot(fn)
		test.That(t, idealController(t, robot).ThrowExceptions(), test.ShouldBeTrue)
	}
	robot := es.LoadRobotData(inlineArm)
	test.That(t, robot.Name(), test.ShouldEqual, "twolink")
	test.That(t, idealController(t, robot).ThrowExceptions(), test.ShouldBeTrue)
	test.That(t, es.Env.Robots(), test.ShouldHaveLength, len(RobotFiles)+1)
}

func TestRunTrajectory(t *testing.T) {
	es := NewEnvironmentSetup(t, SetupRuntime(t, config.Environment{}))
	robot := es.LoadRobotData(inlineArm)
	es.RunTrajectory(robot, []float64{0.1, 0.2, 0.3})
	c := idealController(t, robot)
	test.That(t, c.IsDone(), test.ShouldBeTrue)
	test.That(t, c.Values(), test.ShouldResemble, []float64{0.3})
}

func TestBodyMaxJointDistOnArm(t *testing.T) {
	es := NewEnvironmentSetup(t, SetupRuntime(t, config.Environment{}))
	robot := es.LoadRobot(RobotFiles[0])

	var tip sim.Link
	for _, l := range robot.Links() {
		if l.Name() == "wam4" {
			tip = l
		}
	}
	test.That(t, tip, test.ShouldNotBeNil)

	// elbow, shoulder roll and shoulder pitch sit 0, 0.045 and 0.55 apart; the yaw anchor
	// coincides with the pitch anchor
	dist, err := BodyMaxJointDist(robot, tip, r3.Vector{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dist, test.ShouldAlmostEqual, 0.595, Epsilon)

	dist, err = BodyMaxJointDist(robot, tip, r3.Vector{Z: 0.1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dist, test.ShouldAlmostEqual, 0.695, Epsilon)

	_, err = BodyMaxJointDist(robot, robot.Links()[0], r3.Vector{})
	test.That(t, err, test.ShouldNotBeNil)
}
