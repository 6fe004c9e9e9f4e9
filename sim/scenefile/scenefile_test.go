package scenefile

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/osbertngok/openrave/utils"
)

func TestLoadEnvironment(t *testing.T) {
	loader := Loader{DataDirs: []string{utils.ResolveFile("data")}}
	env, err := loader.LoadEnvironment(utils.ResolveFile("data/testwamcamera.env.xml"))
	test.That(t, err, test.ShouldBeNil)

	test.That(t, env.Robots, test.ShouldHaveLength, 1)
	robot := env.Robots[0]
	test.That(t, robot.Name, test.ShouldEqual, "BarrettWAM")
	test.That(t, robot.File, test.ShouldBeEmpty)
	test.That(t, robot.AllBodies(), test.ShouldHaveLength, 5)
	test.That(t, robot.AllJoints(), test.ShouldHaveLength, 4)
	test.That(t, robot.Controller, test.ShouldNotBeNil)
	test.That(t, robot.Controller.Type, test.ShouldEqual, "IdealController")

	test.That(t, robot.AttachedSensors, test.ShouldHaveLength, 1)
	attached := robot.AttachedSensors[0]
	test.That(t, attached.Name, test.ShouldEqual, "wristcam")
	test.That(t, attached.Link, test.ShouldEqual, "wam4")
	test.That(t, attached.Sensor, test.ShouldNotBeNil)
	test.That(t, attached.Sensor.Type, test.ShouldEqual, "BaseCamera")
	test.That(t, attached.Sensor.Width, test.ShouldEqual, 640)
	test.That(t, attached.Sensor.Height, test.ShouldEqual, 480)
	test.That(t, attached.Sensor.FrameRate, test.ShouldEqual, 5)
	test.That(t, attached.Sensor.Validate(), test.ShouldBeNil)

	kk, err := attached.Sensor.Intrinsics()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, kk, test.ShouldResemble, [4]float64{640, 480, 320, 240})
	rgb, err := attached.Sensor.RGB()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rgb, test.ShouldResemble, r3.Vector{X: 0.5, Y: 0.5, Z: 1})

	test.That(t, env.KinBodies, test.ShouldHaveLength, 1)
	test.That(t, env.KinBodies[0].Name, test.ShouldEqual, "floor")
}

func TestParseCaseInsensitive(t *testing.T) {
	env, err := Parse([]byte(`<?xml version="1.0"?>
<environment>
  <ROBOT Name="lower">
    <body name="b0"><TRANSLATION>1 2 3</TRANSLATION></body>
    <controller TYPE="idealcontroller"/>
  </ROBOT>
</environment>`))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, env.Robots, test.ShouldHaveLength, 1)
	test.That(t, env.Robots[0].Name, test.ShouldEqual, "lower")
	test.That(t, env.Robots[0].Bodies[0].Translation, test.ShouldEqual, "1 2 3")
	test.That(t, env.Robots[0].Controller.Type, test.ShouldEqual, "idealcontroller")
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(nil)
	test.That(t, err, test.ShouldBeError, ErrNoSceneInformation)

	_, err = Parse([]byte(`<Environment><Robot>`))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = Parse([]byte(`<Robot name="not an environment"/>`))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = ParseRobot([]byte(`<Environment/>`))
	test.That(t, err, test.ShouldNotBeNil)

	loader := Loader{}
	_, err = loader.LoadEnvironment(filepath.Join(t.TempDir(), "missing.env.xml"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestResolveRelativeToSceneAndDataDirs(t *testing.T) {
	sceneDir := t.TempDir()
	dataDir := t.TempDir()
	test.That(t, os.WriteFile(filepath.Join(dataDir, "arm.robot.xml"),
		[]byte(`<Robot name="arm"><Body name="base"/><AttachedSensor name="a"/></Robot>`), 0o600), test.ShouldBeNil)
	test.That(t, os.WriteFile(filepath.Join(sceneDir, "box.kinbody.xml"),
		[]byte(`<KinBody name="box"><Body name="box"/></KinBody>`), 0o600), test.ShouldBeNil)
	scene := filepath.Join(sceneDir, "scene.env.xml")
	test.That(t, os.WriteFile(scene, []byte(`<Environment>
  <Robot name="renamed" file="arm.robot.xml"><AttachedSensor name="b"/></Robot>
  <KinBody file="box.kinbody.xml"/>
</Environment>`), 0o600), test.ShouldBeNil)

	_, err := Loader{}.LoadEnvironment(scene)
	test.That(t, err, test.ShouldNotBeNil)

	env, err := Loader{DataDirs: []string{dataDir}}.LoadEnvironment(scene)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, env.Robots[0].Name, test.ShouldEqual, "renamed")
	test.That(t, env.Robots[0].AttachedSensors, test.ShouldHaveLength, 2)
	test.That(t, env.KinBodies[0].Name, test.ShouldEqual, "box")
	test.That(t, env.KinBodies[0].Bodies, test.ShouldHaveLength, 1)

	robot, err := Loader{DataDirs: []string{dataDir}}.LoadRobot("arm.robot.xml")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, robot.Name, test.ShouldEqual, "arm")
}

func TestJointLimits(t *testing.T) {
	lower, upper, bounded, err := Joint{LimitsDeg: "-90 180"}.Limits()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bounded, test.ShouldBeTrue)
	test.That(t, lower, test.ShouldAlmostEqual, -math.Pi/2)
	test.That(t, upper, test.ShouldAlmostEqual, math.Pi)

	_, _, bounded, err = Joint{}.Limits()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bounded, test.ShouldBeFalse)

	_, _, _, err = Joint{LimitsDeg: "1"}.Limits()
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPlacement(t *testing.T) {
	tf, err := Placement("0 -0.2 0", "0 1 0 -90")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tf.Translation(), test.ShouldResemble, r3.Vector{Y: -0.2})
	p := tf.TransformPoint(r3.Vector{Z: 1})
	test.That(t, p.X, test.ShouldAlmostEqual, -1)
	test.That(t, p.Y, test.ShouldAlmostEqual, -0.2)
	test.That(t, p.Z, test.ShouldAlmostEqual, 0)

	_, err = Placement("0 0", "")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = Placement("", "0 1 0")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSensorValidate(t *testing.T) {
	test.That(t, Sensor{Width: 0, Height: 10}.Validate(), test.ShouldNotBeNil)
	test.That(t, Sensor{Width: 10, Height: 10, KK: "1 2"}.Validate(), test.ShouldNotBeNil)
	test.That(t, Sensor{Width: 10, Height: 10, FrameRate: -1}.Validate(), test.ShouldNotBeNil)
	rgb, err := Sensor{}.RGB()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rgb, test.ShouldResemble, r3.Vector{X: 1, Y: 1, Z: 1})
}
