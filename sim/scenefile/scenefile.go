// Package scenefile parses scene and robot XML files into plain structs.
//
// Element names are matched case-insensitively, so <Translation> and <translation> are the same
// element. Robots and kinbodies may be written inline or reference another file with a `file`
// attribute; references are resolved relative to the referencing file and then the data
// directories.
package scenefile

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/osbertngok/openrave/spatialmath"
	"github.com/osbertngok/openrave/utils"
)

// ErrNoSceneInformation is returned for empty scene data.
var ErrNoSceneInformation = errors.New("no scene information in data")

// Environment is the root of a scene file.
type Environment struct {
	XMLName   xml.Name  `xml:"environment"`
	Robots    []Robot   `xml:"robot"`
	KinBodies []KinBody `xml:"kinbody"`
}

// KinBody is a set of bodies connected by joints.
type KinBody struct {
	Name        string `xml:"name,attr"`
	File        string `xml:"file,attr"`
	Translation string `xml:"translation"`
	Bodies      []Body  `xml:"body"`
	Joints      []Joint `xml:"joint"`
}

// Robot is a kinbody with attached sensors and a controller. Bodies and joints may appear
// directly under the robot or inside a nested kinbody.
type Robot struct {
	Name            string           `xml:"name,attr"`
	File            string           `xml:"file,attr"`
	Translation     string           `xml:"translation"`
	KinBody         *KinBody         `xml:"kinbody"`
	Bodies          []Body           `xml:"body"`
	Joints          []Joint          `xml:"joint"`
	AttachedSensors []AttachedSensor `xml:"attachedsensor"`
	Controller      *Controller      `xml:"controller"`
}

// Body is one rigid link.
type Body struct {
	Name         string `xml:"name,attr"`
	Type         string `xml:"type,attr"`
	OffsetFrom   string `xml:"offsetfrom"`
	Translation  string `xml:"translation"`
	RotationAxis string `xml:"rotationaxis"`
}

// Joint connects two bodies. The first body is the parent.
type Joint struct {
	Name       string   `xml:"name,attr"`
	Type       string   `xml:"type,attr"`
	Bodies     []string `xml:"body"`
	OffsetFrom string   `xml:"offsetfrom"`
	Anchor     string   `xml:"anchor"`
	Axis       string   `xml:"axis"`
	LimitsDeg  string   `xml:"limitsdeg"`
}

// AttachedSensor places a sensor on a robot link.
type AttachedSensor struct {
	Name         string  `xml:"name,attr"`
	Link         string  `xml:"link"`
	Translation  string  `xml:"translation"`
	RotationAxis string  `xml:"rotationaxis"`
	Sensor       *Sensor `xml:"sensor"`
}

// Sensor describes a sensor model and its parameters.
type Sensor struct {
	Name      string  `xml:"name,attr"`
	Type      string  `xml:"type,attr"`
	Args      string  `xml:"args,attr"`
	KK        string  `xml:"kk"`
	Width     int     `xml:"width"`
	Height    int     `xml:"height"`
	FrameRate float64 `xml:"framerate"`
	Color     string  `xml:"color"`
}

// Controller names the controller driving a robot.
type Controller struct {
	Type string `xml:"type,attr"`
	Args string `xml:"args,attr"`
}

// Parse parses scene XML. References to other files are left unresolved.
func Parse(data []byte) (*Environment, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrNoSceneInformation
	}
	normalized, err := normalizeTags(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scene XML")
	}
	env := &Environment{}
	if err := xml.Unmarshal(normalized, env); err != nil {
		return nil, errors.Wrap(err, "failed to convert scene XML to an Environment")
	}
	return env, nil
}

// ParseRobot parses XML whose root element is a robot.
func ParseRobot(data []byte) (*Robot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrNoSceneInformation
	}
	normalized, err := normalizeTags(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read robot XML")
	}
	var wrapper struct {
		XMLName xml.Name `xml:"robot"`
		Robot
	}
	if err := xml.Unmarshal(normalized, &wrapper); err != nil {
		return nil, errors.Wrap(err, "failed to convert robot XML to a Robot")
	}
	return &wrapper.Robot, nil
}

// ParseKinBody parses XML whose root element is a kinbody.
func ParseKinBody(data []byte) (*KinBody, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrNoSceneInformation
	}
	normalized, err := normalizeTags(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read kinbody XML")
	}
	var wrapper struct {
		XMLName xml.Name `xml:"kinbody"`
		KinBody
	}
	if err := xml.Unmarshal(normalized, &wrapper); err != nil {
		return nil, errors.Wrap(err, "failed to convert kinbody XML to a KinBody")
	}
	return &wrapper.KinBody, nil
}

// Loader reads scene files and resolves their file references.
type Loader struct {
	DataDirs []string
}

// LoadEnvironment reads and resolves a scene file.
func (l Loader) LoadEnvironment(filename string) (*Environment, error) {
	path, err := utils.FindInDirs(filename, append([]string{"."}, l.DataDirs...)...)
	if err != nil {
		return nil, err
	}
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read scene file %q", filename)
	}
	env, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "scene file %q", filename)
	}
	if err := l.Resolve(env, filepath.Dir(path)); err != nil {
		return nil, err
	}
	return env, nil
}

// Resolve replaces file references in env with the referenced content, looking in baseDir first.
func (l Loader) Resolve(env *Environment, baseDir string) error {
	for i := range env.Robots {
		if err := l.resolveRobot(&env.Robots[i], baseDir); err != nil {
			return err
		}
	}
	for i := range env.KinBodies {
		if err := l.resolveKinBody(&env.KinBodies[i], baseDir); err != nil {
			return err
		}
	}
	return nil
}

// LoadRobot reads and resolves a robot file.
func (l Loader) LoadRobot(uri string) (*Robot, error) {
	robot := &Robot{File: uri}
	if err := l.resolveRobot(robot, "."); err != nil {
		return nil, err
	}
	return robot, nil
}

func (l Loader) read(file, baseDir string) ([]byte, string, error) {
	path, err := utils.FindInDirs(file, append([]string{baseDir}, l.DataDirs...)...)
	if err != nil {
		return nil, "", errors.Wrapf(err, "cannot find %q", file)
	}
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return data, filepath.Dir(path), nil
}

func (l Loader) resolveRobot(robot *Robot, baseDir string) error {
	if robot.File == "" {
		if robot.KinBody != nil {
			return l.resolveKinBody(robot.KinBody, baseDir)
		}
		return nil
	}
	data, dir, err := l.read(robot.File, baseDir)
	if err != nil {
		return err
	}
	referenced, err := ParseRobot(data)
	if err != nil {
		return errors.Wrapf(err, "robot file %q", robot.File)
	}
	if err := l.resolveRobot(referenced, dir); err != nil {
		return err
	}
	*robot = mergeRobot(*referenced, *robot)
	return nil
}

func (l Loader) resolveKinBody(body *KinBody, baseDir string) error {
	if body.File == "" {
		return nil
	}
	data, dir, err := l.read(body.File, baseDir)
	if err != nil {
		return err
	}
	referenced, err := ParseKinBody(data)
	if err != nil {
		return errors.Wrapf(err, "kinbody file %q", body.File)
	}
	if err := l.resolveKinBody(referenced, dir); err != nil {
		return err
	}
	merged := *referenced
	if body.Name != "" {
		merged.Name = body.Name
	}
	if body.Translation != "" {
		merged.Translation = body.Translation
	}
	merged.Bodies = append(merged.Bodies, body.Bodies...)
	merged.Joints = append(merged.Joints, body.Joints...)
	merged.File = ""
	*body = merged
	return nil
}

// mergeRobot overlays the inline parts of a referencing robot element onto the referenced robot.
func mergeRobot(base, overlay Robot) Robot {
	merged := base
	merged.File = ""
	if overlay.Name != "" {
		merged.Name = overlay.Name
	}
	if overlay.Translation != "" {
		merged.Translation = overlay.Translation
	}
	if overlay.Controller != nil {
		merged.Controller = overlay.Controller
	}
	merged.Bodies = append(merged.Bodies, overlay.Bodies...)
	merged.Joints = append(merged.Joints, overlay.Joints...)
	merged.AttachedSensors = append(merged.AttachedSensors, overlay.AttachedSensors...)
	return merged
}

// AllBodies returns the bodies of the robot, including those of a nested kinbody.
func (r *Robot) AllBodies() []Body {
	if r.KinBody == nil {
		return r.Bodies
	}
	return append(append([]Body{}, r.KinBody.Bodies...), r.Bodies...)
}

// AllJoints returns the joints of the robot, including those of a nested kinbody.
func (r *Robot) AllJoints() []Joint {
	if r.KinBody == nil {
		return r.Joints
	}
	return append(append([]Joint{}, r.KinBody.Joints...), r.Joints...)
}

// Limits returns the joint limits in radians. A joint without limits is unbounded.
func (j Joint) Limits() (lower, upper float64, bounded bool, err error) {
	if strings.TrimSpace(j.LimitsDeg) == "" {
		return 0, 0, false, nil
	}
	values := spatialmath.SpaceDelimitedFloats(j.LimitsDeg)
	if len(values) != 2 {
		return 0, 0, false, errors.Errorf("joint %q: limitsdeg needs 2 values, got %q", j.Name, j.LimitsDeg)
	}
	return utils.DegToRad(values[0]), utils.DegToRad(values[1]), true, nil
}

// AnchorVector parses the anchor, defaulting to the origin.
func (j Joint) AnchorVector() (r3.Vector, error) {
	return optionalVector(j.Anchor)
}

// Intrinsics parses KK as fx fy cx cy.
func (s Sensor) Intrinsics() ([4]float64, error) {
	var kk [4]float64
	values := spatialmath.SpaceDelimitedFloats(s.KK)
	if len(values) != 4 {
		return kk, errors.Errorf("KK needs 4 values, got %q", s.KK)
	}
	copy(kk[:], values)
	return kk, nil
}

// RGB parses the color as three components in [0, 1]. An unset color is white.
func (s Sensor) RGB() (r3.Vector, error) {
	if strings.TrimSpace(s.Color) == "" {
		return r3.Vector{X: 1, Y: 1, Z: 1}, nil
	}
	return spatialmath.ParseVector(s.Color)
}

// Validate checks the parameters a camera needs.
func (s Sensor) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return errors.Errorf("sensor %q: invalid image size %dx%d", s.Name, s.Width, s.Height)
	}
	if s.FrameRate < 0 {
		return errors.Errorf("sensor %q: negative framerate %v", s.Name, s.FrameRate)
	}
	if s.KK != "" {
		if _, err := s.Intrinsics(); err != nil {
			return errors.Wrapf(err, "sensor %q", s.Name)
		}
	}
	return nil
}

// Placement parses a translation and rotationaxis pair into a transform.
func Placement(translation, rotationAxis string) (spatialmath.Transform, error) {
	offset, err := optionalVector(translation)
	if err != nil {
		return spatialmath.Transform{}, err
	}
	if strings.TrimSpace(rotationAxis) == "" {
		return spatialmath.MatrixFromTranslation(offset), nil
	}
	aa, err := spatialmath.ParseRotationAxis(rotationAxis)
	if err != nil {
		return spatialmath.Transform{}, err
	}
	return spatialmath.NewTransform(aa.ToQuat(), offset), nil
}

func optionalVector(s string) (r3.Vector, error) {
	if strings.TrimSpace(s) == "" {
		return r3.Vector{}, nil
	}
	return spatialmath.ParseVector(s)
}

// normalizeTags lowercases every element name so struct tags can match regardless of case.
func normalizeTags(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out bytes.Buffer
	enc := xml.NewEncoder(&out)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			t.Name.Local = strings.ToLower(t.Name.Local)
			t.Name.Space = ""
			for i := range t.Attr {
				t.Attr[i].Name.Local = strings.ToLower(t.Attr[i].Name.Local)
			}
			tok = t
		case xml.EndElement:
			t.Name.Local = strings.ToLower(t.Name.Local)
			t.Name.Space = ""
			tok = t
		case xml.ProcInst, xml.Directive:
			continue
		}
		if err := enc.EncodeToken(tok); err != nil {
			return nil, err
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
