package fake

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/osbertngok/openrave/logging"
	"github.com/osbertngok/openrave/sim"
	"github.com/osbertngok/openrave/sim/scenefile"
	"github.com/osbertngok/openrave/spatialmath"
)

// Link is a body with a fixed world transform.
type Link struct {
	name      string
	index     int
	transform spatialmath.Transform
	parent    *Link
}

// Name returns the body name.
func (l *Link) Name() string { return l.name }

// Index returns the position of the link within its kinbody.
func (l *Link) Index() int { return l.index }

// Transform returns the world transform of the link.
func (l *Link) Transform() spatialmath.Transform { return l.transform }

// Parent returns the link this one is jointed to, or nil.
func (l *Link) Parent() sim.Link {
	if l.parent == nil {
		return nil
	}
	return l.parent
}

// Joint is a joint in its zero position.
type Joint struct {
	name   string
	anchor r3.Vector
	axis   r3.Vector
	lower  float64
	upper  float64
	child  *Link
}

// Name returns the joint name.
func (j *Joint) Name() string { return j.name }

// Anchor returns the joint position in world coordinates.
func (j *Joint) Anchor() r3.Vector { return j.anchor }

// Axis returns the joint axis in world coordinates.
func (j *Joint) Axis() r3.Vector { return j.axis }

// Limits returns the joint limits in radians.
func (j *Joint) Limits() (lower, upper float64) { return j.lower, j.upper }

// Child returns the link the joint moves.
func (j *Joint) Child() sim.Link { return j.child }

// KinBody is a tree of links.
type KinBody struct {
	name   string
	links  []*Link
	joints []*Joint
}

var _ sim.KinBody = (*KinBody)(nil)

func newKinBody(desc *scenefile.KinBody, base *spatialmath.Transform) (*KinBody, error) {
	return buildKinBody(desc.Name, desc.Translation, desc.Bodies, desc.Joints, base)
}

func buildKinBody(
	name, translation string,
	bodies []scenefile.Body,
	joints []scenefile.Joint,
	base *spatialmath.Transform,
) (*KinBody, error) {
	root, err := scenefile.Placement(translation, "")
	if err != nil {
		return nil, errors.Wrapf(err, "kinbody %q", name)
	}
	if base != nil {
		root = base.Compose(root)
	}

	kb := &KinBody{name: name}
	byName := map[string]*Link{}
	for idx, desc := range bodies {
		if _, ok := byName[desc.Name]; ok {
			return nil, errors.Errorf("kinbody %q: duplicate body %q", name, desc.Name)
		}
		placement, err := scenefile.Placement(desc.Translation, desc.RotationAxis)
		if err != nil {
			return nil, errors.Wrapf(err, "kinbody %q body %q", name, desc.Name)
		}
		frame := root
		if desc.OffsetFrom != "" {
			offset, ok := byName[desc.OffsetFrom]
			if !ok {
				return nil, errors.Errorf("kinbody %q body %q: unknown offsetfrom %q", name, desc.Name, desc.OffsetFrom)
			}
			frame = offset.transform
		}
		link := &Link{name: desc.Name, index: idx, transform: frame.Compose(placement)}
		byName[desc.Name] = link
		kb.links = append(kb.links, link)
	}

	for _, desc := range joints {
		if len(desc.Bodies) != 2 {
			return nil, errors.Errorf("kinbody %q joint %q: needs 2 bodies, got %d", name, desc.Name, len(desc.Bodies))
		}
		parent, ok := byName[desc.Bodies[0]]
		if !ok {
			return nil, errors.Errorf("kinbody %q joint %q: unknown body %q", name, desc.Name, desc.Bodies[0])
		}
		child, ok := byName[desc.Bodies[1]]
		if !ok {
			return nil, errors.Errorf("kinbody %q joint %q: unknown body %q", name, desc.Name, desc.Bodies[1])
		}
		if child.parent != nil {
			return nil, errors.Errorf("kinbody %q joint %q: body %q already has a parent", name, desc.Name, child.name)
		}
		for p := parent; p != nil; p = p.parent {
			if p == child {
				return nil, errors.Errorf("kinbody %q joint %q: cycle through body %q", name, desc.Name, child.name)
			}
		}
		frame := child.transform
		if desc.OffsetFrom != "" {
			offset, ok := byName[desc.OffsetFrom]
			if !ok {
				return nil, errors.Errorf("kinbody %q joint %q: unknown offsetfrom %q", name, desc.Name, desc.OffsetFrom)
			}
			frame = offset.transform
		}
		anchor, err := desc.AnchorVector()
		if err != nil {
			return nil, errors.Wrapf(err, "kinbody %q joint %q", name, desc.Name)
		}
		axis := r3.Vector{Z: 1}
		if desc.Axis != "" {
			if axis, err = spatialmath.ParseVector(desc.Axis); err != nil {
				return nil, errors.Wrapf(err, "kinbody %q joint %q", name, desc.Name)
			}
		}
		lower, upper, _, err := desc.Limits()
		if err != nil {
			return nil, errors.Wrapf(err, "kinbody %q", name)
		}
		rotated := frame.WithTranslation(r3.Vector{}).TransformPoint(axis)
		child.parent = parent
		kb.joints = append(kb.joints, &Joint{
			name:   desc.Name,
			anchor: frame.TransformPoint(anchor),
			axis:   rotated.Normalize(),
			lower:  lower,
			upper:  upper,
			child:  child,
		})
	}
	return kb, nil
}

// Name returns the kinbody name.
func (kb *KinBody) Name() string { return kb.name }

// Links returns the links in declaration order.
func (kb *KinBody) Links() []sim.Link {
	out := make([]sim.Link, 0, len(kb.links))
	for _, l := range kb.links {
		out = append(out, l)
	}
	return out
}

// Joints returns the joints in declaration order.
func (kb *KinBody) Joints() []sim.Joint {
	out := make([]sim.Joint, 0, len(kb.joints))
	for _, j := range kb.joints {
		out = append(out, j)
	}
	return out
}

// Link returns the link with the given name.
func (kb *KinBody) Link(name string) (*Link, bool) {
	for _, l := range kb.links {
		if l.name == name {
			return l, true
		}
	}
	return nil, false
}

// Chain returns the joints from link back to its root. Links of other bodies have no chain.
func (kb *KinBody) Chain(link sim.Link) []sim.Joint {
	current, ok := link.(*Link)
	if !ok || !kb.owns(current) {
		return nil
	}
	var chain []sim.Joint
	for len(chain) < len(kb.joints) {
		j := kb.jointForChild(current)
		if j == nil {
			break
		}
		chain = append(chain, j)
		current = current.parent
	}
	return chain
}

func (kb *KinBody) owns(link *Link) bool {
	for _, l := range kb.links {
		if l == link {
			return true
		}
	}
	return false
}

func (kb *KinBody) jointForChild(link *Link) *Joint {
	for _, j := range kb.joints {
		if j.child == link {
			return j
		}
	}
	return nil
}

// AttachedSensor is a sensor placed on a robot link.
type AttachedSensor struct {
	name      string
	link      *Link
	transform spatialmath.Transform
	sensor    sim.Sensor
}

// Name returns the attachment name.
func (as *AttachedSensor) Name() string { return as.name }

// Sensor returns the sensor, or nil for an empty attachment.
func (as *AttachedSensor) Sensor() sim.Sensor {
	if as.sensor == nil {
		return nil
	}
	return as.sensor
}

// Link returns the link the sensor rides on.
func (as *AttachedSensor) Link() sim.Link {
	if as.link == nil {
		return nil
	}
	return as.link
}

// Transform returns the world transform of the sensor.
func (as *AttachedSensor) Transform() spatialmath.Transform { return as.transform }

// Robot is a kinbody with sensors and a controller.
type Robot struct {
	*KinBody
	sensors    []*AttachedSensor
	controller *IdealController
}

var _ sim.Robot = (*Robot)(nil)

func newRobot(desc *scenefile.Robot, clk clock.Clock, logger logging.Logger) (*Robot, error) {
	kb, err := buildKinBody(desc.Name, desc.Translation, desc.AllBodies(), desc.AllJoints(), nil)
	if err != nil {
		return nil, err
	}
	r := &Robot{KinBody: kb}
	robotLogger := logger.Sublogger(desc.Name)

	for _, as := range desc.AttachedSensors {
		attached := &AttachedSensor{name: as.Name}
		placement, err := scenefile.Placement(as.Translation, as.RotationAxis)
		if err != nil {
			return nil, errors.Wrapf(err, "robot %q sensor %q", desc.Name, as.Name)
		}
		attached.transform = placement
		if as.Link != "" {
			link, ok := kb.Link(as.Link)
			if !ok {
				return nil, errors.Errorf("robot %q sensor %q: unknown link %q", desc.Name, as.Name, as.Link)
			}
			attached.link = link
			attached.transform = link.transform.Compose(placement)
		}
		if as.Sensor != nil {
			sensor, err := newSensor(*as.Sensor, as.Name, clk, robotLogger)
			if err != nil {
				return nil, errors.Wrapf(err, "robot %q", desc.Name)
			}
			attached.sensor = sensor
		}
		r.sensors = append(r.sensors, attached)
	}

	if desc.Controller != nil {
		r.controller = NewIdealController(desc.Controller.Type, len(kb.joints), robotLogger)
	}
	return r, nil
}

// AttachedSensors returns the sensor attachments in declaration order.
func (r *Robot) AttachedSensors() []sim.AttachedSensor {
	out := make([]sim.AttachedSensor, 0, len(r.sensors))
	for _, as := range r.sensors {
		out = append(out, as)
	}
	return out
}

// Controller returns the robot controller, or nil when none is configured.
func (r *Robot) Controller() sim.Controller {
	if r.controller == nil {
		return nil
	}
	return r.controller
}

func (r *Robot) close(ctx context.Context) error {
	var err error
	for _, as := range r.sensors {
		if as.sensor == nil {
			continue
		}
		err = multierr.Combine(err, as.sensor.Configure(ctx, sim.PowerOff))
	}
	return err
}
