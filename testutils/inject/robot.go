package inject

import (
	"context"

	"github.com/golang/geo/r3"

	"github.com/osbertngok/openrave/sim"
	"github.com/osbertngok/openrave/spatialmath"
)

// Link is an injected link.
type Link struct {
	sim.Link
	NameFunc      func() string
	IndexFunc     func() int
	TransformFunc func() spatialmath.Transform
	ParentFunc    func() sim.Link
}

// Name calls the injected Name or the real version.
func (l *Link) Name() string {
	if l.NameFunc == nil {
		return l.Link.Name()
	}
	return l.NameFunc()
}

// Index calls the injected Index or the real version.
func (l *Link) Index() int {
	if l.IndexFunc == nil {
		return l.Link.Index()
	}
	return l.IndexFunc()
}

// Transform calls the injected Transform or the real version.
func (l *Link) Transform() spatialmath.Transform {
	if l.TransformFunc == nil {
		return l.Link.Transform()
	}
	return l.TransformFunc()
}

// Parent calls the injected Parent or the real version.
func (l *Link) Parent() sim.Link {
	if l.ParentFunc == nil {
		return l.Link.Parent()
	}
	return l.ParentFunc()
}

// Joint is an injected joint.
type Joint struct {
	sim.Joint
	NameFunc   func() string
	AnchorFunc func() r3.Vector
	ChildFunc  func() sim.Link
}

// Name calls the injected Name or the real version.
func (j *Joint) Name() string {
	if j.NameFunc == nil {
		return j.Joint.Name()
	}
	return j.NameFunc()
}

// Anchor calls the injected Anchor or the real version.
func (j *Joint) Anchor() r3.Vector {
	if j.AnchorFunc == nil {
		return j.Joint.Anchor()
	}
	return j.AnchorFunc()
}

// Child calls the injected Child or the real version.
func (j *Joint) Child() sim.Link {
	if j.ChildFunc == nil {
		return j.Joint.Child()
	}
	return j.ChildFunc()
}

// Controller is an injected controller.
type Controller struct {
	sim.Controller
	XMLIDFunc       func() string
	SendCommandFunc func(ctx context.Context, cmd string) (string, error)
	SetPathFunc     func(ctx context.Context, trajectory []float64) error
	IsDoneFunc      func() bool
}

// XMLID calls the injected XMLID or the real version.
func (c *Controller) XMLID() string {
	if c.XMLIDFunc == nil {
		return c.Controller.XMLID()
	}
	return c.XMLIDFunc()
}

// SendCommand calls the injected SendCommand or the real version.
func (c *Controller) SendCommand(ctx context.Context, cmd string) (string, error) {
	if c.SendCommandFunc == nil {
		return c.Controller.SendCommand(ctx, cmd)
	}
	return c.SendCommandFunc(ctx, cmd)
}

// SetPath calls the injected SetPath or the real version.
func (c *Controller) SetPath(ctx context.Context, trajectory []float64) error {
	if c.SetPathFunc == nil {
		return c.Controller.SetPath(ctx, trajectory)
	}
	return c.SetPathFunc(ctx, trajectory)
}

// IsDone calls the injected IsDone or the real version.
func (c *Controller) IsDone() bool {
	if c.IsDoneFunc == nil {
		return c.Controller.IsDone()
	}
	return c.IsDoneFunc()
}

// Robot is an injected robot.
type Robot struct {
	sim.Robot
	NameFunc            func() string
	LinksFunc           func() []sim.Link
	JointsFunc          func() []sim.Joint
	ChainFunc           func(link sim.Link) []sim.Joint
	AttachedSensorsFunc func() []sim.AttachedSensor
	ControllerFunc      func() sim.Controller
}

// NewRobot returns a robot named name with the given attachments and no controller.
func NewRobot(name string, sensors ...sim.AttachedSensor) *Robot {
	return &Robot{
		NameFunc:            func() string { return name },
		AttachedSensorsFunc: func() []sim.AttachedSensor { return sensors },
		ControllerFunc:      func() sim.Controller { return nil },
	}
}

// Name calls the injected Name or the real version.
func (r *Robot) Name() string {
	if r.NameFunc == nil {
		return r.Robot.Name()
	}
	return r.NameFunc()
}

// Links calls the injected Links or the real version.
func (r *Robot) Links() []sim.Link {
	if r.LinksFunc == nil {
		return r.Robot.Links()
	}
	return r.LinksFunc()
}

// Joints calls the injected Joints or the real version.
func (r *Robot) Joints() []sim.Joint {
	if r.JointsFunc == nil {
		return r.Robot.Joints()
	}
	return r.JointsFunc()
}

// Chain calls the injected Chain or the real version.
func (r *Robot) Chain(link sim.Link) []sim.Joint {
	if r.ChainFunc == nil {
		return r.Robot.Chain(link)
	}
	return r.ChainFunc(link)
}

// AttachedSensors calls the injected AttachedSensors or the real version.
func (r *Robot) AttachedSensors() []sim.AttachedSensor {
	if r.AttachedSensorsFunc == nil {
		return r.Robot.AttachedSensors()
	}
	return r.AttachedSensorsFunc()
}

// Controller calls the injected Controller or the real version.
func (r *Robot) Controller() sim.Controller {
	if r.ControllerFunc == nil {
		return r.Robot.Controller()
	}
	return r.ControllerFunc()
}
