// Package scene loads a scene, picks a robot and opens a viewer for each of its cameras.
package scene

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.opencensus.io/trace"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/osbertngok/openrave/display"
	"github.com/osbertngok/openrave/logging"
	"github.com/osbertngok/openrave/sim"
	"github.com/osbertngok/openrave/viewer"
)

// Defaults applied by New.
const (
	DefaultSettleDelay   = time.Second
	DefaultFallbackTitle = "Camera Sensor"
)

var (
	// ErrLoadFailed is returned when the scene file cannot be loaded.
	ErrLoadFailed = errors.New("failed to open scene file")
	// ErrNoRobots is returned when the scene has no robots.
	ErrNoRobots = errors.New("no robots found in scene")
	// ErrRobotNotFound is returned when no robot has the requested name.
	ErrRobotNotFound = errors.New("robot not found in scene")
)

// Options configure a Scene. An empty RobotName selects the first robot. SettleDelay is how long
// cameras get to produce a first frame after power on.
type Options struct {
	SceneFile     string
	RobotName     string
	SettleDelay   time.Duration
	PollPeriod    time.Duration
	FallbackTitle string
	Clock         clock.Clock
}

// Scene owns the viewers of one robot's cameras.
type Scene struct {
	env     sim.Environment
	robot   sim.Robot
	cameras []sim.Sensor
	viewers []*viewer.Viewer
	logger  logging.Logger

	closeOnce sync.Once
	closeErr  error
}

// New loads opts.SceneFile into env, powers on the cameras of the selected robot, waits for them
// to settle and starts a viewer for every camera that produced a frame.
func New(
	ctx context.Context,
	env sim.Environment,
	disp display.Display,
	opts Options,
	logger logging.Logger,
) (*Scene, error) {
	ctx, span := trace.StartSpan(ctx, "scene::New")
	defer span.End()

	if opts.SettleDelay == 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.FallbackTitle == "" {
		opts.FallbackTitle = DefaultFallbackTitle
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	if err := env.Load(ctx, opts.SceneFile); err != nil {
		return nil, errors.Wrapf(multierr.Combine(ErrLoadFailed, err), "scene %s", opts.SceneFile)
	}
	robots := env.Robots()
	if len(robots) == 0 {
		return nil, errors.Wrapf(ErrNoRobots, "scene %s", opts.SceneFile)
	}
	robot, err := selectRobot(robots, opts.RobotName)
	if err != nil {
		return nil, err
	}

	s := &Scene{env: env, robot: robot, logger: logger}
	attached := lo.Filter(robot.AttachedSensors(), func(as sim.AttachedSensor, _ int) bool {
		sensor := as.Sensor()
		return sensor != nil && sensor.Supports(sim.SensorTypeCamera)
	})
	for _, as := range attached {
		logger.CDebugw(ctx, "powering on camera sensor", "sensor", as.Name(), "robot", robot.Name())
		if err := as.Sensor().Configure(ctx, sim.PowerOn); err != nil {
			return nil, multierr.Combine(
				errors.Wrapf(err, "cannot power on sensor %q", as.Name()),
				s.powerOff(ctx),
			)
		}
		s.cameras = append(s.cameras, as.Sensor())
	}

	if err := sleep(ctx, opts.Clock, opts.SettleDelay); err != nil {
		return nil, multierr.Combine(err, s.powerOff(ctx))
	}

	logger.CDebugw(ctx, "camera sensors settled", "delay", opts.SettleDelay)
	frames, err := firstFrames(ctx, attached)
	if err != nil {
		return nil, multierr.Combine(err, s.powerOff(ctx))
	}
	for idx, as := range attached {
		if frames[idx] == nil {
			logger.Warnw("camera sensor produced no data, skipping", "sensor", as.Name())
			continue
		}
		title := viewerTitle(as, opts.FallbackTitle)
		s.viewers = append(s.viewers, viewer.New(as.Sensor(), disp, viewer.Options{
			Title:      title,
			PollPeriod: opts.PollPeriod,
			Clock:      opts.Clock,
		}, logger.Sublogger("viewer")))
	}

	logger.Infof("found %d camera sensors on robot %s", len(s.viewers), robot.Name())
	for _, v := range s.viewers {
		v.Start()
	}
	return s, nil
}

func selectRobot(robots []sim.Robot, name string) (sim.Robot, error) {
	if name == "" {
		return robots[0], nil
	}
	robot, ok := sim.RobotNamed(robots, name)
	if !ok {
		names := lo.Map(robots, func(r sim.Robot, _ int) string { return r.Name() })
		return nil, errors.Wrapf(ErrRobotNotFound, "%q (have %v)", name, names)
	}
	return robot, nil
}

// viewerTitle prefers the attachment name, then the sensor name, then fallback.
func viewerTitle(as sim.AttachedSensor, fallback string) string {
	if title := as.Name(); title != "" {
		return title
	}
	if title := as.Sensor().Name(); title != "" {
		return title
	}
	return fallback
}

func sleep(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := clk.Timer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// firstFrames fetches one frame from every sensor concurrently. Entries are nil for sensors
// that have no frame yet.
func firstFrames(ctx context.Context, attached []sim.AttachedSensor) ([]*sim.SensorData, error) {
	frames := make([]*sim.SensorData, len(attached))
	g, gctx := errgroup.WithContext(ctx)
	for idx, as := range attached {
		g.Go(func() error {
			data, err := as.Sensor().SensorData(gctx, sim.SensorTypeCamera)
			if err != nil {
				return errors.Wrapf(err, "cannot get data from sensor %q", as.Name())
			}
			frames[idx] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}

// Robot returns the selected robot.
func (s *Scene) Robot() sim.Robot { return s.robot }

// Viewers returns the running viewers in attachment order.
func (s *Scene) Viewers() []*viewer.Viewer {
	return append([]*viewer.Viewer(nil), s.viewers...)
}

// QuitViewers stops every viewer.
func (s *Scene) QuitViewers() {
	var wg sync.WaitGroup
	for _, v := range s.viewers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.Stop()
		}()
	}
	wg.Wait()
}

// CaptureAll saves the current frame of every viewer as image<N>.png in dir. It returns the files
// written; viewers without a frame are reported in the error.
func (s *Scene) CaptureAll(dir string) ([]string, error) {
	var (
		written []string
		err     error
	)
	for idx, v := range s.viewers {
		fn := filepath.Join(dir, fmt.Sprintf("image%d.png", idx))
		s.logger.Infof("saving %s", fn)
		if saveErr := v.SaveSnapshot(fn); saveErr != nil {
			err = multierr.Combine(err, errors.Wrapf(saveErr, "viewer %q", v.Title()))
			continue
		}
		written = append(written, fn)
	}
	return written, err
}

// Close stops the viewers and powers off the cameras. Later calls return the first result.
func (s *Scene) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		ctx, span := trace.StartSpan(ctx, "scene::Close")
		defer span.End()
		s.QuitViewers()
		s.closeErr = s.powerOff(ctx)
	})
	return s.closeErr
}

func (s *Scene) powerOff(ctx context.Context) error {
	var err error
	for _, sensor := range s.cameras {
		err = multierr.Combine(err, sensor.Configure(ctx, sim.PowerOff))
	}
	return err
}
