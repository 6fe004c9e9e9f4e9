// Package viewer shows the frames of one camera sensor in a display window.
package viewer

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/osbertngok/openrave/display"
	"github.com/osbertngok/openrave/logging"
	"github.com/osbertngok/openrave/sim"
	"github.com/osbertngok/openrave/utils"
)

// DefaultPollPeriod is the time between sensor polls.
const DefaultPollPeriod = 100 * time.Millisecond

// DefaultTitle is the window title of viewers created without one.
const DefaultTitle = "Camera Viewer"

// Options configure a Viewer.
type Options struct {
	Title      string
	PollPeriod time.Duration
	// Clock drives polling. Nil means the wall clock.
	Clock clock.Clock
}

// Viewer polls a sensor and presents every new frame, centered on a canvas the size of the first
// frame. Polling and rendering happen on the viewer's own loop goroutine.
type Viewer struct {
	sensor sim.Sensor
	disp   display.Display
	title  string
	period time.Duration
	logger logging.Logger

	bitmap  Bitmap
	loop    *display.Loop
	workers *utils.StoppableWorkers

	// Only touched on the loop goroutine, or after it has exited.
	window display.Window
	canvas *image.NRGBA

	mu        sync.Mutex
	lastStamp int64
	rendered  bool
	renders   int
	err       error
	started   bool
	stopped   bool
}

// New returns a viewer for sensor. Nothing happens until Start.
func New(sensor sim.Sensor, disp display.Display, opts Options, logger logging.Logger) *Viewer {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.PollPeriod <= 0 {
		opts.PollPeriod = DefaultPollPeriod
	}
	return &Viewer{
		sensor:    sensor,
		disp:      disp,
		title:     opts.Title,
		period:    opts.PollPeriod,
		logger:    logger,
		loop:      display.NewLoop(opts.Clock),
		workers:   utils.NewStoppableWorkers(),
		lastStamp: -1,
	}
}

// Title returns the window title.
func (v *Viewer) Title() string { return v.title }

// Sensor returns the sensor being viewed.
func (v *Viewer) Sensor() sim.Sensor { return v.sensor }

// Start runs the viewer loop and schedules the first poll immediately. Later calls do nothing.
func (v *Viewer) Start() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.started || v.stopped {
		return
	}
	v.started = true

	v.loop.After(0, v.poll)
	v.workers.AddWorkers(func(ctx context.Context) {
		if err := v.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			v.logger.Debugw("viewer loop exited", "error", err)
		}
	})
}

// Stop ends polling, waits for the loop goroutine and closes the window. It is safe to call more
// than once and before Start.
func (v *Viewer) Stop() {
	v.mu.Lock()
	if v.stopped {
		v.mu.Unlock()
		return
	}
	v.stopped = true
	v.mu.Unlock()

	v.loop.Quit()
	v.workers.Stop()
	if v.window != nil {
		if err := v.window.Close(); err != nil {
			v.logger.Debugw("error closing window", "title", v.title, "error", err)
		}
	}
}

// SaveSnapshot writes the current frame to path. It may be called from any goroutine.
func (v *Viewer) SaveSnapshot(path string) error {
	return v.bitmap.Save(path)
}

// Image returns the current frame, or nil before the first one.
func (v *Viewer) Image() image.Image {
	return v.bitmap.Image()
}

// Err returns the error that stopped polling, if any.
func (v *Viewer) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// RenderCount returns the number of frames presented.
func (v *Viewer) RenderCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.renders
}

// LastStamp returns the stamp of the last presented frame, or -1.
func (v *Viewer) LastStamp() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastStamp
}

func (v *Viewer) poll() {
	ctx := v.workers.Context()
	data, err := v.sensor.SensorData(ctx, sim.SensorTypeCamera)
	if err != nil {
		v.fail(errors.Wrap(err, "cannot get sensor data"))
		return
	}
	if data != nil && data.Image != nil && v.isNew(data.Stamp) {
		if err := v.render(data); err != nil {
			v.fail(err)
			return
		}
	}
	v.loop.After(v.period, v.poll)
}

func (v *Viewer) isNew(stamp int64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.rendered || stamp != v.lastStamp
}

func (v *Viewer) render(data *sim.SensorData) error {
	if err := v.bitmap.Update(data.Image.Width, data.Image.Height, data.Image.Pix); err != nil {
		return errors.Wrapf(err, "cannot decode frame %d", data.Stamp)
	}
	frame := v.bitmap.Image()

	if v.window == nil {
		window, err := v.disp.Open(v.title)
		if err != nil {
			return errors.Wrap(err, "cannot open window")
		}
		v.window = window
		v.canvas = imaging.New(data.Image.Width, data.Image.Height, color.Black)
		v.logger.Debugw("window opened", "title", v.title, "width", data.Image.Width, "height", data.Image.Height)
	}
	if err := v.window.Present(imaging.PasteCenter(v.canvas, frame)); err != nil {
		return errors.Wrap(err, "cannot present frame")
	}

	v.mu.Lock()
	v.lastStamp = data.Stamp
	v.rendered = true
	v.renders++
	v.mu.Unlock()
	return nil
}

func (v *Viewer) fail(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	// errors caused by Stop cancelling an in-flight poll are not failures
	if v.stopped {
		return
	}
	v.err = err
	v.logger.Errorw("viewer stopped polling", "title", v.title, "error", err)
}
