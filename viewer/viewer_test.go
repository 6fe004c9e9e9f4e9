package viewer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"github.com/osbertngok/openrave/display"
	"github.com/osbertngok/openrave/logging"
	"github.com/osbertngok/openrave/rimage"
	"github.com/osbertngok/openrave/sim"
	"github.com/osbertngok/openrave/testutils/inject"
)

func solidFrame(stamp int64, width, height int, c color.RGBA) *sim.SensorData {
	pix := make([]byte, 0, width*height*3)
	for i := 0; i < width*height; i++ {
		pix = append(pix, c.R, c.G, c.B)
	}
	return &sim.SensorData{Stamp: stamp, Image: &sim.ImageData{Width: width, Height: height, Pix: pix}}
}

// frameSource hands out whatever frame was last set.
type frameSource struct {
	mu    sync.Mutex
	frame *sim.SensorData
	err   error
	calls atomic.Int32
}

func (fs *frameSource) set(frame *sim.SensorData, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.frame = frame
	fs.err = err
}

func (fs *frameSource) sensor() *inject.Sensor {
	s := inject.NewCamera("cam")
	s.SensorDataFunc = func(ctx context.Context, typ sim.SensorType) (*sim.SensorData, error) {
		fs.calls.Add(1)
		fs.mu.Lock()
		defer fs.mu.Unlock()
		return fs.frame, fs.err
	}
	return s
}

func newTestViewer(t *testing.T, fs *frameSource, clk clock.Clock, period time.Duration) (*Viewer, *display.Headless) {
	t.Helper()
	disp := display.NewHeadless()
	v := New(fs.sensor(), disp, Options{Title: "wristcam", PollPeriod: period, Clock: clk}, logging.NewTestLogger(t))
	t.Cleanup(v.Stop)
	return v, disp
}

// pollAtLeast advances the mock clock until the sensor has been polled n times.
func pollAtLeast(t *testing.T, mockClock *clock.Mock, fs *frameSource, n int32) {
	t.Helper()
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		mockClock.Add(DefaultPollPeriod)
		test.That(tb, fs.calls.Load(), test.ShouldBeGreaterThanOrEqualTo, n)
	})
}

func TestRenderOnlyNewStamps(t *testing.T) {
	mockClock := clock.NewMock()
	fs := &frameSource{}
	v, disp := newTestViewer(t, fs, mockClock, DefaultPollPeriod)
	test.That(t, v.Title(), test.ShouldEqual, "wristcam")
	test.That(t, v.LastStamp(), test.ShouldEqual, -1)

	v.Start()
	v.Start()

	// no frame yet: nothing opens
	pollAtLeast(t, mockClock, fs, 2)
	test.That(t, disp.Windows(), test.ShouldBeEmpty)
	test.That(t, v.RenderCount(), test.ShouldEqual, 0)

	fs.set(solidFrame(7, 4, 2, color.RGBA{R: 255, A: 255}), nil)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		mockClock.Add(DefaultPollPeriod)
		test.That(tb, v.RenderCount(), test.ShouldEqual, 1)
	})
	test.That(t, v.LastStamp(), test.ShouldEqual, 7)

	// the same stamp is never rendered twice
	calls := fs.calls.Load()
	pollAtLeast(t, mockClock, fs, calls+3)
	test.That(t, v.RenderCount(), test.ShouldEqual, 1)

	fs.set(solidFrame(8, 4, 2, color.RGBA{G: 255, A: 255}), nil)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		mockClock.Add(DefaultPollPeriod)
		test.That(tb, v.RenderCount(), test.ShouldEqual, 2)
	})

	windows := disp.Windows()
	test.That(t, windows, test.ShouldHaveLength, 1)
	test.That(t, windows[0].Title(), test.ShouldEqual, "wristcam")
	test.That(t, windows[0].Presents(), test.ShouldEqual, 2)
	test.That(t, v.Err(), test.ShouldBeNil)

	v.Stop()
	v.Stop()
	test.That(t, windows[0].Closed(), test.ShouldBeTrue)
}

func TestCanvasKeepsFirstFrameSize(t *testing.T) {
	mockClock := clock.NewMock()
	fs := &frameSource{}
	fs.set(solidFrame(1, 4, 4, color.RGBA{B: 255, A: 255}), nil)
	v, disp := newTestViewer(t, fs, mockClock, DefaultPollPeriod)
	v.Start()

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, v.RenderCount(), test.ShouldEqual, 1)
	})

	fs.set(solidFrame(2, 8, 2, color.RGBA{R: 255, G: 255, A: 255}), nil)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		mockClock.Add(DefaultPollPeriod)
		test.That(tb, v.RenderCount(), test.ShouldEqual, 2)
	})

	last := disp.Windows()[0].Last()
	test.That(t, last.Bounds(), test.ShouldResemble, image.Rect(0, 0, 4, 4))
	// the wide frame is centered: the middle rows are yellow, the rest is canvas
	test.That(t, color.RGBAModel.Convert(last.At(0, 1)), test.ShouldResemble, color.RGBA{R: 255, G: 255, A: 255})
	test.That(t, color.RGBAModel.Convert(last.At(0, 0)), test.ShouldResemble, color.RGBA{A: 255})
}

func TestSensorErrorStopsPolling(t *testing.T) {
	mockClock := clock.NewMock()
	fs := &frameSource{}
	fs.set(nil, errors.New("sensor unplugged"))
	v, _ := newTestViewer(t, fs, mockClock, DefaultPollPeriod)
	v.Start()

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, v.Err(), test.ShouldNotBeNil)
	})
	test.That(t, v.Err().Error(), test.ShouldContainSubstring, "sensor unplugged")

	for i := 0; i < 5; i++ {
		mockClock.Add(DefaultPollPeriod)
	}
	test.That(t, fs.calls.Load(), test.ShouldEqual, 1)
}

func TestDecodeErrorStopsPolling(t *testing.T) {
	mockClock := clock.NewMock()
	fs := &frameSource{}
	bad := solidFrame(1, 4, 4, color.RGBA{})
	bad.Image.Pix = bad.Image.Pix[:10]
	fs.set(bad, nil)
	v, disp := newTestViewer(t, fs, mockClock, DefaultPollPeriod)
	v.Start()

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, v.Err(), test.ShouldNotBeNil)
	})
	test.That(t, errors.Is(v.Err(), rimage.ErrShortBuffer), test.ShouldBeTrue)
	test.That(t, disp.Windows(), test.ShouldBeEmpty)
}

func TestSaveSnapshot(t *testing.T) {
	mockClock := clock.NewMock()
	fs := &frameSource{}
	v, _ := newTestViewer(t, fs, mockClock, DefaultPollPeriod)
	dir := t.TempDir()

	test.That(t, v.SaveSnapshot(filepath.Join(dir, "early.png")), test.ShouldBeError, ErrNoImage)

	frame := solidFrame(3, 5, 3, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	fs.set(frame, nil)
	v.Start()
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, v.RenderCount(), test.ShouldEqual, 1)
	})

	fn := filepath.Join(dir, "image0.png")
	test.That(t, v.SaveSnapshot(fn), test.ShouldBeNil)
	saved, err := rimage.ReadImageFromFile(fn)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rimage.EncodeRGB(saved), test.ShouldResemble, frame.Image.Pix)

	test.That(t, v.SaveSnapshot(filepath.Join(dir, "missing", "image0.png")), test.ShouldNotBeNil)
}

func TestConcurrentSaveNeverTorn(t *testing.T) {
	fs := &frameSource{}
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	fs.set(solidFrame(0, 32, 32, red), nil)
	v, _ := newTestViewer(t, fs, nil, time.Millisecond)
	v.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for stamp := int64(1); ctx.Err() == nil; stamp++ {
			c := red
			if stamp%2 == 1 {
				c = blue
			}
			fs.set(solidFrame(stamp, 32, 32, c), nil)
			time.Sleep(time.Millisecond)
		}
	}()

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, v.RenderCount(), test.ShouldBeGreaterThan, 0)
	})

	dir := t.TempDir()
	for i := 0; i < 20; i++ {
		fn := filepath.Join(dir, fmt.Sprintf("image%d.png", i))
		test.That(t, v.SaveSnapshot(fn), test.ShouldBeNil)
		saved, err := rimage.ReadImageFromFile(fn)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, rimage.SameImage(saved, solidImage(32, 32, red)) || rimage.SameImage(saved, solidImage(32, 32, blue)),
			test.ShouldBeTrue)
		time.Sleep(time.Millisecond)
	}
	cancel()
	wg.Wait()
}

func solidImage(width, height int, c color.RGBA) image.Image {
	frame := solidFrame(0, width, height, c)
	img, err := rimage.DecodeRGB(width, height, frame.Image.Pix)
	if err != nil {
		panic(err)
	}
	return img
}
