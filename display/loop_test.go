package display

import (
	"context"
	"image"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"
	goutils "go.viam.com/utils"
	"go.viam.com/utils/testutils"
)

func startLoop(t *testing.T, loop *Loop) {
	t.Helper()
	goutils.PanicCapturingGo(func() {
		//nolint:errcheck
		loop.Run(context.Background())
	})
	t.Cleanup(func() {
		loop.Quit()
		<-loop.Done()
	})
}

func TestLoopAfter(t *testing.T) {
	mockClock := clock.NewMock()
	loop := NewLoop(mockClock)
	startLoop(t, loop)

	var order []int
	var ran atomic.Int32
	loop.After(0, func() {
		order = append(order, 0)
		ran.Add(1)
	})
	loop.After(200*time.Millisecond, func() {
		order = append(order, 2)
		ran.Add(1)
	})
	loop.After(100*time.Millisecond, func() {
		order = append(order, 1)
		ran.Add(1)
	})

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, ran.Load(), test.ShouldEqual, 1)
	})
	test.That(t, loop.Pending(), test.ShouldEqual, 2)

	mockClock.Add(100 * time.Millisecond)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, ran.Load(), test.ShouldEqual, 2)
	})
	mockClock.Add(100 * time.Millisecond)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, ran.Load(), test.ShouldEqual, 3)
	})
	test.That(t, order, test.ShouldResemble, []int{0, 1, 2})
	test.That(t, loop.Pending(), test.ShouldEqual, 0)
}

func TestLoopQuit(t *testing.T) {
	mockClock := clock.NewMock()
	loop := NewLoop(mockClock)
	startLoop(t, loop)

	var ran atomic.Int32
	loop.After(time.Second, func() { ran.Add(1) })
	test.That(t, loop.Pending(), test.ShouldEqual, 1)

	loop.Quit()
	<-loop.Done()
	loop.Quit()
	test.That(t, loop.Pending(), test.ShouldEqual, 0)

	mockClock.Add(time.Second)
	loop.After(0, func() { ran.Add(1) })
	loop.After(time.Second, func() { ran.Add(1) })
	test.That(t, ran.Load(), test.ShouldEqual, 0)

	test.That(t, loop.Run(context.Background()), test.ShouldNotBeNil)
}

func TestLoopContextCancel(t *testing.T) {
	loop := NewLoop(nil)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	goutils.PanicCapturingGo(func() {
		errCh <- loop.Run(ctx)
	})
	cancel()
	test.That(t, <-errCh, test.ShouldEqual, context.Canceled)
	<-loop.Done()
}

func TestHeadless(t *testing.T) {
	disp := NewHeadless()
	w, err := disp.Open("cam")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, w.Title(), test.ShouldEqual, "cam")

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	test.That(t, w.Present(img), test.ShouldBeNil)
	hw := disp.Windows()[0]
	test.That(t, hw.Presents(), test.ShouldEqual, 1)
	test.That(t, hw.Last(), test.ShouldEqual, img)

	test.That(t, disp.Close(), test.ShouldBeNil)
	test.That(t, hw.Closed(), test.ShouldBeTrue)
	test.That(t, w.Present(img), test.ShouldBeError, ErrClosed)
	_, err = disp.Open("late")
	test.That(t, err, test.ShouldBeError, ErrClosed)
}
