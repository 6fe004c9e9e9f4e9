package display

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Loop runs callbacks one at a time on the goroutine that calls Run. Callbacks scheduled with
// After become ready when their delay elapses on the loop's clock.
type Loop struct {
	clk   clock.Clock
	ready chan func()

	mu       sync.Mutex
	timers   map[*clock.Timer]struct{}
	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}
	running  bool
}

// NewLoop returns a loop driven by clk. A nil clock means the wall clock.
func NewLoop(clk clock.Clock) *Loop {
	if clk == nil {
		clk = clock.New()
	}
	return &Loop{
		clk:    clk,
		ready:  make(chan func(), 16),
		timers: map[*clock.Timer]struct{}{},
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// After schedules fn to run on the loop once d has elapsed. Scheduling after Quit does nothing.
func (l *Loop) After(d time.Duration, fn func()) {
	if d <= 0 {
		l.enqueue(fn)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.quitting() {
		return
	}
	var timer *clock.Timer
	timer = l.clk.AfterFunc(d, func() {
		l.mu.Lock()
		delete(l.timers, timer)
		l.mu.Unlock()
		l.enqueue(fn)
	})
	l.timers[timer] = struct{}{}
}

func (l *Loop) enqueue(fn func()) {
	select {
	case <-l.quit:
	case l.ready <- fn:
	}
}

// Run executes callbacks until Quit is called or ctx is done. It may only be called once.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return errAlreadyRunning
	}
	l.running = true
	l.mu.Unlock()
	defer close(l.done)

	for {
		// Quit wins over ready callbacks.
		select {
		case <-l.quit:
			return nil
		default:
		}

		select {
		case <-l.quit:
			return nil
		case <-ctx.Done():
			l.Quit()
			return ctx.Err()
		case fn := <-l.ready:
			fn()
		}
	}
}

// Quit asks Run to return and cancels pending timers. It does not wait; use Done for that.
func (l *Loop) Quit() {
	l.quitOnce.Do(func() {
		l.mu.Lock()
		close(l.quit)
		for timer := range l.timers {
			timer.Stop()
		}
		l.timers = nil
		l.mu.Unlock()
	})
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Pending returns the number of timers that have not fired yet.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}

func (l *Loop) quitting() bool {
	select {
	case <-l.quit:
		return true
	default:
		return false
	}
}
