// Package display provides the windows viewers draw into and the event loop that drives them.
package display

import (
	"image"

	"github.com/pkg/errors"
)

// ErrClosed is returned when drawing into a closed window or opening on a closed display.
var ErrClosed = errors.New("display closed")

var errAlreadyRunning = errors.New("loop already running")

// Display opens windows.
type Display interface {
	Open(title string) (Window, error)
	Close() error
}

// Window shows one image at a time.
type Window interface {
	Title() string
	// Present replaces what the window shows. The window must not modify img.
	Present(img image.Image) error
	Close() error
}
