package display

import (
	"image"
	"sync"
)

// Headless is a display that keeps the last presented image of every window in memory.
type Headless struct {
	mu      sync.Mutex
	windows []*HeadlessWindow
	closed  bool
}

// NewHeadless returns an empty headless display.
func NewHeadless() *Headless {
	return &Headless{}
}

// Open creates a window.
func (h *Headless) Open(title string) (Window, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	w := &HeadlessWindow{title: title}
	h.windows = append(h.windows, w)
	return w, nil
}

// Windows returns every window opened so far, including closed ones.
func (h *Headless) Windows() []*HeadlessWindow {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*HeadlessWindow(nil), h.windows...)
}

// Close closes every window.
func (h *Headless) Close() error {
	h.mu.Lock()
	windows := h.windows
	h.closed = true
	h.mu.Unlock()
	for _, w := range windows {
		//nolint:errcheck
		w.Close()
	}
	return nil
}

// HeadlessWindow records what was presented to it.
type HeadlessWindow struct {
	title string

	mu       sync.Mutex
	last     image.Image
	presents int
	closed   bool
}

// Title returns the window title.
func (w *HeadlessWindow) Title() string { return w.title }

// Present stores img.
func (w *HeadlessWindow) Present(img image.Image) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	w.last = img
	w.presents++
	return nil
}

// Last returns the last presented image, or nil.
func (w *HeadlessWindow) Last() image.Image {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Presents returns how many images were presented.
func (w *HeadlessWindow) Presents() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.presents
}

// Closed reports whether Close was called.
func (w *HeadlessWindow) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Close marks the window closed.
func (w *HeadlessWindow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}
