// Package web serves viewer windows over HTTP as PNG snapshots and MJPEG streams.
package web

import (
	"context"
	"fmt"
	"html/template"
	"image"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"go.uber.org/multierr"
	"goji.io"
	"goji.io/pat"

	"github.com/osbertngok/openrave/display"
	"github.com/osbertngok/openrave/logging"
	"github.com/osbertngok/openrave/utils"
)

// JPEGQuality is the quality of MJPEG stream frames.
const JPEGQuality = 80

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html><head><title>Camera Viewer</title></head>
<body>
<h1>Camera Viewer</h1>
<ul>{{range .}}
<li><a href="/windows/{{.ID}}">{{.Title}}</a></li>{{end}}
</ul>
</body></html>
`))

var windowTemplate = template.Must(template.New("window").Parse(`<!DOCTYPE html>
<html><head><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<img src="/windows/{{.ID}}/stream.mjpeg" alt="{{.Title}}">
</body></html>
`))

// Server is a display whose windows are web pages.
type Server struct {
	logger logging.Logger

	mu         sync.Mutex
	windows    []*Window
	closed     bool
	httpServer *http.Server
	workers    *utils.StoppableWorkers
}

var _ display.Display = (*Server)(nil)

// NewServer returns a server with no windows. Call Start to listen.
func NewServer(logger logging.Logger) *Server {
	return &Server{logger: logger}
}

// Handler returns the HTTP handler for all routes.
func (s *Server) Handler() http.Handler {
	mux := goji.NewMux()
	mux.HandleFunc(pat.Get("/"), s.serveIndex)
	mux.HandleFunc(pat.Get("/windows/:name"), s.serveWindow)
	mux.HandleFunc(pat.Get("/windows/:name/frame.png"), s.serveFrame)
	mux.HandleFunc(pat.Get("/windows/:name/stream.mjpeg"), s.serveStream)
	return cors.AllowAll().Handler(mux)
}

// Start listens on addr and serves in the background. It returns the bound address.
func (s *Server) Start(addr string) (net.Addr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, display.ErrClosed
	}
	if s.httpServer != nil {
		return nil, errors.New("server already started")
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s.httpServer = &http.Server{
		Addr:              listener.Addr().String(),
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Handler:           s.Handler(),
	}
	httpServer := s.httpServer
	s.workers = utils.NewStoppableWorkers(func(ctx context.Context) {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorw("error serving", "error", err)
		}
	})
	s.logger.Infow("serving", "url", fmt.Sprintf("http://%s", listener.Addr().String()))
	return listener.Addr(), nil
}

// Open creates a window served under its id and its title.
func (s *Server) Open(title string) (display.Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, display.ErrClosed
	}
	w := &Window{id: uuid.NewString(), title: title, updated: make(chan struct{})}
	s.windows = append(s.windows, w)
	s.logger.Debugw("window opened", "title", title, "id", w.id)
	return w, nil
}

// Windows returns the open windows in the order they were opened.
func (s *Server) Windows() []*Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Window, 0, len(s.windows))
	for _, w := range s.windows {
		if !w.Closed() {
			out = append(out, w)
		}
	}
	return out
}

// Close closes every window and shuts the HTTP server down.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	windows := s.windows
	httpServer := s.httpServer
	workers := s.workers
	s.mu.Unlock()

	var err error
	for _, w := range windows {
		err = multierr.Combine(err, w.Close())
	}
	if httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = multierr.Combine(err, httpServer.Shutdown(ctx))
		workers.Stop()
	}
	return err
}

func (s *Server) lookup(name string) (*Window, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.windows {
		if w.id == name && !w.Closed() {
			return w, true
		}
	}
	for _, w := range s.windows {
		if w.title == name && !w.Closed() {
			return w, true
		}
	}
	return nil, false
}

type windowInfo struct {
	ID    string
	Title string
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	windows := s.Windows()
	infos := make([]windowInfo, 0, len(windows))
	for _, win := range windows {
		infos = append(infos, windowInfo{ID: win.id, Title: win.title})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, infos); err != nil {
		s.logger.Debugw("couldn't render index", "error", err)
	}
}

func (s *Server) serveWindow(w http.ResponseWriter, r *http.Request) {
	win, ok := s.lookup(pat.Param(r, "name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := windowTemplate.Execute(w, windowInfo{ID: win.id, Title: win.title}); err != nil {
		s.logger.Debugw("couldn't render window", "error", err)
	}
}

func (s *Server) serveFrame(w http.ResponseWriter, r *http.Request) {
	win, ok := s.lookup(pat.Param(r, "name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	img, _, _ := win.latest()
	if img == nil {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		s.logger.Debugw("couldn't write frame", "window", win.title, "error", err)
	}
}

func (s *Server) serveStream(w http.ResponseWriter, r *http.Request) {
	win, ok := s.lookup(pat.Param(r, "name"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	mw := multipart.NewWriter(w)
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+mw.Boundary())
	w.Header().Set("Cache-Control", "no-cache")
	flusher, _ := w.(http.Flusher)

	var lastSeq uint64
	for {
		img, seq, updated := win.latest()
		if img != nil && seq != lastSeq {
			part, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"image/jpeg"}})
			if err != nil {
				return
			}
			if err := imaging.Encode(part, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
				s.logger.Debugw("stream closed", "window", win.title, "error", err)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
			lastSeq = seq
		}
		if updated == nil {
			return
		}
		select {
		case <-r.Context().Done():
			return
		case <-updated:
		}
	}
}

// Window is a display window backed by the server.
type Window struct {
	id    string
	title string

	mu      sync.Mutex
	frame   image.Image
	seq     uint64
	updated chan struct{}
	closed  bool
}

// ID returns the unique id used in URLs.
func (w *Window) ID() string { return w.id }

// Title returns the window title.
func (w *Window) Title() string { return w.title }

// Present publishes img to every viewer of the window.
func (w *Window) Present(img image.Image) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return display.ErrClosed
	}
	w.frame = img
	w.seq++
	close(w.updated)
	w.updated = make(chan struct{})
	return nil
}

// Closed reports whether the window was closed.
func (w *Window) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Close ends every stream of the window.
func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	close(w.updated)
	w.updated = nil
	return nil
}

// latest returns the current frame, its sequence number and a channel closed on the next
// change. The channel is nil once the window is closed.
func (w *Window) latest() (image.Image, uint64, <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.updated == nil {
		return w.frame, w.seq, nil
	}
	return w.frame, w.seq, w.updated
}
