package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	bridgeerr "github.com/GriffinCanCode/webbridge/internal/shared/errors"
	"github.com/GriffinCanCode/webbridge/internal/shared/id"
	"github.com/GriffinCanCode/webbridge/internal/window"
)

// Window serves the page to a real browser and carries bindings, returns and
// evaluations over one websocket. The most recent connection is the page; a
// new connection replaces the old one, as a reload would.
type Window struct {
	id     id.WindowID
	config Config
	logger *zap.Logger
	router *gin.Engine

	mu       sync.RWMutex
	client   *client
	initJS   string
	html     string
	url      string
	title    string
	width    int
	height   int
	hint     window.Hint
	bindings map[string]window.BindFunc
	addr     string

	terminate   chan struct{}
	termOnce    sync.Once
	destroyOnce sync.Once
}

var _ window.Window = (*Window)(nil)

// New creates a remote window. Nothing listens until Run; Handler can be
// mounted elsewhere instead.
func New(config Config) *Window {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &Window{
		id:        id.NewWindowID(),
		config:    config,
		bindings:  make(map[string]window.BindFunc),
		terminate: make(chan struct{}),
	}
	w.logger = logger.With(zap.String("window_id", w.id.String()))
	w.router = w.newRouter()
	return w
}

// ID returns the window identifier
func (w *Window) ID() id.WindowID {
	return w.id
}

// Handler returns the HTTP handler serving the page and its socket
func (w *Window) Handler() http.Handler {
	return w.router
}

// Addr returns the address Run is listening on, or "" before Run
func (w *Window) Addr() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.addr
}

// Run serves until Terminate or Destroy
func (w *Window) Run() error {
	ln, err := net.Listen("tcp", w.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", w.config.Addr, err)
	}

	w.mu.Lock()
	w.addr = ln.Addr().String()
	w.mu.Unlock()

	srv := &http.Server{
		Handler:           w.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	w.logger.Info("Remote window listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-w.terminate:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// Terminate makes Run return
func (w *Window) Terminate() {
	w.termOnce.Do(func() { close(w.terminate) })
}

// Destroy stops serving and disconnects the page
func (w *Window) Destroy() {
	w.destroyOnce.Do(func() {
		w.Terminate()
		w.mu.Lock()
		c := w.client
		w.client = nil
		w.mu.Unlock()
		if c != nil {
			c.close()
		}
	})
}

func (w *Window) destroyed() bool {
	select {
	case <-w.terminate:
		return true
	default:
		return false
	}
}

// active returns the connected page, or nil
func (w *Window) active() *client {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.client
}

// push sends msg to the connected page if there is one
func (w *Window) push(msgType string, msg any) {
	if c := w.active(); c != nil && c.ready.Load() {
		if err := c.send(msgType, msg); err != nil {
			w.logger.Debug("Push to page failed", zap.String("type", msgType), zap.Error(err))
		}
	}
}

// Navigate points the page at url. A connected page follows right away;
// otherwise the next request for / is redirected.
func (w *Window) Navigate(url string) error {
	if w.destroyed() {
		return window.ErrDestroyed
	}
	w.mu.Lock()
	w.url = url
	w.mu.Unlock()
	w.push(msgNavigate, navigateMsg{Type: msgNavigate, URL: url})
	return nil
}

// SetHtml replaces the page served at / and reloads a connected page
func (w *Window) SetHtml(html string) error {
	if w.destroyed() {
		return window.ErrDestroyed
	}
	w.mu.Lock()
	w.html = html
	w.url = ""
	w.mu.Unlock()
	w.push(msgNavigate, navigateMsg{Type: msgNavigate, URL: "/"})
	return nil
}

// SetTitle sets the document title
func (w *Window) SetTitle(title string) {
	w.mu.Lock()
	w.title = title
	w.mu.Unlock()
	w.push(msgTitle, titleMsg{Type: msgTitle, Title: title})
}

// Title returns the last title set
func (w *Window) Title() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.title
}

// SetSize asks the browser to resize. Most browsers ignore it for windows
// they did not open.
func (w *Window) SetSize(width, height int, hint window.Hint) {
	w.mu.Lock()
	w.width, w.height, w.hint = width, height, hint
	w.mu.Unlock()
	w.push(msgResize, resizeMsg{Type: msgResize, Width: width, Height: height, Hint: hint.String()})
}

// Init replaces the script injected into every served page
func (w *Window) Init(js string) {
	w.mu.Lock()
	w.initJS = js
	w.mu.Unlock()
}

// Eval runs js in the connected page
func (w *Window) Eval(js string) error {
	c := w.active()
	if c == nil || !c.ready.Load() {
		return bridgeerr.Unavailable("eval")
	}
	if err := c.send(msgEval, evalMsg{Type: msgEval, JS: js}); err != nil {
		return bridgeerr.Unavailable("eval").WithCause(err)
	}
	return nil
}

// Bind exposes an async global function to the page
func (w *Window) Bind(name string, fn window.BindFunc) error {
	w.mu.Lock()
	if _, exists := w.bindings[name]; exists {
		w.mu.Unlock()
		return window.ErrAlreadyBound
	}
	w.bindings[name] = fn
	w.mu.Unlock()

	w.push(msgBind, bindMsg{Type: msgBind, Name: name})
	return nil
}

func (w *Window) binding(name string) (window.BindFunc, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	fn, ok := w.bindings[name]
	return fn, ok
}

func (w *Window) bindingNames() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	names := make([]string, 0, len(w.bindings))
	for name := range w.bindings {
		names = append(names, name)
	}
	return names
}

// Return settles a pending page call. Calls made by a page that has since
// been replaced are dropped.
func (w *Window) Return(seq string, status int, result string) error {
	tag, pageSeq, ok := strings.Cut(seq, ":")
	if !ok {
		return fmt.Errorf("invalid call sequence %q", seq)
	}

	c := w.active()
	if c == nil {
		if w.destroyed() {
			return window.ErrDestroyed
		}
		return bridgeerr.Unavailable("return")
	}
	if c.tag != tag {
		w.logger.Debug("Return for replaced page", zap.String("seq", seq))
		return nil
	}
	return c.send(msgReturn, returnMsg{Type: msgReturn, Seq: pageSeq, Status: status, Result: result})
}

// Loaded reports whether a page is connected and ready
func (w *Window) Loaded() bool {
	c := w.active()
	return c != nil && c.ready.Load()
}
