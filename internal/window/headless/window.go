package headless

import (
	"sync"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webbridge/internal/infrastructure/resilience"
	bridgeerr "github.com/GriffinCanCode/webbridge/internal/shared/errors"
	"github.com/GriffinCanCode/webbridge/internal/shared/id"
	"github.com/GriffinCanCode/webbridge/internal/window"
)

// Window runs pages in a goja VM. Every VM access happens on one loop
// goroutine; binding callbacks run in order on a second goroutine so they may
// block without stalling the page.
type Window struct {
	id     id.WindowID
	config Config
	logger *zap.Logger
	client *resty.Client
	hosts  *resilience.Group

	loop  *jobQueue // VM work
	calls *jobQueue // binding callbacks

	// loop goroutine only
	page *page

	seq    atomic.Uint64
	loaded atomic.Bool

	mu       sync.RWMutex
	initJS   string
	bindings map[string]window.BindFunc
	title    string
	width    int
	height   int
	hint     window.Hint
	url      string

	console   []LogEntry
	consoleMu sync.Mutex

	terminate   chan struct{}
	termOnce    sync.Once
	destroyOnce sync.Once
}

var _ window.Window = (*Window)(nil)

// New creates a headless window and starts its loop
func New(config Config) *Window {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &Window{
		id:        id.NewWindowID(),
		config:    config,
		logger:    logger,
		client:    resty.New().SetTimeout(config.FetchTimeout).SetHeader("User-Agent", "webbridge-headless/1.0"),
		loop:      newJobQueue(),
		calls:     newJobQueue(),
		bindings:  make(map[string]window.BindFunc),
		terminate: make(chan struct{}),
	}
	w.logger = w.logger.With(zap.String("window_id", w.id.String()))

	breaker := config.FetchBreaker
	if breaker.OnStateChange == nil {
		breaker.OnStateChange = func(host string, from, to resilience.State) {
			w.logger.Info("Fetch circuit changed",
				zap.String("host", host),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		}
	}
	w.hosts = resilience.NewGroup(breaker)

	go w.loop.run(w.exec)
	go w.calls.run(w.exec)

	return w
}

// ID returns the window identifier
func (w *Window) ID() id.WindowID {
	return w.id
}

// exec runs one job and keeps a panicking job from killing the loop
func (w *Window) exec(job func()) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Window job panicked", zap.Any("panic", r))
		}
	}()
	job()
}

// Run blocks until Terminate or Destroy
func (w *Window) Run() error {
	<-w.terminate
	return nil
}

// Terminate makes Run return
func (w *Window) Terminate() {
	w.termOnce.Do(func() { close(w.terminate) })
}

// Destroy stops both loops after their queued work and releases the page
func (w *Window) Destroy() {
	w.destroyOnce.Do(func() {
		w.Terminate()
		w.loaded.Store(false)
		w.loop.post(func() {
			if w.page != nil {
				w.page.stop()
				w.page = nil
			}
		})
		w.calls.close()
		w.loop.close()
		<-w.loop.done
		<-w.calls.done
	})
}

// SetTitle sets the window title
func (w *Window) SetTitle(title string) {
	w.mu.Lock()
	w.title = title
	w.mu.Unlock()
}

// Title returns the window title
func (w *Window) Title() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.title
}

// SetSize records the window size. There is no viewport to resize.
func (w *Window) SetSize(width, height int, hint window.Hint) {
	w.mu.Lock()
	w.width, w.height, w.hint = width, height, hint
	w.mu.Unlock()
}

// Size returns the last size set
func (w *Window) Size() (width, height int, hint window.Hint) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.width, w.height, w.hint
}

// URL returns the address of the current page
func (w *Window) URL() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.url
}

// Init replaces the script evaluated before each page's own scripts
func (w *Window) Init(js string) {
	w.mu.Lock()
	w.initJS = js
	w.mu.Unlock()
}

func (w *Window) initScript() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.initJS
}

// Eval queues js for the current page. Script errors are logged and
// captured as console errors.
func (w *Window) Eval(js string) error {
	if !w.loaded.Load() {
		return bridgeerr.Unavailable("eval")
	}
	if !w.loop.post(func() {
		if w.page != nil {
			_, _ = w.page.run("eval", js)
		}
	}) {
		return window.ErrDestroyed
	}
	return nil
}

// Bind exposes an async global function. Calls resolve when Return is called
// with the sequence handed to fn.
func (w *Window) Bind(name string, fn window.BindFunc) error {
	w.mu.Lock()
	if _, exists := w.bindings[name]; exists {
		w.mu.Unlock()
		return window.ErrAlreadyBound
	}
	w.bindings[name] = fn
	w.mu.Unlock()

	if w.loaded.Load() {
		w.loop.post(func() {
			if w.page != nil {
				w.page.installBinding(name)
			}
		})
	}
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

// Return settles a pending binding call. Calls made by a page that has since
// been replaced are ignored.
func (w *Window) Return(seq string, status int, result string) error {
	if !w.loop.post(func() {
		if w.page != nil {
			w.page.settle(seq, status, result)
		}
	}) {
		return window.ErrDestroyed
	}
	return nil
}

// deliver hands one page call to its binding on the calls goroutine
func (w *Window) deliver(name, seq, req string) {
	fn, ok := w.binding(name)
	if !ok {
		w.logger.Warn("Call to unknown binding", zap.String("name", name))
		_ = w.Return(seq, window.StatusError, `{"code":"capability_not_found","message":"unknown binding"}`)
		return
	}
	fn(seq, req)
}

// Console returns captured console output
func (w *Window) Console() []LogEntry {
	w.consoleMu.Lock()
	defer w.consoleMu.Unlock()
	return append([]LogEntry(nil), w.console...)
}

// Loaded reports whether a page is loaded
func (w *Window) Loaded() bool {
	return w.loaded.Load()
}
