package bridge

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webbridge/internal/bridge/object"
	bridgeerr "github.com/GriffinCanCode/webbridge/internal/shared/errors"
	"github.com/GriffinCanCode/webbridge/internal/window"
)

type settings struct {
	*object.Object
	theme   string
	secret  string
	version int
}

func newSettings(t *testing.T) *settings {
	t.Helper()
	s := &settings{theme: "dark", version: 1}
	obj, err := object.New(
		object.Value("theme", &s.theme),
		object.Value("secret", &s.secret, object.WriteOnly()),
		object.Value("version", &s.version, object.ReadOnly()),
		object.Func("toggle", func() string {
			if s.theme == "dark" {
				s.theme = "light"
			} else {
				s.theme = "dark"
			}
			return s.theme
		}),
	)
	require.NoError(t, err)
	s.Object = obj
	return s
}

type counterApp struct {
	*object.Object
	count    int
	settings *settings
}

func newCounterApp(t *testing.T) *counterApp {
	t.Helper()
	a := &counterApp{settings: newSettings(t)}
	obj, err := object.New(
		object.Value("count", &a.count),
		object.Func("increment", func() int {
			a.count++
			return a.count
		}),
		object.Func("add", func(n int) int {
			a.count += n
			return a.count
		}),
		object.Func("reset", func() { a.count = 0 }),
		object.Func("fail", func() error { return errors.New("broken") }),
		object.Func("nothing", func() any { return nil }),
		object.Child("settings", a.settings),
	)
	require.NoError(t, err)
	a.Object = obj
	return a
}

// fakeWindow records what the bridge does to its window and lets tests play
// the page side of the binding
type fakeWindow struct {
	mu      sync.Mutex
	loaded  bool
	initJS  string
	evals   []string
	binds   map[string]window.BindFunc
	returns map[string]fakeReturn
	seq     int
}

type fakeReturn struct {
	status int
	result string
}

var _ window.Window = (*fakeWindow)(nil)

func newFakeWindow() *fakeWindow {
	return &fakeWindow{
		binds:   make(map[string]window.BindFunc),
		returns: make(map[string]fakeReturn),
	}
}

func (f *fakeWindow) Run() error                    { return nil }
func (f *fakeWindow) Terminate()                    {}
func (f *fakeWindow) Destroy()                      {}
func (f *fakeWindow) Navigate(string) error         { return f.SetHtml("") }
func (f *fakeWindow) SetTitle(string)               {}
func (f *fakeWindow) SetSize(int, int, window.Hint) {}

func (f *fakeWindow) Bind(name string, fn window.BindFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.binds[name]; ok {
		return window.ErrAlreadyBound
	}
	f.binds[name] = fn
	return nil
}

func (f *fakeWindow) SetHtml(string) error {
	f.mu.Lock()
	f.loaded = true
	f.mu.Unlock()
	return nil
}

func (f *fakeWindow) Init(js string) {
	f.mu.Lock()
	f.initJS = js
	f.mu.Unlock()
}

func (f *fakeWindow) Eval(js string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loaded {
		return bridgeerr.Unavailable("eval")
	}
	f.evals = append(f.evals, js)
	return nil
}

func (f *fakeWindow) Return(seq string, status int, result string) error {
	f.mu.Lock()
	f.returns[seq] = fakeReturn{status: status, result: result}
	f.mu.Unlock()
	return nil
}

// call plays one page call through the reserved binding
func (f *fakeWindow) call(t *testing.T, req string) fakeReturn {
	t.Helper()
	f.mu.Lock()
	fn, ok := f.binds[BindingName]
	f.seq++
	seq := strconv.Itoa(f.seq)
	f.mu.Unlock()
	require.True(t, ok, "bridge binding not installed")

	fn(seq, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	ret, ok := f.returns[seq]
	require.True(t, ok, "no reply for %s", req)
	return ret
}

func (f *fakeWindow) lastEval() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.evals) == 0 {
		return ""
	}
	return f.evals[len(f.evals)-1]
}

func (f *fakeWindow) init() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initJS
}

func handle(t *testing.T, d *Dispatcher, raw string) (string, error) {
	t.Helper()
	return d.Handle(context.Background(), raw)
}
