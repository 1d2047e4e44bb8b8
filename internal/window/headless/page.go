package headless

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// hostPlumbing builds binding wrappers and settles their promises. The
// pending table lives in the page so a reload drops it with the VM.
const hostPlumbing = `(function (hostCall) {
  var pending = {};
  return {
    bind: function (name) {
      return function () {
        var req = JSON.stringify(Array.prototype.slice.call(arguments));
        return new Promise(function (resolve, reject) {
          pending[hostCall(name, req)] = { resolve: resolve, reject: reject };
        });
      };
    },
    settle: function (seq, status, result) {
      var call = pending[seq];
      if (!call) return false;
      delete pending[seq];
      var value;
      try {
        value = result === '' ? undefined : JSON.parse(result);
      } catch (err) {
        call.reject(err);
        return true;
      }
      if (status === 0) call.resolve(value); else call.reject(value);
      return true;
    },
    await: function (value, ok, fail) {
      Promise.resolve(value).then(ok, fail);
    }
  };
})`

// page is one loaded document. It is only touched on the loop goroutine.
type page struct {
	w   *Window
	vm  *goja.Runtime
	doc *goquery.Document
	url string

	bind    goja.Callable
	settleF goja.Callable
	awaitF  goja.Callable

	timers    map[int64]*time.Timer
	nextTimer int64
	stopped   bool
}

func (w *Window) newPage(doc *goquery.Document, url string) (*page, error) {
	vm := goja.New()
	vm.SetMaxCallStackSize(1024)

	p := &page{
		w:      w,
		vm:     vm,
		doc:    doc,
		url:    url,
		timers: make(map[int64]*time.Timer),
	}

	if err := p.setupGlobals(); err != nil {
		return nil, err
	}
	if err := p.setupPlumbing(); err != nil {
		return nil, err
	}
	for _, name := range w.bindingNames() {
		p.installBinding(name)
	}
	return p, nil
}

// setupGlobals configures the browser-like global scope
func (p *page) setupGlobals() error {
	vm := p.vm
	global := vm.GlobalObject()

	// Remove host-ish globals
	vm.Set("require", goja.Undefined())
	vm.Set("process", goja.Undefined())
	vm.Set("module", goja.Undefined())
	vm.Set("exports", goja.Undefined())

	if err := vm.Set("window", global); err != nil {
		return err
	}
	if err := vm.Set("self", global); err != nil {
		return err
	}

	console := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(level, p.makeConsoleFunc(level)); err != nil {
			return err
		}
	}
	if err := vm.Set("console", console); err != nil {
		return err
	}

	location := vm.NewObject()
	_ = location.Set("href", p.url)
	if err := vm.Set("location", location); err != nil {
		return err
	}

	vm.Set("setTimeout", func(call goja.FunctionCall) goja.Value { return p.setTimer(call, false) })
	vm.Set("setInterval", func(call goja.FunctionCall) goja.Value { return p.setTimer(call, true) })
	vm.Set("clearTimeout", p.clearTimer)
	vm.Set("clearInterval", p.clearTimer)
	vm.Set("queueMicrotask", func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(vm.NewTypeError("queueMicrotask callback must be a function"))
		}
		p.w.loop.post(func() {
			if !p.stopped {
				_, _ = p.call("microtask", fn)
			}
		})
		return goja.Undefined()
	})

	return vm.Set("document", p.newDocument())
}

// setupPlumbing compiles the binding and promise helpers
func (p *page) setupPlumbing() error {
	factoryVal, err := p.vm.RunString(hostPlumbing)
	if err != nil {
		return fmt.Errorf("failed to compile host plumbing: %w", err)
	}
	factory, ok := goja.AssertFunction(factoryVal)
	if !ok {
		return fmt.Errorf("host plumbing is not a function")
	}

	hostCall := func(name, req string) string {
		seq := strconv.FormatUint(p.w.seq.Add(1), 10)
		p.w.calls.post(func() { p.w.deliver(name, seq, req) })
		return seq
	}

	helpers, err := factory(goja.Undefined(), p.vm.ToValue(hostCall))
	if err != nil {
		return fmt.Errorf("failed to build host plumbing: %w", err)
	}
	obj := helpers.ToObject(p.vm)

	for name, dst := range map[string]*goja.Callable{
		"bind":   &p.bind,
		"settle": &p.settleF,
		"await":  &p.awaitF,
	} {
		fn, ok := goja.AssertFunction(obj.Get(name))
		if !ok {
			return fmt.Errorf("host plumbing lacks %s", name)
		}
		*dst = fn
	}
	return nil
}

// installBinding defines the global async function name
func (p *page) installBinding(name string) {
	fn, err := p.bind(goja.Undefined(), p.vm.ToValue(name))
	if err != nil {
		p.w.logger.Warn("Failed to install binding", zap.String("name", name), zap.Error(err))
		return
	}
	p.vm.Set(name, fn)
}

// settle resolves or rejects the promise of call seq
func (p *page) settle(seq string, status int, result string) {
	found, err := p.call("return", p.settleF, p.vm.ToValue(seq), p.vm.ToValue(status), p.vm.ToValue(result))
	if err != nil {
		return
	}
	if !found.ToBoolean() {
		p.w.logger.Debug("Return for unknown call", zap.String("seq", seq))
	}
}

// run evaluates src under the script timeout. Errors are logged and
// captured as console errors.
func (p *page) run(origin, src string) (goja.Value, error) {
	return p.guard(origin, func() (goja.Value, error) {
		return p.vm.RunString(src)
	})
}

// call invokes fn under the script timeout
func (p *page) call(origin string, fn goja.Callable, args ...goja.Value) (goja.Value, error) {
	return p.guard(origin, func() (goja.Value, error) {
		return fn(goja.Undefined(), args...)
	})
}

func (p *page) guard(origin string, fn func() (goja.Value, error)) (goja.Value, error) {
	if timeout := p.w.config.ScriptTimeout; timeout > 0 {
		vm := p.vm
		timer := time.AfterFunc(timeout, func() { vm.Interrupt(ErrScriptTimeout) })
		defer func() {
			timer.Stop()
			vm.ClearInterrupt()
		}()
	}

	val, err := fn()
	if err != nil {
		p.w.logger.Warn("Page script failed", zap.String("origin", origin), zap.Error(err))
		p.w.record("error", fmt.Sprintf("Uncaught (%s): %v", origin, err))
	}
	return val, err
}

// makeConsoleFunc creates a console function
func (p *page) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		p.w.record(level, strings.Join(parts, " "))
		return goja.Undefined()
	}
}

func (w *Window) record(level, msg string) {
	if !w.config.EnableConsole {
		return
	}
	w.logger.Debug("console", zap.String("level", level), zap.String("message", msg))

	w.consoleMu.Lock()
	w.console = append(w.console, LogEntry{
		Level:   level,
		Message: msg,
		Time:    time.Now(),
	})
	w.consoleMu.Unlock()
}

// setTimer implements setTimeout and setInterval on the loop
func (p *page) setTimer(call goja.FunctionCall, repeat bool) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		// string handlers are not supported
		return p.vm.ToValue(0)
	}
	delay := time.Duration(call.Argument(1).ToInteger()) * time.Millisecond
	if repeat && delay < time.Millisecond {
		delay = time.Millisecond
	}
	var args []goja.Value
	if len(call.Arguments) > 2 {
		args = append(args, call.Arguments[2:]...)
	}

	p.nextTimer++
	tid := p.nextTimer

	p.timers[tid] = time.AfterFunc(delay, func() {
		p.w.loop.post(func() {
			t, ok := p.timers[tid]
			if !ok || p.stopped {
				return
			}
			if !repeat {
				delete(p.timers, tid)
			}
			_, _ = p.call("timer", fn, args...)
			if _, still := p.timers[tid]; repeat && still {
				t.Reset(delay)
			}
		})
	})

	return p.vm.ToValue(tid)
}

func (p *page) clearTimer(call goja.FunctionCall) goja.Value {
	tid := call.Argument(0).ToInteger()
	if t, ok := p.timers[tid]; ok {
		t.Stop()
		delete(p.timers, tid)
	}
	return goja.Undefined()
}

// stop cancels timers; queued jobs for this page become no-ops
func (p *page) stop() {
	p.stopped = true
	for tid, t := range p.timers {
		t.Stop()
		delete(p.timers, tid)
	}
}

// exportValue converts goja value to Go value
func exportValue(val goja.Value) any {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}
