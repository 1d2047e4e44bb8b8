package headless

import (
	"context"

	"github.com/dop251/goja"

	bridgeerr "github.com/GriffinCanCode/webbridge/internal/shared/errors"
	"github.com/GriffinCanCode/webbridge/internal/window"
)

// Evaluate runs expr in the current page and returns its exported value.
// It must not be called from page callbacks.
func (w *Window) Evaluate(ctx context.Context, expr string) (any, error) {
	type result struct {
		val any
		err error
	}
	if !w.loaded.Load() {
		return nil, bridgeerr.Unavailable("evaluate")
	}

	out := make(chan result, 1)
	if !w.loop.post(func() {
		if w.page == nil {
			out <- result{err: bridgeerr.Unavailable("evaluate")}
			return
		}
		val, err := w.page.run("evaluate", expr)
		out <- result{val: exportValue(val), err: err}
	}) {
		return nil, window.ErrDestroyed
	}

	select {
	case r := <-out:
		return r.val, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Await evaluates expr and waits for the promise it yields to settle. A
// non-promise value is returned as is. A rejection is returned as a
// *RejectionError.
func (w *Window) Await(ctx context.Context, expr string) (any, error) {
	type result struct {
		val any
		err error
	}
	if !w.loaded.Load() {
		return nil, bridgeerr.Unavailable("await")
	}

	out := make(chan result, 1)
	if !w.loop.post(func() {
		p := w.page
		if p == nil {
			out <- result{err: bridgeerr.Unavailable("await")}
			return
		}
		val, err := p.run("await", expr)
		if err != nil {
			out <- result{err: err}
			return
		}

		ok := func(call goja.FunctionCall) goja.Value {
			out <- result{val: exportValue(call.Argument(0))}
			return goja.Undefined()
		}
		fail := func(call goja.FunctionCall) goja.Value {
			out <- result{err: p.rejection(call.Argument(0))}
			return goja.Undefined()
		}
		if _, err := p.call("await", p.awaitF, val, p.vm.ToValue(ok), p.vm.ToValue(fail)); err != nil {
			out <- result{err: err}
		}
	}) {
		return nil, window.ErrDestroyed
	}

	select {
	case r := <-out:
		return r.val, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// rejection converts a rejection reason into a RejectionError
func (p *page) rejection(reason goja.Value) *RejectionError {
	rej := &RejectionError{Value: exportValue(reason)}
	if reason == nil || goja.IsUndefined(reason) || goja.IsNull(reason) {
		rej.Message = "undefined"
		return rej
	}

	if obj, ok := reason.(*goja.Object); ok {
		if code := obj.Get("code"); code != nil && !goja.IsUndefined(code) && !goja.IsNull(code) {
			rej.Code = code.String()
		}
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) && !goja.IsNull(msg) {
			rej.Message = msg.String()
			return rej
		}
	}
	rej.Message = reason.String()
	return rej
}
