/*
Package headless implements window.Window on the goja JavaScript engine.

# Overview

A headless Window has no display. Pages are parsed with goquery and their
scripts run in a fresh goja runtime per load, with a small document API,
console capture, timers and the window's bindings installed as global async
functions.

	win := headless.New(headless.DefaultConfig())
	defer win.Destroy()

	if err := win.SetHtml(`<script>console.log("hi")</script>`); err != nil {
		return err
	}
	v, err := win.Await(ctx, "someBinding(1, 2)")

# Threads

All VM work runs on one loop goroutine. Binding callbacks run in call order
on a second goroutine, so a callback may block or call back into the window
(Eval, Return) without stalling the page. Evaluate and Await block until the
loop answers and must not be called from page callbacks.

# Loading

SetHtml and Navigate replace the page: the old runtime is dropped with its
timers and pending binding calls, the init script runs, then the page's
scripts run in document order. Navigate understands http(s), file, data and
about:blank. Script errors, including timeouts, are logged and recorded as
console errors; they do not fail the load.
*/
package headless
