/*
Package bridge exposes Go objects to the page running in a window.

# Overview

A Bridge owns one window's object table and its single call channel. The
page reaches the host only through the reserved binding __bridgeInternal,
which it calls as __bridgeInternal(type, data); the host reaches the page
only through script evaluation.

	win := headless.New(headless.DefaultConfig())
	b, err := bridge.New(win, bridge.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := b.Expose("app", app); err != nil {
		return err
	}
	b.Emit("ready", map[string]any{"version": 1})

# Requests

	["GET",    {"id": "...", "property": "count"}]
	["SET",    {"id": "...", "property": "count", "newValue": 5}]
	["INVOKE", {"id": "...", "function": "increment", "arguments": []}]

Requests are routed by object id only. Replies use status 0 with
{"value": v} or {"void": true}, and status 1 with {"code", "message"} for a
failed INVOKE. GET and SET never fail on the wire: a failed GET answers
void and SET always answers void.

# Events

Emit evaluates Bridge.__internal.dispatch(type, data) in the page. The
reserved type propertyUpdated carries {objectId, property, value} and
refreshes the cached value of every proxy for that object before listeners
run. Events emitted while no page is loaded are dropped.

# Concurrency

Page requests are dispatched one at a time. A slow function therefore delays
every later request. Expose, Emit, EmitPropertyUpdate and Changed may be
called from any goroutine.
*/
package bridge
