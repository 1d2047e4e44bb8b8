// Package window defines the capability set the bridge needs from the window
// that hosts the page runtime.
//
// The interface mirrors a native webview: one page, one document-start
// script, named async bindings the page can call, and script evaluation from
// the host. Concrete windows live in the headless and remote subpackages.
package window

import (
	"errors"
)

// Hint constrains how SetSize is interpreted
type Hint int

const (
	HintNone  Hint = iota // width and height are the default size
	HintMin               // width and height are the minimum bounds
	HintMax               // width and height are the maximum bounds
	HintFixed             // size cannot be changed by the user
)

// String returns the hint name
func (h Hint) String() string {
	switch h {
	case HintNone:
		return "none"
	case HintMin:
		return "min"
	case HintMax:
		return "max"
	case HintFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// Reply statuses passed to Return
const (
	StatusOK    = 0
	StatusError = 1
)

// BindFunc receives a page call. seq identifies the pending promise on the
// page and must be passed back to Return exactly once. req is the JSON array
// of the call's arguments.
type BindFunc func(seq string, req string)

// Window is the host side of the page runtime
type Window interface {
	// Run blocks until the window is terminated or destroyed
	Run() error
	// Terminate makes Run return
	Terminate()
	// Destroy releases the window. It is safe to call more than once.
	Destroy()

	Navigate(url string) error
	SetTitle(title string)
	SetSize(width, height int, hint Hint)
	SetHtml(html string) error

	// Init replaces the script evaluated before every page load
	Init(js string)
	// Eval runs js in the current page. It fails with a transport
	// unavailable error when no page is loaded.
	Eval(js string) error

	// Bind exposes a global async function named name to the page
	Bind(name string, fn BindFunc) error
	// Return settles the page promise identified by seq. Status 0 resolves
	// with the JSON result, any other status rejects with it.
	Return(seq string, status int, result string) error
}

// Window lifecycle errors
var (
	ErrDestroyed    = errors.New("window destroyed")
	ErrAlreadyBound = errors.New("binding already exists")
)
