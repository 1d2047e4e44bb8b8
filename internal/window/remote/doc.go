/*
Package remote implements window.Window for a page running in an ordinary
browser.

The window is an HTTP server. GET / serves the current page with three
scripts injected at the top of <head>: a socket shim, the binding stubs and
the init script. The shim opens /ws and from then on carries the page's
binding calls to the host and the host's returns and evaluations to the page.

	win := remote.New(remote.DefaultConfig())
	b, _ := bridge.New(win)
	_ = b.Expose("app", app)
	_ = win.SetHtml(page)
	go win.Run()

Socket messages are JSON objects tagged by type:

	page -> host  {"type":"ready"}
	              {"type":"call","seq":"1","name":"...","req":"[...]"}
	host -> page  {"type":"eval","js":"..."}
	              {"type":"return","seq":"1","status":0,"result":"..."}
	              {"type":"bind","name":"..."}
	              {"type":"title","title":"..."}
	              {"type":"navigate","url":"..."}
	              {"type":"resize","width":800,"height":600,"hint":"none"}

Only the most recent connection is the page. Returns addressed to a replaced
connection are dropped, so a reload never settles the new page's promises
with the old page's results.
*/
package remote
