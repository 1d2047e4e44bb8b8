package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webbridge/internal/bridge"
	"github.com/GriffinCanCode/webbridge/internal/bridge/object"
	"github.com/GriffinCanCode/webbridge/internal/infrastructure/monitoring"
	bridgeerr "github.com/GriffinCanCode/webbridge/internal/shared/errors"
	"github.com/GriffinCanCode/webbridge/internal/window"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestWindow(t *testing.T, mutate func(*Config)) (*Window, *httptest.Server) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RateLimitEnabled = false
	if mutate != nil {
		mutate(&cfg)
	}
	w := New(cfg)
	srv := httptest.NewServer(w.Handler())
	t.Cleanup(func() {
		w.Destroy()
		srv.Close()
	})
	return w, srv
}

type page struct {
	t    *testing.T
	conn *websocket.Conn
}

func connect(t *testing.T, w *Window, srv *httptest.Server) *page {
	t.Helper()
	prev := w.active()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + socketPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	p := &page{t: t, conn: conn}
	p.write(map[string]any{"type": "ready"})
	require.Eventually(t, func() bool {
		c := w.active()
		return c != nil && c != prev && c.ready.Load()
	}, 2*time.Second, 5*time.Millisecond)
	return p
}

func (p *page) write(msg any) {
	p.t.Helper()
	require.NoError(p.t, p.conn.WriteJSON(msg))
}

func (p *page) read() map[string]any {
	p.t.Helper()
	require.NoError(p.t, p.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]any
	require.NoError(p.t, p.conn.ReadJSON(&msg))
	return msg
}

func (p *page) call(seq, name, req string) map[string]any {
	p.t.Helper()
	p.write(map[string]any{"type": "call", "seq": seq, "name": name, "req": req})
	for {
		msg := p.read()
		if msg["type"] == msgReturn && msg["seq"] == seq {
			return msg
		}
	}
}

func TestServePage(t *testing.T) {
	w, srv := newTestWindow(t, nil)
	require.NoError(t, w.Bind("zeta", func(string, string) {}))
	require.NoError(t, w.Bind("alpha", func(string, string) {}))
	w.Init("window.initRan = true;")
	w.SetTitle("Bridge Demo")
	require.NoError(t, w.SetHtml(`<html><head><title>old</title></head><body><p id="x">hi</p></body></html>`))

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	html := string(body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, html, `<script data-socket="/ws">`)
	assert.Contains(t, html, "window.__webbridge = { bind: bind };")
	assert.Contains(t, html, "window.initRan = true;")
	assert.Contains(t, html, "<title>Bridge Demo</title>")
	assert.Contains(t, html, `<p id="x">hi</p>`)

	// shim, then bindings in name order, then the init script
	shim := strings.Index(html, "window.__webbridge = {")
	alpha := strings.Index(html, `window.__webbridge.bind("alpha");`)
	zeta := strings.Index(html, `window.__webbridge.bind("zeta");`)
	initAt := strings.Index(html, "window.initRan")
	assert.True(t, shim < alpha && alpha < zeta && zeta < initAt, html)
}

func TestServeBlankPage(t *testing.T) {
	_, srv := newTestWindow(t, nil)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "<head><script")
}

func TestNavigateRedirects(t *testing.T) {
	w, srv := newTestWindow(t, nil)
	require.NoError(t, w.Navigate("https://example.com/"))

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://example.com/", resp.Header.Get("Location"))

	// SetHtml takes the page back
	require.NoError(t, w.SetHtml("<p>back</p>"))
	resp, err = client.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEvalRequiresPage(t *testing.T) {
	w, srv := newTestWindow(t, nil)

	err := w.Eval("1")
	assert.True(t, errors.Is(err, bridgeerr.ErrTransportUnavailable))
	assert.False(t, w.Loaded())

	p := connect(t, w, srv)
	require.NoError(t, w.Eval("document.title = 'x'"))

	msg := p.read()
	assert.Equal(t, msgEval, msg["type"])
	assert.Equal(t, "document.title = 'x'", msg["js"])
}

func TestPushes(t *testing.T) {
	w, srv := newTestWindow(t, nil)
	p := connect(t, w, srv)

	w.SetTitle("T")
	assert.Equal(t, map[string]any{"type": "title", "title": "T"}, p.read())

	w.SetSize(640, 480, window.HintFixed)
	assert.Equal(t, map[string]any{"type": "resize", "width": float64(640), "height": float64(480), "hint": "fixed"}, p.read())

	require.NoError(t, w.Bind("late", func(string, string) {}))
	assert.Equal(t, map[string]any{"type": "bind", "name": "late"}, p.read())

	require.NoError(t, w.SetHtml("<p>new</p>"))
	assert.Equal(t, map[string]any{"type": "navigate", "url": "/"}, p.read())
}

func TestBindingRoundTrip(t *testing.T) {
	w, srv := newTestWindow(t, nil)
	require.NoError(t, w.Bind("echo", func(seq, req string) {
		_ = w.Return(seq, window.StatusOK, req)
	}))
	require.NoError(t, w.Bind("fail", func(seq, req string) {
		_ = w.Return(seq, window.StatusError, `{"code":"x","message":"no"}`)
	}))
	p := connect(t, w, srv)

	msg := p.call("1", "echo", `[1,"a"]`)
	assert.EqualValues(t, window.StatusOK, msg["status"])
	assert.Equal(t, `[1,"a"]`, msg["result"])

	msg = p.call("2", "fail", `[]`)
	assert.EqualValues(t, window.StatusError, msg["status"])
	assert.Equal(t, `{"code":"x","message":"no"}`, msg["result"])

	msg = p.call("3", "missing", `[]`)
	assert.EqualValues(t, window.StatusError, msg["status"])
	assert.Contains(t, msg["result"], "capability_not_found")
}

func TestReconnectDropsStaleReturns(t *testing.T) {
	w, srv := newTestWindow(t, nil)

	seqs := make(chan string, 1)
	require.NoError(t, w.Bind("hold", func(seq, req string) { seqs <- seq }))

	first := connect(t, w, srv)
	first.write(map[string]any{"type": "call", "seq": "1", "name": "hold", "req": "[]"})
	stale := <-seqs

	second := connect(t, w, srv)
	assert.NoError(t, w.Return(stale, window.StatusOK, `"old"`))

	require.NoError(t, w.Eval("marker"))
	msg := second.read()
	assert.Equal(t, msgEval, msg["type"], "stale return must not reach the new page")

	assert.Error(t, w.Return("no-tag", window.StatusOK, ""))
}

func TestAssets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.css"), []byte("body { color: red; }"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"),
		[]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00"), 0o644))

	_, srv := newTestWindow(t, func(c *Config) { c.AssetsDir = dir })

	tests := []struct {
		path        string
		status      int
		contentType string
	}{
		{"/assets/app.css", http.StatusOK, "text/css"},
		{"/assets/logo.png", http.StatusOK, "image/png"},
		{"/assets/missing.js", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.contentType != "" {
				assert.Contains(t, resp.Header.Get("Content-Type"), tt.contentType)
			}
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	w, srv := newTestWindow(t, func(c *Config) {
		c.Metrics = metrics
		c.Gatherer = reg
	})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, false, health["connected"])
	assert.Equal(t, w.ID().String(), health["window_id"])
	assert.Contains(t, health, "bridge")

	connect(t, w, srv)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "webbridge_ws_connections 1")
	assert.Contains(t, string(body), `webbridge_http_requests_total{method="GET",path="/health",status="200"} 1`)
}

func TestRateLimited(t *testing.T) {
	_, srv := newTestWindow(t, func(c *Config) {
		c.RateLimitEnabled = true
		c.RateLimit.RequestsPerSecond = 1
		c.RateLimit.Burst = 1
	})

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitScope(t *testing.T) {
	healthFrom := func(t *testing.T, srv *httptest.Server, ip string) int {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
		require.NoError(t, err)
		req.Header.Set("X-Forwarded-For", ip)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	tests := []struct {
		name   string
		global bool
		want   []int
	}{
		{"per client", false, []int{http.StatusOK, http.StatusOK}},
		{"shared", true, []int{http.StatusOK, http.StatusTooManyRequests}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newTestWindow(t, func(c *Config) {
				c.RateLimitEnabled = true
				c.RateLimitGlobal = tt.global
				c.RateLimit.RequestsPerSecond = 1
				c.RateLimit.Burst = 1
			})

			codes := []int{
				healthFrom(t, srv, "10.0.0.1"),
				healthFrom(t, srv, "10.0.0.2"),
			}
			assert.Equal(t, tt.want, codes)
		})
	}
}

func TestDestroy(t *testing.T) {
	w, srv := newTestWindow(t, nil)
	p := connect(t, w, srv)

	w.Destroy()
	w.Destroy()

	assert.False(t, w.Loaded())
	assert.ErrorIs(t, w.SetHtml(""), window.ErrDestroyed)
	assert.ErrorIs(t, w.Return("a:1", window.StatusOK, ""), window.ErrDestroyed)

	require.NoError(t, p.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := p.conn.ReadMessage()
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	w := New(cfg)

	done := make(chan error, 1)
	go func() { done <- w.Run() }()
	require.Eventually(t, func() bool { return w.Addr() != "" }, 2*time.Second, 5*time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://%s/health", w.Addr()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	w.Terminate()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Terminate")
	}
}

func TestBridgeOverSocket(t *testing.T) {
	w, srv := newTestWindow(t, nil)
	b, err := bridge.New(w)
	require.NoError(t, err)
	defer b.Close()

	count := 0
	app, err := object.New(
		object.Value("count", &count),
		object.Func("increment", func() int {
			count++
			return count
		}),
	)
	require.NoError(t, err)
	require.NoError(t, b.Expose("app", app))

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `window.__webbridge.bind("__bridgeInternal");`)
	assert.Contains(t, string(body), `defineObject("app", "`+app.ID().String()+`")`)

	p := connect(t, w, srv)

	req := fmt.Sprintf(`["INVOKE",{"id":%q,"function":"increment","arguments":[]}]`, app.ID().String())
	msg := p.call("1", bridge.BindingName, req)
	assert.EqualValues(t, window.StatusOK, msg["status"])
	assert.Equal(t, `{"value":1}`, msg["result"])

	require.NoError(t, b.Changed(app, "count"))
	msg = p.read()
	assert.Equal(t, msgEval, msg["type"])
	assert.Contains(t, msg["js"], `"property":"count","value":1`)
}
