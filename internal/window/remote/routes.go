package remote

import (
	_ "embed"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webbridge/internal/api/middleware"
	"github.com/GriffinCanCode/webbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webbridge/internal/shared/codec"
	"github.com/GriffinCanCode/webbridge/internal/window"
)

//go:embed assets/shim.js
var shimScript string

const socketPath = "/ws"

const blankPage = `<!DOCTYPE html><html><head><meta charset="utf-8"><title></title></head><body></body></html>`

func (w *Window) newRouter() *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(w.config.Metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig().WithOrigins(w.config.AllowedOrigins)))
	switch {
	case w.config.RateLimitEnabled && w.config.RateLimitGlobal:
		router.Use(middleware.GlobalRateLimit(w.config.RateLimit))
	case w.config.RateLimitEnabled:
		router.Use(middleware.RateLimit(w.config.RateLimit))
	}

	router.GET("/", w.servePage)
	router.GET(socketPath, w.handleSocket)
	router.GET("/assets/*filepath", w.serveAsset)
	router.GET("/health", w.health)
	if w.config.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(w.config.Gatherer, promhttp.HandlerOpts{})))
	}

	return router
}

// servePage renders the current page with the socket shim, the bindings and
// the init script injected at the top of <head>
func (w *Window) servePage(c *gin.Context) {
	w.mu.RLock()
	target := w.url
	w.mu.RUnlock()
	if target != "" {
		c.Redirect(http.StatusFound, target)
		return
	}

	page, err := w.render()
	if err != nil {
		w.logger.Error("Failed to render page", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render page"})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

func (w *Window) render() (string, error) {
	w.mu.RLock()
	html, initJS, title := w.html, w.initJS, w.title
	w.mu.RUnlock()

	if strings.TrimSpace(html) == "" {
		html = blankPage
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	names := w.bindingNames()
	sort.Strings(names)
	var binds strings.Builder
	for _, name := range names {
		binds.WriteString("window.__webbridge.bind(")
		binds.WriteString(codec.Quote(name))
		binds.WriteString(");\n")
	}

	var inject strings.Builder
	inject.WriteString(`<script data-socket="` + socketPath + `">`)
	inject.WriteString(scriptText(shimScript))
	inject.WriteString("</script>\n<script>")
	inject.WriteString(scriptText(binds.String()))
	inject.WriteString("</script>\n")
	if initJS != "" {
		inject.WriteString("<script>")
		inject.WriteString(scriptText(initJS))
		inject.WriteString("</script>\n")
	}

	head := doc.Find("head").First()
	head.PrependHtml(inject.String())

	if title != "" {
		if t := head.Find("title").First(); t.Length() > 0 {
			t.SetText(title)
		} else {
			head.AppendHtml("<title></title>")
			head.Find("title").First().SetText(title)
		}
	}

	return goquery.OuterHtml(doc.Selection)
}

// scriptText keeps js from closing its <script> element early
func scriptText(js string) string {
	return strings.ReplaceAll(js, "</", `<\/`)
}

func (w *Window) serveAsset(c *gin.Context) {
	dir := w.config.AssetsDir
	if dir == "" {
		c.Status(http.StatusNotFound)
		return
	}

	rel := path.Clean("/" + c.Param("filepath"))
	file := filepath.Join(dir, filepath.FromSlash(rel))
	data, err := os.ReadFile(file)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	contentType := mimetype.Detect(data).String()
	if strings.HasPrefix(contentType, "text/plain") || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(file)); byExt != "" {
			contentType = byExt
		}
	}
	c.Data(http.StatusOK, contentType, data)
}

func (w *Window) health(c *gin.Context) {
	body := gin.H{
		"status":    "ok",
		"window_id": w.id.String(),
		"connected": w.Loaded(),
	}
	if w.config.Metrics != nil {
		s := w.config.Metrics.Snapshot()
		body["bridge"] = gin.H{
			"requests":       s.BridgeRequests,
			"failures":       s.BridgeFailures,
			"events_emitted": s.EventsEmitted,
			"events_dropped": s.EventsDropped,
			"objects":        s.ObjectsExposed,
			"connections":    s.ActiveConnections,
			"uptime":         s.Uptime.String(),
		}
	}
	c.JSON(http.StatusOK, body)
}

func (w *Window) upgrader() *websocket.Upgrader {
	allowed := w.config.AllowedOrigins
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowed) == 0 {
				return true
			}
			for _, o := range allowed {
				if o == "*" || o == origin {
					return true
				}
			}
			return false
		},
	}
}

// handleSocket makes the connection the window's page. Calls are handed to
// their bindings in order on a separate goroutine. Reading stalls only once
// the client's call queue is full.
func (w *Window) handleSocket(c *gin.Context) {
	if w.destroyed() {
		c.Status(http.StatusServiceUnavailable)
		return
	}

	conn, err := w.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		w.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	if w.config.MaxMessageSize > 0 {
		conn.SetReadLimit(w.config.MaxMessageSize)
	}

	cl := newClient(conn, w.config.WriteTimeout, w.config.Metrics)
	log := w.logger.With(zap.String("client_id", cl.id.String()))

	w.mu.Lock()
	old := w.client
	w.client = cl
	w.mu.Unlock()
	if old != nil {
		log.Info("Page replaced", zap.String("previous_client_id", old.id.String()))
		old.close()
	}

	w.config.Metrics.IncWSConnections()
	defer w.config.Metrics.DecWSConnections()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range cl.calls {
			w.deliver(cl, msg)
		}
	}()

	defer func() {
		close(cl.calls)
		<-done

		w.mu.Lock()
		if w.client == cl {
			w.client = nil
		}
		w.mu.Unlock()
		cl.close()
		log.Debug("Page disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}

		var msg inbound
		if err := codec.Unmarshal(data, &msg); err != nil {
			log.Warn("Malformed socket message", zap.Error(err))
			continue
		}
		w.config.Metrics.RecordWSMessage("in", msg.Type)

		switch msg.Type {
		case msgReady:
			cl.ready.Store(true)
			log.Info("Page ready")
		case msgCall:
			cl.calls <- msg
		default:
			log.Warn("Unknown socket message type", zap.String("type", msg.Type))
		}
	}
}

// deliver hands one page call to its binding
func (w *Window) deliver(cl *client, msg inbound) {
	seq := cl.tag + ":" + msg.Seq

	fn, ok := w.binding(msg.Name)
	if !ok {
		w.logger.Warn("Call to unknown binding", zap.String("name", msg.Name))
		_ = cl.send(msgReturn, returnMsg{
			Type:   msgReturn,
			Seq:    msg.Seq,
			Status: window.StatusError,
			Result: `{"code":"capability_not_found","message":"unknown binding"}`,
		})
		return
	}
	fn(seq, msg.Req)
}
