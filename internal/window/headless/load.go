package headless

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webbridge/internal/window"
)

const blankURL = "about:blank"

// pageScript is one <script> of a page, inline or fetched
type pageScript struct {
	origin string
	source string
}

// SetHtml loads html as a new page
func (w *Window) SetHtml(html string) error {
	return w.load(html, blankURL)
}

// Navigate loads the page at rawURL. Supported schemes are http, https,
// file, data and about:blank.
func (w *Window) Navigate(rawURL string) error {
	if rawURL == "" || rawURL == blankURL {
		return w.load("", blankURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	html, err := w.fetch(u)
	if err != nil {
		return err
	}
	return w.load(html, u.String())
}

// fetch reads the resource behind u
func (w *Window) fetch(u *url.URL) (string, error) {
	switch u.Scheme {
	case "http", "https":
		return w.fetchHTTP(u)

	case "file":
		data, err := os.ReadFile(u.Path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", u.Path, err)
		}
		return string(data), nil

	case "data":
		return decodeDataURL(u.String())

	default:
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
}

// fetchHTTP gets u through the circuit breaker of its host. Transport
// errors and 5xx responses count against the host; 4xx do not.
func (w *Window) fetchHTTP(u *url.URL) (string, error) {
	var resp *resty.Response
	err := w.hosts.Do(u.Host, func() error {
		var err error
		resp, err = w.client.R().Get(u.String())
		if err != nil {
			return err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return fmt.Errorf("status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("failed to fetch %s: status %d", u, resp.StatusCode())
	}
	return resp.String(), nil
}

// decodeDataURL returns the payload of a data: URL
func decodeDataURL(raw string) (string, error) {
	rest, ok := strings.CutPrefix(raw, "data:")
	if !ok {
		return "", fmt.Errorf("not a data url")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", fmt.Errorf("data url lacks a payload")
	}

	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", fmt.Errorf("invalid base64 data url: %w", err)
		}
		return string(data), nil
	}

	text, err := url.PathUnescape(payload)
	if err != nil {
		return "", fmt.Errorf("invalid data url: %w", err)
	}
	return text, nil
}

// load parses html, fetches its external scripts and swaps the page in on
// the loop. It returns once the page scripts have run.
func (w *Window) load(html, pageURL string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse page: %w", err)
	}

	scripts := w.collectScripts(doc, pageURL)

	done := make(chan error, 1)
	if !w.loop.post(func() { done <- w.open(doc, pageURL, scripts) }) {
		return window.ErrDestroyed
	}
	return <-done
}

// collectScripts gathers the page's JavaScript in document order. Scripts
// that cannot be fetched are logged and skipped.
func (w *Window) collectScripts(doc *goquery.Document, pageURL string) []pageScript {
	base, _ := url.Parse(pageURL)

	var scripts []pageScript
	doc.Find("script").Each(func(i int, s *goquery.Selection) {
		if typ := strings.ToLower(strings.TrimSpace(s.AttrOr("type", ""))); typ != "" &&
			typ != "text/javascript" && typ != "application/javascript" && typ != "module" {
			return
		}

		src, ok := s.Attr("src")
		if !ok {
			scripts = append(scripts, pageScript{
				origin: fmt.Sprintf("inline script %d", i),
				source: s.Text(),
			})
			return
		}

		ref, err := url.Parse(src)
		if err != nil {
			w.logger.Warn("Invalid script src", zap.String("src", src), zap.Error(err))
			return
		}
		if base != nil {
			ref = base.ResolveReference(ref)
		}

		source, err := w.fetch(ref)
		if err != nil {
			w.logger.Warn("Failed to load script", zap.String("src", ref.String()), zap.Error(err))
			return
		}
		scripts = append(scripts, pageScript{origin: ref.String(), source: source})
	})
	return scripts
}

// open replaces the current page. Runs on the loop.
func (w *Window) open(doc *goquery.Document, pageURL string, scripts []pageScript) error {
	w.loaded.Store(false)
	if w.page != nil {
		w.page.stop()
		w.page = nil
	}

	p, err := w.newPage(doc, pageURL)
	if err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}
	w.page = p

	w.mu.Lock()
	w.url = pageURL
	w.mu.Unlock()

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		w.SetTitle(title)
	}

	if js := w.initScript(); js != "" {
		_, _ = p.run("init", js)
	}
	for _, script := range scripts {
		_, _ = p.run(script.origin, script.source)
	}

	w.loaded.Store(true)
	w.logger.Debug("Page loaded", zap.String("url", pageURL), zap.Int("scripts", len(scripts)))
	return nil
}

// HTML returns the current document markup, or "" when no page is loaded
func (w *Window) HTML() string {
	out := make(chan string, 1)
	if !w.loop.post(func() {
		if w.page == nil {
			out <- ""
			return
		}
		out <- w.page.html()
	}) {
		return ""
	}
	return <-out
}
