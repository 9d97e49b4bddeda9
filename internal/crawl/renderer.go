// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// maxPageBytes bounds how much of a plain HTTP response is read.
const maxPageBytes = 8 << 20

// Renderer retrieves the rendered HTML of a page.
type Renderer interface {
	Render(ctx context.Context, pageURL string) (string, error)
}

// NewRenderer returns the renderer selected by cfg.Renderer. The caller
// owns the result and must Close it when it implements io.Closer.
func NewRenderer(cfg types.CrawlConfig) (Renderer, error) {
	switch cfg.Renderer {
	case types.RendererBrowser, "":
		return NewBrowserRenderer(cfg), nil
	case types.RendererHTTP:
		return &HTTPRenderer{
			Client:    &http.Client{Timeout: cfg.Timeout},
			UserAgent: cfg.UserAgent,
		}, nil
	default:
		return nil, fmt.Errorf("unknown renderer %q", cfg.Renderer)
	}
}

// HTTPRenderer fetches pages with a plain GET. Scripts are not executed.
type HTTPRenderer struct {
	Client    *http.Client
	UserAgent string
}

// Render returns the response body of a GET to pageURL. Responses are
// always fetched fresh.
func (r *HTTPRenderer) Render(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if r.UserAgent != "" {
		req.Header.Set("User-Agent", r.UserAgent)
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: HTTP %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", pageURL, err)
	}
	return string(body), nil
}

// BrowserRenderer renders pages in headless Chrome through rod. Chrome is
// launched on the first Render (or BrowserURL is dialled) and stays up
// until Close.
type BrowserRenderer struct {
	controlURL string
	timeout    time.Duration

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// NewBrowserRenderer returns a renderer configured from cfg. No browser is
// started until the first Render.
func NewBrowserRenderer(cfg types.CrawlConfig) *BrowserRenderer {
	return &BrowserRenderer{controlURL: cfg.BrowserURL, timeout: cfg.Timeout}
}

// Render navigates a fresh stealth tab to pageURL with the network cache
// disabled, waits for the load event, and returns the document HTML.
func (r *BrowserRenderer) Render(ctx context.Context, pageURL string) (string, error) {
	b, err := r.connect()
	if err != nil {
		return "", err
	}

	page, err := stealth.Page(b)
	if err != nil {
		return "", fmt.Errorf("creating tab: %w", err)
	}
	defer page.Close()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	page = page.Context(ctx)

	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		return "", fmt.Errorf("enabling network domain: %w", err)
	}
	if err := (proto.NetworkSetCacheDisabled{CacheDisabled: true}).Call(page); err != nil {
		return "", fmt.Errorf("disabling cache: %w", err)
	}

	if err := page.Navigate(pageURL); err != nil {
		return "", fmt.Errorf("navigating to %s: %w", pageURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("waiting for %s: %w", pageURL, err)
	}

	doc, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("reading DOM of %s: %w", pageURL, err)
	}
	return doc, nil
}

// Close shuts the browser down. It is safe to call on a renderer that never
// rendered.
func (r *BrowserRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.lnch != nil {
		r.lnch.Cleanup()
		r.lnch = nil
	}
	return err
}

func (r *BrowserRenderer) connect() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	wsURL := r.controlURL
	if wsURL == "" {
		l := launcher.New().
			Headless(true).
			NoSandbox(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launching chrome: %w", err)
		}
		wsURL = u
		r.lnch = l
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		if r.lnch != nil {
			r.lnch.Cleanup()
			r.lnch = nil
		}
		return nil, fmt.Errorf("connecting to chrome: %w", err)
	}
	r.browser = b
	return b, nil
}
