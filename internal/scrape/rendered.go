// Package scrape renders JavaScript-heavy pages that plain HTTP
// fetches cannot read, via a headless Chrome controlled through Rod.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// renderTimeout bounds a full render including the wait for dynamic
// content. Upstream dashboards can take tens of seconds to hydrate.
const renderTimeout = 45 * time.Second

// RenderedPageSource extracts the visible text of a page after its
// client-side rendering settles. waitSubstring is a text fragment that
// must appear before extraction; empty means wait for load only.
type RenderedPageSource interface {
	ExtractText(ctx context.Context, url, waitSubstring string) (string, error)
	Close() error
}

// Renderer implements RenderedPageSource with a lazily launched
// headless Chrome. The browser is shared across calls and kept until
// Close.
type Renderer struct {
	logger *slog.Logger

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

func NewRenderer(logger *slog.Logger) *Renderer {
	return &Renderer{logger: logger}
}

func (r *Renderer) ExtractText(ctx context.Context, url, waitSubstring string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, renderTimeout)
	defer cancel()

	browser, err := r.ensureBrowser()
	if err != nil {
		return "", err
	}

	page, err := stealth.Page(browser)
	if err != nil {
		return "", fmt.Errorf("scrape: create page: %w", err)
	}
	defer page.Close()

	blockStaticResources(page)

	if err := page.Context(ctx).Navigate(url); err != nil {
		return "", fmt.Errorf("scrape: navigate %s: %w", url, err)
	}
	if err := page.Context(ctx).WaitLoad(); err != nil {
		r.logger.Warn("page load wait timed out, extracting anyway", "url", url, "error", err)
	}

	text, err := r.waitForText(ctx, page, waitSubstring)
	if err != nil {
		return "", fmt.Errorf("scrape: extract %s: %w", url, err)
	}
	return text, nil
}

// waitForText polls the body text until waitSubstring shows up or the
// context expires, returning the last snapshot either way.
func (r *Renderer) waitForText(ctx context.Context, page *rod.Page, waitSubstring string) (string, error) {
	var last string
	for {
		res, err := page.Context(ctx).Eval(`() => document.body ? document.body.innerText : ""`)
		if err != nil {
			if last != "" {
				return last, nil
			}
			return "", err
		}
		last = res.Value.Str()

		if waitSubstring == "" || strings.Contains(last, waitSubstring) {
			return last, nil
		}

		select {
		case <-ctx.Done():
			return last, nil
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (r *Renderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New().
		Headless(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("no-sandbox")

	wsURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("scrape: launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(wsURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("scrape: connect chrome: %w", err)
	}

	r.logger.Info("launched headless chrome", "ws", wsURL)
	r.browser = browser
	r.lnch = l
	return browser, nil
}

func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		r.browser.Close()
		r.browser = nil
	}
	if r.lnch != nil {
		r.lnch.Cleanup()
		r.lnch = nil
	}
	return nil
}

// blockStaticResources aborts image, font, media and stylesheet
// requests; we only need the rendered text.
func blockStaticResources(page *rod.Page) {
	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		switch h.Request.Type() {
		case proto.NetworkResourceTypeImage,
			proto.NetworkResourceTypeFont,
			proto.NetworkResourceTypeMedia,
			proto.NetworkResourceTypeStylesheet:
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		default:
			h.ContinueRequest(&proto.FetchContinueRequest{})
		}
	})
	go router.Run()
}
