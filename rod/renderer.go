// Package rod renders minutes pages in a headless Chrome browser. The
// municipal CMS family builds its transcript view with client-side
// script after the initial load, so plain HTTP retrieval sees an empty
// shell; rendering plus a settle delay is the only reliable way in.
package rod

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gikai/minutes"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Default waits for page rendering.
const (
	DefaultNavigationTimeout = 30 * time.Second
	DefaultSettleDelay       = 2 * time.Second
	requestIdleWindow        = 300 * time.Millisecond
)

// Ensure Renderer implements minutes.PageRenderer at compile time.
var _ minutes.PageRenderer = (*Renderer)(nil)

// Renderer loads pages in a headless Chrome browser. Each Render call
// launches its own browser and closes it before returning: one failed
// fetch cannot corrupt another's browser state, at the cost of
// per-call launch overhead.
type Renderer struct {
	navTimeout  time.Duration
	settleDelay time.Duration
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithNavigationTimeout bounds navigation plus rendering per call.
// Defaults to DefaultNavigationTimeout (30s).
func WithNavigationTimeout(d time.Duration) Option {
	return func(r *Renderer) {
		r.navTimeout = d
	}
}

// WithSettleDelay sets the fixed wait after network idle, giving
// client-side rendering time to finish. Defaults to DefaultSettleDelay (2s).
func WithSettleDelay(d time.Duration) Option {
	return func(r *Renderer) {
		r.settleDelay = d
	}
}

// NewRenderer creates a Renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		navTimeout:  DefaultNavigationTimeout,
		settleDelay: DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render navigates to the URL in a fresh browser, waits for load plus
// network idle plus the settle delay, and returns the rendered main
// document, all iframe documents, and the visible body text.
func (r *Renderer) Render(ctx context.Context, url string) (*minutes.RenderedPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.navTimeout)
	defer cancel()

	lnchr := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(true)

	u, err := lnchr.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	defer func() {
		_ = browser.Close()
		lnchr.Kill()
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, convertErr(url, err)
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return nil, convertErr(url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, convertErr(url, err)
	}

	// Network idle, then a fixed settle delay for script-driven DOM work.
	page.WaitRequestIdle(requestIdleWindow, nil, nil, nil)()
	select {
	case <-ctx.Done():
		return nil, convertErr(url, ctx.Err())
	case <-time.After(r.settleDelay):
	}

	result := &minutes.RenderedPage{URL: url}

	result.HTML, err = page.HTML()
	if err != nil {
		return nil, convertErr(url, err)
	}

	if body, err := page.Element("body"); err == nil {
		if text, err := body.Text(); err == nil {
			result.VisibleText = text
		}
	}

	result.Frames = collectFrames(page)

	return result, nil
}

// collectFrames returns the rendered HTML of every iframe on the page.
// Frames that refuse inspection (cross-origin, detached) are skipped.
func collectFrames(page *rod.Page) []minutes.Frame {
	els, err := page.Elements("iframe")
	if err != nil {
		return nil
	}

	var frames []minutes.Frame
	for _, el := range els {
		frame := minutes.Frame{}
		if attr, _ := el.Attribute("id"); attr != nil {
			frame.Name = *attr
		}
		if frame.Name == "" {
			if attr, _ := el.Attribute("name"); attr != nil {
				frame.Name = *attr
			}
		}
		if attr, _ := el.Attribute("src"); attr != nil {
			frame.URL = *attr
		}

		fp, err := el.Frame()
		if err != nil {
			continue
		}
		html, err := fp.HTML()
		if err != nil {
			continue
		}
		frame.HTML = html
		frames = append(frames, frame)
	}
	return frames
}

// convertErr maps deadline exhaustion to the domain timeout code so the
// scrapers can distinguish a slow page from a broken one.
func convertErr(url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return minutes.Errorf(minutes.ETIMEOUT, "rendering %q timed out", url)
	}
	return err
}

// Close releases shared resources. Browsers are scoped to Render calls,
// so there is nothing to release.
func (r *Renderer) Close() error {
	return nil
}
