package scrape

import (
	"context"
	"time"

	"github.com/gikai/minutes"
)

// DefaultRetryAttempts is the bounded retry budget for portal navigation.
const DefaultRetryAttempts = 3

// DefaultBackoffUnit is the base unit for exponential backoff between
// attempts: attempt n waits unit * 2^n.
const DefaultBackoffUnit = time.Second

// RenderFunc is the signature of a page-rendering function.
type RenderFunc func(ctx context.Context, url string) (*minutes.RenderedPage, error)

// RenderWithRetry attempts to render a URL up to attempts times with
// exponential backoff between attempts. After exhausting the budget it
// returns ECONNECTION naming the URL and attempt count, so callers can
// tell persistent unreachability from a one-off parse failure. Sleeps
// are context-aware.
func RenderWithRetry(ctx context.Context, url string, render RenderFunc, attempts int, unit time.Duration) (*minutes.RenderedPage, error) {
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		page, err := render(ctx, url)
		if err == nil {
			return page, nil
		}
		lastErr = err

		if attempt >= attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(unit * (1 << attempt)):
		}
	}

	return nil, minutes.Errorf(minutes.ECONNECTION,
		"rendering %q failed after %d attempts: %v", url, attempts, lastErr)
}
