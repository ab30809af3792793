package rod

import (
	"context"
	"log/slog"
	"time"

	"github.com/gikai/minutes"
)

// Ensure LoggingRenderer implements minutes.PageRenderer.
var _ minutes.PageRenderer = (*LoggingRenderer)(nil)

// LoggingRenderer wraps a PageRenderer with debug logging.
type LoggingRenderer struct {
	next   minutes.PageRenderer
	logger *slog.Logger
}

// NewLoggingRenderer creates a new LoggingRenderer.
func NewLoggingRenderer(next minutes.PageRenderer, logger *slog.Logger) *LoggingRenderer {
	return &LoggingRenderer{next: next, logger: logger}
}

// Render logs the URL being rendered and delegates to the wrapped renderer.
func (r *LoggingRenderer) Render(ctx context.Context, url string) (page *minutes.RenderedPage, err error) {
	defer func(begin time.Time) {
		var bytes, frames int
		if page != nil {
			bytes = len(page.HTML)
			frames = len(page.Frames)
		}
		r.logger.Info("render",
			"url", url,
			"bytes", bytes,
			"frames", frames,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.Render(ctx, url)
}

// Close delegates to the wrapped renderer.
func (r *LoggingRenderer) Close() error {
	return r.next.Close()
}
