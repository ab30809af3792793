package mock

import (
	"context"

	"github.com/gikai/minutes"
)

var _ minutes.PageRenderer = (*PageRenderer)(nil)

// PageRenderer is a mock implementation of minutes.PageRenderer.
type PageRenderer struct {
	RenderFn func(ctx context.Context, url string) (*minutes.RenderedPage, error)
	CloseFn  func() error
}

func (r *PageRenderer) Render(ctx context.Context, url string) (*minutes.RenderedPage, error) {
	return r.RenderFn(ctx, url)
}

func (r *PageRenderer) Close() error {
	if r.CloseFn == nil {
		return nil
	}
	return r.CloseFn()
}
