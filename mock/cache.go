package mock

import (
	"context"

	"github.com/gikai/minutes"
)

var _ minutes.Cache = (*Cache)(nil)

// Cache is a mock implementation of minutes.Cache.
type Cache struct {
	GetFn func(ctx context.Context, url string) (*minutes.MinutesData, error)
	PutFn func(ctx context.Context, url string, data *minutes.MinutesData) error
}

func (c *Cache) Get(ctx context.Context, url string) (*minutes.MinutesData, error) {
	return c.GetFn(ctx, url)
}

func (c *Cache) Put(ctx context.Context, url string, data *minutes.MinutesData) error {
	return c.PutFn(ctx, url, data)
}
