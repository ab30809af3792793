package mock

import (
	"context"

	"github.com/gikai/minutes"
)

var _ minutes.MinutesArchive = (*MinutesArchive)(nil)

// MinutesArchive is a mock implementation of minutes.MinutesArchive.
type MinutesArchive struct {
	SaveMinutesFn         func(ctx context.Context, m *minutes.MinutesData) error
	FindMinutesBySourceFn func(ctx context.Context, id minutes.SourceID) (*minutes.MinutesData, error)
}

func (a *MinutesArchive) SaveMinutes(ctx context.Context, m *minutes.MinutesData) error {
	return a.SaveMinutesFn(ctx, m)
}

func (a *MinutesArchive) FindMinutesBySource(ctx context.Context, id minutes.SourceID) (*minutes.MinutesData, error) {
	return a.FindMinutesBySourceFn(ctx, id)
}
