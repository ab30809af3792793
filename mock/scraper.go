package mock

import (
	"context"

	"github.com/gikai/minutes"
)

var _ minutes.Scraper = (*Scraper)(nil)

// Scraper is a mock implementation of minutes.Scraper.
type Scraper struct {
	FetchMinutesFn       func(ctx context.Context, url string) (*minutes.MinutesData, error)
	ExtractMinutesTextFn func(html string) string
	ExtractSpeakersFn    func(html string) []minutes.SpeakerSegment
}

func (s *Scraper) FetchMinutes(ctx context.Context, url string) (*minutes.MinutesData, error) {
	return s.FetchMinutesFn(ctx, url)
}

func (s *Scraper) ExtractMinutesText(html string) string {
	return s.ExtractMinutesTextFn(html)
}

func (s *Scraper) ExtractSpeakers(html string) []minutes.SpeakerSegment {
	return s.ExtractSpeakersFn(html)
}
