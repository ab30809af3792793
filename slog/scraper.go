// Package slog provides logging decorators for domain interfaces.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/gikai/minutes"
)

// Ensure LoggingScraper implements minutes.Scraper.
var _ minutes.Scraper = (*LoggingScraper)(nil)

// LoggingScraper wraps a Scraper with fetch-outcome logging.
type LoggingScraper struct {
	next   minutes.Scraper
	logger *slog.Logger
}

// NewLoggingScraper creates a new LoggingScraper.
func NewLoggingScraper(next minutes.Scraper, logger *slog.Logger) *LoggingScraper {
	return &LoggingScraper{next: next, logger: logger}
}

// FetchMinutes logs the fetch outcome and delegates to the wrapped scraper.
func (s *LoggingScraper) FetchMinutes(ctx context.Context, url string) (rec *minutes.MinutesData, err error) {
	defer func(begin time.Time) {
		var bytes, speakers int
		if rec != nil {
			bytes = len(rec.Content)
			speakers = len(rec.Speakers)
		}
		s.logger.Info("fetch minutes",
			"url", url,
			"bytes", bytes,
			"speakers", speakers,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FetchMinutes(ctx, url)
}

// ExtractMinutesText delegates to the wrapped scraper.
func (s *LoggingScraper) ExtractMinutesText(html string) string {
	return s.next.ExtractMinutesText(html)
}

// ExtractSpeakers delegates to the wrapped scraper.
func (s *LoggingScraper) ExtractSpeakers(html string) []minutes.SpeakerSegment {
	return s.next.ExtractSpeakers(html)
}
