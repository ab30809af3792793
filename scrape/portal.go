package scrape

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gikai/minutes"
	"github.com/gikai/minutes/goquery"
	"github.com/gikai/minutes/wareki"
)

// portalCouncilIDLen is the fixed prefix length of the portal's opaque
// session token that identifies the chamber/committee; the remainder is
// the per-session part. Tokens at or below the prefix length have no
// session part and fall back to schedule "1".
const portalCouncilIDLen = 6

// navigationalWords identify chrome lines (menus, footers) that the
// coarse text fallback must skip.
var navigationalWords = []string{"検索", "ホーム", "メニュー", "Copyright", "サイトマップ", "ヘルプ"}

// minFallbackLineRunes is the minimum length of a visible-text line for
// the coarse fallback to treat it as transcript content.
const minFallbackLineRunes = 40

// Ensure PortalScraper implements minutes.Scraper at compile time.
var _ minutes.Scraper = (*PortalScraper)(nil)

// PortalScraper handles the national parliament search portal. The
// portal is slow to become ready under load, so navigation runs in a
// bounded retry loop; there is no further fallback after retries, and
// exhaustion surfaces as a connection error rather than an absent
// result.
type PortalScraper struct {
	renderer minutes.PageRenderer
	dates    *wareki.Parser
	content  *goquery.ContentExtractor
	speakers *goquery.SpeakerExtractor
	logger   *slog.Logger

	attempts    int
	backoffUnit time.Duration
}

// PortalOption configures a PortalScraper.
type PortalOption func(*PortalScraper)

// WithRetryAttempts overrides the navigation retry budget.
func WithRetryAttempts(n int) PortalOption {
	return func(s *PortalScraper) {
		s.attempts = n
	}
}

// WithBackoffUnit overrides the exponential backoff base unit.
// Tests set this near zero to avoid real delays.
func WithBackoffUnit(d time.Duration) PortalOption {
	return func(s *PortalScraper) {
		s.backoffUnit = d
	}
}

// NewPortalScraper creates a PortalScraper.
// A nil logger defaults to slog.Default().
func NewPortalScraper(renderer minutes.PageRenderer, logger *slog.Logger, opts ...PortalOption) *PortalScraper {
	if logger == nil {
		logger = slog.Default()
	}
	s := &PortalScraper{
		renderer:    renderer,
		dates:       wareki.NewParser(logger),
		content:     goquery.NewContentExtractor(),
		speakers:    goquery.NewSpeakerExtractor(),
		logger:      logger,
		attempts:    DefaultRetryAttempts,
		backoffUnit: DefaultBackoffUnit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParsePortalID splits the portal's opaque session token into the
// composite natural key: the first portalCouncilIDLen characters name
// the chamber/committee, the rest the session. Short tokens keep the
// whole token as the council id with schedule "1".
func ParsePortalID(rawURL string) minutes.SourceID {
	token := portalToken(rawURL)
	if token == "" {
		return minutes.SourceID{}
	}
	if len(token) <= portalCouncilIDLen {
		return minutes.SourceID{CouncilID: token, ScheduleID: "1"}
	}
	return minutes.SourceID{
		CouncilID:  token[:portalCouncilIDLen],
		ScheduleID: token[portalCouncilIDLen:],
	}
}

// portalToken pulls the session token out of the URL: the minId query
// parameter when present, the last path segment otherwise.
func portalToken(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if id := u.Query().Get("minId"); id != "" {
		return id
	}
	seg := path.Base(u.Path)
	if seg == "." || seg == "/" {
		return ""
	}
	return strings.TrimSuffix(seg, path.Ext(seg))
}

// FetchMinutes retrieves one session's minutes from the portal.
// Navigation failures retry with exponential backoff; exhaustion
// returns ECONNECTION naming the URL and attempt count.
func (s *PortalScraper) FetchMinutes(ctx context.Context, rawURL string) (*minutes.MinutesData, error) {
	page, err := RenderWithRetry(ctx, rawURL, s.renderer.Render, s.attempts, s.backoffUnit)
	if err != nil {
		s.logger.Warn("portal render failed", "url", rawURL, "err", err)
		return nil, err
	}

	rec := &minutes.MinutesData{
		Source:    ParsePortalID(rawURL),
		Title:     s.content.Title(page.HTML),
		SourceURL: rawURL,
		ScrapedAt: time.Now(),
	}
	if date, ok := s.findDate(page); ok {
		rec.Date = &date
	}

	rec.Speakers = s.ExtractSpeakers(page.HTML)
	rec.Content = s.ExtractMinutesText(page.HTML)
	if rec.Content == "" {
		rec.Content = fallbackContent(page.VisibleText)
	}
	if rec.Content == "" {
		return nil, minutes.Errorf(minutes.EPARSE, "no content extracted from %q", rawURL)
	}

	return rec, nil
}

// ExtractMinutesText reads the structured speech table and joins it
// into the full transcript text; with no table rows it returns the
// selector body so callers can apply the coarse fallback.
func (s *PortalScraper) ExtractMinutesText(html string) string {
	segments := goquery.TableSpeeches(html)
	if len(segments) == 0 {
		return ""
	}

	var b strings.Builder
	for _, seg := range segments {
		b.WriteString("○")
		b.WriteString(seg.Name)
		if seg.Role != "" {
			b.WriteString(seg.Role)
		}
		b.WriteString(" ")
		b.WriteString(seg.Content)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// ExtractSpeakers reads structured table rows first and falls back to
// the ○-marker text convention, deduplicating nothing: every speech is
// its own segment in page order.
func (s *PortalScraper) ExtractSpeakers(html string) []minutes.SpeakerSegment {
	if segments := goquery.TableSpeeches(html); len(segments) > 0 {
		return segments
	}
	return s.speakers.Extract(html)
}

// SpeakerNames returns the distinct speakers in first-seen order, with
// honorifics stripped.
func (s *PortalScraper) SpeakerNames(html string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, seg := range s.ExtractSpeakers(html) {
		if _, ok := seen[seg.Name]; ok {
			continue
		}
		seen[seg.Name] = struct{}{}
		names = append(names, seg.Name)
	}
	return names
}

// fallbackContent scans visible text for long, non-navigational lines:
// a coarse, speaker-agnostic extraction for pages without the speech
// table.
func fallbackContent(text string) string {
	var lines []string
line:
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if len([]rune(line)) < minFallbackLineRunes {
			continue
		}
		for _, w := range navigationalWords {
			if strings.Contains(line, w) {
				continue line
			}
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// findDate accepts era-prefixed or Gregorian text anywhere on the page.
func (s *PortalScraper) findDate(page *minutes.RenderedPage) (time.Time, bool) {
	if text := s.content.DateText(page.HTML); text != "" {
		if date, ok := s.dates.Parse(text); ok {
			return date, true
		}
	}
	return s.dates.ExtractFromText(page.VisibleText)
}
