package scrape

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gikai/minutes"
	"github.com/gikai/minutes/goquery"
	"github.com/gikai/minutes/pdf"
	"github.com/gikai/minutes/readability"
	"github.com/gikai/minutes/trafilatura"
	"github.com/gikai/minutes/wareki"
)

// DefaultMinContentLen is the rune count below which an extracted body
// is considered implausibly short and the next fallback strategy runs.
const DefaultMinContentLen = 100

// frameHints mark the iframe the municipal CMS renders the transcript
// into, matched against the frame's id/name and src.
var frameHints = []string{"minute", "honbun", "gijiroku", "discuss"}

// Ensure MinuteViewScraper implements minutes.Scraper at compile time.
var _ minutes.Scraper = (*MinuteViewScraper)(nil)

// MinuteViewScraper handles the shared municipal CMS family
// (.../tenant/<name>/MinuteView.html?council_id=...&schedule_id=...).
// The CMS renders content client-side, frequently inside a named
// iframe, and sometimes offers the authoritative transcript only as a
// PDF download, so retrieval is a fallback chain rather than a single
// strategy.
type MinuteViewScraper struct {
	renderer minutes.PageRenderer
	pdfs     *pdf.Handler
	dates    *wareki.Parser
	content  *goquery.ContentExtractor
	speakers *goquery.SpeakerExtractor
	mainText *trafilatura.Extractor
	fallback *readability.Extractor
	logger   *slog.Logger

	minContentLen int
}

// MinuteViewOption configures a MinuteViewScraper.
type MinuteViewOption func(*MinuteViewScraper)

// WithMinContentLen overrides the short-content threshold.
func WithMinContentLen(n int) MinuteViewOption {
	return func(s *MinuteViewScraper) {
		s.minContentLen = n
	}
}

// NewMinuteViewScraper creates a MinuteViewScraper.
// A nil logger defaults to slog.Default().
func NewMinuteViewScraper(renderer minutes.PageRenderer, pdfs *pdf.Handler, logger *slog.Logger, opts ...MinuteViewOption) *MinuteViewScraper {
	if logger == nil {
		logger = slog.Default()
	}
	s := &MinuteViewScraper{
		renderer:      renderer,
		pdfs:          pdfs,
		dates:         wareki.NewParser(logger),
		content:       goquery.NewContentExtractor(),
		speakers:      goquery.NewSpeakerExtractor(),
		mainText:      trafilatura.NewExtractor(),
		fallback:      readability.NewExtractor(),
		logger:        logger,
		minContentLen: DefaultMinContentLen,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseMinuteViewID extracts the composite natural key from the URL's
// council_id and schedule_id query parameters.
func ParseMinuteViewID(rawURL string) minutes.SourceID {
	u, err := url.Parse(rawURL)
	if err != nil {
		return minutes.SourceID{}
	}
	q := u.Query()
	return minutes.SourceID{
		CouncilID:  q.Get("council_id"),
		ScheduleID: q.Get("schedule_id"),
	}
}

// FetchMinutes retrieves one session's minutes. Strategies run in
// order, each independently guarded, stopping at the first success:
// rendered-page PDF download, iframe selector extraction, main-content
// extraction, whole-page visible text, and finally the plain text view
// link.
func (s *MinuteViewScraper) FetchMinutes(ctx context.Context, rawURL string) (*minutes.MinutesData, error) {
	src := ParseMinuteViewID(rawURL)

	page, err := s.renderer.Render(ctx, rawURL)
	if err != nil {
		s.logger.Warn("render failed", "url", rawURL, "err", err)
		return nil, err
	}

	// The PDF is authoritative when the page offers one.
	if rec, ok := s.tryPDFFirst(ctx, rawURL, page, src); ok {
		return rec, nil
	}

	html := s.pickHTML(page)

	rec := &minutes.MinutesData{
		Source:    src,
		SourceURL: rawURL,
		ScrapedAt: time.Now(),
	}

	rec.Title = s.content.Title(html)
	if rec.Title == "" {
		rec.Title = s.content.Title(page.HTML)
	}
	if date, ok := s.findDate(page, html); ok {
		rec.Date = &date
	}

	attempts := []struct {
		name string
		fn   func() string
	}{
		{"selector-body", func() string { return s.content.Body(html) }},
		{"main-content", func() string {
			text, err := s.mainText.ExtractText(html)
			if err != nil {
				return ""
			}
			return text
		}},
		{"visible-text", func() string { return goquery.NormalizeText(page.VisibleText) }},
		{"text-view", func() string { return s.tryTextView(ctx, rawURL, page, rec) }},
	}

	for _, attempt := range attempts {
		body := attempt.fn()
		if runeLen(body) >= s.minContentLen {
			rec.Content = body
			break
		}
		// Keep the longest short result; a short transcript beats none.
		if runeLen(body) > runeLen(rec.Content) {
			rec.Content = body
		}
		s.logger.Debug("content attempt too short",
			"strategy", attempt.name, "url", rawURL, "runes", runeLen(body))
	}

	if rec.Content == "" {
		return nil, minutes.Errorf(minutes.EPARSE, "no content extracted from %q", rawURL)
	}

	rec.Speakers = s.speakers.Extract(html)
	if len(rec.Speakers) == 0 {
		rec.Speakers = goquery.ExtractFromText(rec.Content)
	}

	return rec, nil
}

// tryPDFFirst scans the rendered page for a PDF download control and
// builds the record from the PDF when one is offered. Failures fall
// through to HTML extraction.
func (s *MinuteViewScraper) tryPDFFirst(ctx context.Context, rawURL string, page *minutes.RenderedPage, src minutes.SourceID) (*minutes.MinutesData, bool) {
	pdfURL := goquery.FindPDFLink(page.HTML, rawURL)
	if pdfURL == "" {
		return nil, false
	}

	path, text, err := s.pdfs.DownloadAndExtract(ctx, pdfURL, "")
	if err != nil {
		s.logger.Warn("pdf-first download failed", "url", pdfURL, "err", err)
		return nil, false
	}

	rec := &minutes.MinutesData{
		Source:    src,
		Title:     s.content.Title(page.HTML),
		Content:   text,
		SourceURL: rawURL,
		ScrapedAt: time.Now(),
		PDFURL:    pdfURL,
		Metadata:  map[string]string{"pdfLocalPath": path},
	}
	if date, ok := s.findDate(page, page.HTML); ok {
		rec.Date = &date
	} else if date, ok := s.dates.ExtractFromText(text); ok {
		rec.Date = &date
	}
	return rec, true
}

// pickHTML selects the transcript document: a hinted iframe when the
// CMS used one, the main document otherwise.
func (s *MinuteViewScraper) pickHTML(page *minutes.RenderedPage) string {
	for _, frame := range page.Frames {
		id := strings.ToLower(frame.Name + " " + frame.URL)
		for _, hint := range frameHints {
			if strings.Contains(id, hint) && frame.HTML != "" {
				return frame.HTML
			}
		}
	}
	// No hinted frame; any lone frame with substantial content wins
	// over an empty shell document.
	if len(page.Frames) == 1 && runeLen(page.Frames[0].HTML) > runeLen(page.HTML) {
		return page.Frames[0].HTML
	}
	return page.HTML
}

// tryTextView follows the plain text view link, re-renders, and
// extracts its visible text.
func (s *MinuteViewScraper) tryTextView(ctx context.Context, rawURL string, page *minutes.RenderedPage, rec *minutes.MinutesData) string {
	tvURL := goquery.FindTextViewLink(page.HTML, rawURL)
	if tvURL == "" {
		return ""
	}

	tv, err := s.renderer.Render(ctx, tvURL)
	if err != nil {
		s.logger.Warn("text view render failed", "url", tvURL, "err", err)
		return ""
	}
	rec.TextViewURL = tvURL

	if text, err := s.fallback.ExtractText(tv.HTML); err == nil && text != "" {
		return text
	}
	return goquery.NormalizeText(tv.VisibleText)
}

// findDate looks for the session date: the date-labelled field first,
// then a whole-page text search.
func (s *MinuteViewScraper) findDate(page *minutes.RenderedPage, html string) (time.Time, bool) {
	if text := s.content.DateText(html); text != "" {
		if date, ok := s.dates.Parse(text); ok {
			return date, true
		}
	}
	return s.dates.ExtractFromText(page.VisibleText)
}

// ExtractMinutesText pulls the main body out of already obtained HTML,
// falling back to readability extraction when selectors come up short.
func (s *MinuteViewScraper) ExtractMinutesText(html string) string {
	body := s.content.Body(html)
	if runeLen(body) >= s.minContentLen {
		return body
	}
	if text, err := s.fallback.ExtractText(html); err == nil && runeLen(text) > runeLen(body) {
		return text
	}
	return body
}

// ExtractSpeakers pulls speaker segments out of already obtained HTML.
func (s *MinuteViewScraper) ExtractSpeakers(html string) []minutes.SpeakerSegment {
	return s.speakers.Extract(html)
}

func runeLen(s string) int {
	return len([]rune(s))
}
