// Package goquery extracts minutes content from parsed HTML: the title,
// the main textual body, date-labelled fields, and per-speaker segments.
// The municipal CMS family and the national portal share enough markup
// conventions that one selector-driven extractor covers both, with the
// callers supplying fallbacks for anything it misses.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// titleSelectors are tried in order before falling back to <title>.
var titleSelectors = []string{
	"h1",
	".title",
	"#title",
	".kaigiroku-title",
	".minutes-title",
}

// bodySelectors identify the main content area of a minutes page.
var bodySelectors = []string{
	"#honbun",
	".honbun",
	"#minutes",
	".minutes-body",
	".kaigiroku-body",
	"article",
	"main",
	"#content",
	".content",
}

// dateSelectors identify elements that carry the session date.
var dateSelectors = []string{
	".date",
	"#date",
	".kaisai-date",
	".meeting-date",
	"time",
}

// ContentExtractor pulls the title, body text, and date field text out
// of minutes HTML.
type ContentExtractor struct{}

// NewContentExtractor creates a ContentExtractor.
func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

// Title extracts the page title: the first non-empty match of the
// candidate selectors, then the document <title>.
func (e *ContentExtractor) Title(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	for _, sel := range titleSelectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// Body extracts the main textual body. Content-area selectors are tried
// first; when none matches, the whole body text is used. Script and
// style content is stripped either way.
func (e *ContentExtractor) Body(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()

	for _, sel := range bodySelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if text := NormalizeText(node.Text()); text != "" {
			return text
		}
	}
	return NormalizeText(doc.Find("body").Text())
}

// DateText returns the text of the first date-labelled element, or the
// empty string when the page has none. Callers run the result through
// the date parser; this method does no date validation itself.
func (e *ContentExtractor) DateText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	for _, sel := range dateSelectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}

	// Table layouts label the date in a header cell.
	var found string
	doc.Find("th, dt").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		label := strings.TrimSpace(s.Text())
		if !strings.Contains(label, "開催日") && !strings.Contains(label, "日時") {
			return true
		}
		if value := strings.TrimSpace(s.Next().Text()); value != "" {
			found = value
			return false
		}
		return true
	})
	return found
}

// NormalizeText collapses raw extracted text: lines are trimmed, empty
// lines dropped, and the remainder joined with single newlines.
func NormalizeText(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
