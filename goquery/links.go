package goquery

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gikai/minutes"
)

// pdfRef matches a PDF path inside an inline script or onclick handler,
// e.g. onclick="openFile('/tenant/files/minutes_0301.pdf')".
var pdfRef = regexp.MustCompile(`['"]([^'"]*\.(?i:pdf)[^'"]*)['"]`)

// textViewWords mark navigation to the script-free plain text rendering
// some municipal sources offer.
var textViewWords = []string{"テキスト表示", "テキスト版", "本文表示"}

// FindPDFLink returns the absolute URL of the first download control on
// the page that references a PDF: an anchor href ending in .pdf, or an
// onclick/script reference containing a .pdf path. Returns the empty
// string when the page offers no PDF.
func FindPDFLink(html, baseURL string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if !strings.Contains(strings.ToLower(href), ".pdf") {
			return true
		}
		found = resolve(base, href)
		return found == ""
	})
	if found != "" {
		return found
	}

	doc.Find("[onclick]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		onclick, _ := s.Attr("onclick")
		m := pdfRef.FindStringSubmatch(onclick)
		if m == nil {
			return true
		}
		found = resolve(base, m[1])
		return found == ""
	})
	if found != "" {
		return found
	}

	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		m := pdfRef.FindStringSubmatch(s.Text())
		if m == nil {
			return true
		}
		found = resolve(base, m[1])
		return found == ""
	})
	return found
}

// FindTextViewLink returns the absolute URL of the "plain text view"
// navigation link, or the empty string when the page has none.
func FindTextViewLink(html, baseURL string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		href, _ := s.Attr("href")
		for _, w := range textViewWords {
			if strings.Contains(text, w) {
				found = resolve(base, href)
				return found == ""
			}
		}
		if strings.Contains(strings.ToLower(href), "textview") {
			found = resolve(base, href)
			return found == ""
		}
		return true
	})
	return found
}

// TableSpeeches reads structured table rows pairing a speaker cell with
// a content cell, the layout the national portal uses. Rows without at
// least two cells or with an empty speaker are skipped.
func TableSpeeches(html string) []minutes.SpeakerSegment {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var segments []minutes.SpeakerSegment
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		name := strings.TrimSpace(cells.Eq(0).Text())
		content := NormalizeText(cells.Eq(1).Text())
		if name == "" || content == "" {
			return
		}
		name, role := SplitRole(name)
		segments = append(segments, minutes.SpeakerSegment{Name: name, Role: role, Content: content})
	})
	return segments
}

// resolve resolves href against base, skipping non-HTTP schemes.
func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
