package goquery

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gikai/minutes"
)

// speakerLine matches the ○-marked speaker convention used in Japanese
// minutes: 「○山田太郎君  おはようございます。」 The marker suffix is
// either an honorific (stripped) or a role (kept). Longer alternatives
// come first because Go regexp alternation is leftmost-match.
var speakerLine = regexp.MustCompile(`^○\s*([^　\s]{1,20}?)(委員長|副議長|議長|委員|議員|市長|町長|村長|大臣|君|氏)\s*(.*)$`)

// honorifics carry no role information and are dropped.
var honorifics = map[string]bool{"君": true, "氏": true}

// SpeakerExtractor pulls chronologically ordered per-speaker segments
// out of minutes HTML.
type SpeakerExtractor struct{}

// NewSpeakerExtractor creates a SpeakerExtractor.
func NewSpeakerExtractor() *SpeakerExtractor {
	return &SpeakerExtractor{}
}

// Extract returns the speaker segments found in the HTML. A structured
// pass over speaker-classed nodes runs first; when the markup carries
// no speaker structure, a line-based pass over the visible text looks
// for the ○-marker convention.
func (e *SpeakerExtractor) Extract(html string) []minutes.SpeakerSegment {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	doc.Find("script, style, noscript").Remove()

	if segments := extractStructured(doc); len(segments) > 0 {
		return segments
	}
	return ExtractFromText(doc.Find("body").Text())
}

// extractStructured reads markup where each speech is its own element:
// div.speech/div.hatsugen blocks with a speaker-classed child, or
// definition lists pairing speaker (dt) with speech (dd).
func extractStructured(doc *goquery.Document) []minutes.SpeakerSegment {
	var segments []minutes.SpeakerSegment

	doc.Find("div.speech, div.hatsugen, li.speech").Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Find(".speaker, .hatsugensha").First().Text())
		content := NormalizeText(s.Find(".words, .speech-content, p").Text())
		if name == "" || content == "" {
			return
		}
		name, role := SplitRole(name)
		segments = append(segments, minutes.SpeakerSegment{Name: name, Role: role, Content: content})
	})
	if len(segments) > 0 {
		return segments
	}

	doc.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		dts := dl.Find("dt")
		dds := dl.Find("dd")
		if dts.Length() == 0 || dts.Length() != dds.Length() {
			return
		}
		dts.Each(func(i int, dt *goquery.Selection) {
			name := strings.TrimSpace(dt.Text())
			content := NormalizeText(dds.Eq(i).Text())
			if name == "" || content == "" {
				return
			}
			name, role := SplitRole(name)
			segments = append(segments, minutes.SpeakerSegment{Name: name, Role: role, Content: content})
		})
	})
	return segments
}

// ExtractFromText segments plain minutes text by ○-marked speaker
// lines. Text before the first marker is ignored; each marker opens a
// segment that accumulates lines until the next marker.
func ExtractFromText(text string) []minutes.SpeakerSegment {
	var segments []minutes.SpeakerSegment
	var current *minutes.SpeakerSegment
	var buf []string

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(strings.Join(buf, "\n"))
		if current.Content != "" {
			segments = append(segments, *current)
		}
		current = nil
		buf = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		m := speakerLine.FindStringSubmatch(line)
		if m == nil {
			if current != nil {
				buf = append(buf, line)
			}
			continue
		}

		flush()
		role := m[2]
		if honorifics[role] {
			role = ""
		}
		current = &minutes.SpeakerSegment{Name: m[1], Role: role}
		if rest := strings.TrimSpace(m[3]); rest != "" {
			buf = append(buf, rest)
		}
	}
	flush()

	return segments
}

// SplitRole separates a trailing role or honorific from a speaker name.
// Honorifics are dropped; roles are returned separately.
func SplitRole(name string) (string, string) {
	for _, role := range []string{"委員長", "副議長", "議長", "委員", "議員", "市長", "町長", "村長", "大臣"} {
		if strings.HasSuffix(name, role) && len(name) > len(role) {
			return strings.TrimSuffix(name, role), role
		}
	}
	for h := range honorifics {
		if strings.HasSuffix(name, h) && len(name) > len(h) {
			return strings.TrimSuffix(name, h), ""
		}
	}
	return name, ""
}
