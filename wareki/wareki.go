// Package wareki parses Japanese calendar dates as they appear in
// legislative minutes: era-based notation (令和, 平成), Gregorian
// notation (西暦), and ISO-style fallbacks, with full-width digits
// tolerated everywhere.
package wareki

import (
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// eraPattern converts an era-relative year to a Gregorian year by
// adding Offset (era year 1 + Offset = first Gregorian year of the era).
type eraPattern struct {
	re     *regexp.Regexp
	offset int
}

var patterns = []eraPattern{
	// 令和: era year 1 = 2019
	{regexp.MustCompile(`令和\s*(\d{1,2})\s*年\s*(\d{1,2})\s*月\s*(\d{1,2})\s*日`), 2018},
	// 平成: era year 1 = 1989
	{regexp.MustCompile(`平成\s*(\d{1,2})\s*年\s*(\d{1,2})\s*月\s*(\d{1,2})\s*日`), 1988},
	// 西暦 (Gregorian)
	{regexp.MustCompile(`(\d{4})\s*年\s*(\d{1,2})\s*月\s*(\d{1,2})\s*日`), 0},
}

// isoLayouts are tried when no Japanese-notation pattern matches.
var isoLayouts = []string{"2006-01-02", "2006/01/02", "2006.01.02"}

var fullwidthDigits = strings.NewReplacer(
	"０", "0", "１", "1", "２", "2", "３", "3", "４", "4",
	"５", "5", "６", "6", "７", "7", "８", "8", "９", "9",
)

// Parser converts date text into calendar dates and locates dates
// embedded in free text. Parsing is best effort: all failures are
// logged and reported as not-found, never as errors.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a Parser. A nil logger defaults to slog.Default().
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// normalize prepares text for matching: full-width digits become ASCII
// and 元年 ("first year") becomes 1年.
func normalize(text string) string {
	text = fullwidthDigits.Replace(text)
	return strings.ReplaceAll(text, "元年", "1年")
}

// Parse converts a date string to a calendar date.
// The boolean reports whether a valid date was found.
func (p *Parser) Parse(text string) (time.Time, bool) {
	text = normalize(strings.TrimSpace(text))

	for _, ep := range patterns {
		m := ep.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		return p.buildDate(text, m, ep.offset)
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}

	p.logger.Debug("no date pattern matched", "text", text)
	return time.Time{}, false
}

// ExtractFromText returns the first date found in free text.
func (p *Parser) ExtractFromText(text string) (time.Time, bool) {
	text = normalize(text)

	for _, ep := range patterns {
		if m := ep.re.FindStringSubmatch(text); m != nil {
			if t, ok := p.buildDate(text, m, ep.offset); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// ExtractAllFromText returns every date found in free text,
// de-duplicated and sorted ascending.
func (p *Parser) ExtractAllFromText(text string) []time.Time {
	text = normalize(text)

	seen := make(map[time.Time]struct{})
	var dates []time.Time

	for _, ep := range patterns {
		for _, m := range ep.re.FindAllStringSubmatch(text, -1) {
			t, ok := p.buildDate(text, m, ep.offset)
			if !ok {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			dates = append(dates, t)
		}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// buildDate constructs a date from regex submatches, applying the era
// offset. Out-of-range month/day values are rejected and logged at
// warn level rather than propagated.
func (p *Parser) buildDate(text string, m []string, offset int) (time.Time, bool) {
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	year += offset

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range components, so a round-trip
	// mismatch means the source values were invalid.
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		p.logger.Warn("date components out of range",
			"text", text, "year", year, "month", month, "day", day)
		return time.Time{}, false
	}
	return t, true
}
