// Package scrape contains the per-source scrapers and the orchestrating
// service: scraper selection by URL shape, caching, bounded-concurrency
// batch fetching, and export of normalized minutes.
package scrape

import (
	"net/url"
	"strings"

	"github.com/gikai/minutes"
)

// PortalHost is the national parliament minutes portal.
const PortalHost = "kokkai.ndl.go.jp"

// Rule pairs a URL-shape predicate with the scraper that handles it.
type Rule struct {
	Name    string
	Match   func(url string) bool
	Scraper minutes.Scraper
}

// Registry is an ordered list of rules evaluated per call, first match
// wins. It holds no mutable state and is safe for concurrent use.
type Registry struct {
	rules []Rule
}

// NewRegistry creates a Registry with the given rules in order.
func NewRegistry(rules ...Rule) *Registry {
	return &Registry{rules: rules}
}

// Select returns the first scraper whose predicate matches the URL.
// The boolean reports whether any rule matched.
func (r *Registry) Select(url string) (minutes.Scraper, string, bool) {
	for _, rule := range r.rules {
		if rule.Match(url) {
			return rule.Scraper, rule.Name, true
		}
	}
	return nil, "", false
}

// IsPDFURL reports whether the URL path points directly at a PDF.
func IsPDFURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

// IsMinuteViewURL reports whether the URL follows the municipal CMS
// convention: .../tenant/<name>/MinuteView.html?council_id=...&schedule_id=...
func IsMinuteViewURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.Contains(u.Path, "/tenant/") && strings.HasSuffix(u.Path, "MinuteView.html")
}

// IsPortalURL reports whether the URL belongs to the national portal.
func IsPortalURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Hostname() == PortalHost
}

// DefaultRules builds the standard selection table: the PDF-suffix
// check runs first so that PDF links hosted on either source family go
// straight to the PDF scraper.
func DefaultRules(pdfScraper, minView, portal minutes.Scraper) []Rule {
	return []Rule{
		{Name: "pdf", Match: IsPDFURL, Scraper: pdfScraper},
		{Name: "minuteview", Match: IsMinuteViewURL, Scraper: minView},
		{Name: "portal", Match: IsPortalURL, Scraper: portal},
	}
}
